package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

func toDecimal(a money.Amount) (bson.Decimal128, error) {
	d, err := bson.ParseDecimal128(a.Exact())
	if err != nil {
		return bson.Decimal128{}, fmt.Errorf("amount %s: %w", a.Exact(), err)
	}
	return d, nil
}

func fromDecimal(d bson.Decimal128) (money.Amount, error) {
	return money.Parse(d.String())
}

// objectID parses a hex id. Malformed ids cannot exist, so they read as
// not found.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, models.ErrNotFound
	}
	return oid, nil
}

// classify maps driver errors onto the repository sentinels.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrDuplicateKey, err)
	default:
		return err
	}
}
