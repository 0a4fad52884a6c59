package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// TopSelling ranks active products by units sold in non-cancelled orders
// created since the given time.
func (s *ProductStore) TopSelling(ctx context.Context, since time.Time, limit int) ([]models.Product, error) {
	orders := s.store.Collection(OrdersCollection)

	pipeline := bson.A{
		bson.D{
			{Key: "$match", Value: bson.D{
				{Key: "created_at", Value: bson.D{{Key: "$gte", Value: since.UTC()}}},
				{Key: "status", Value: bson.D{{Key: "$ne", Value: models.OrderStatusCancelled}}},
			}},
		},
		bson.D{{Key: "$unwind", Value: "$items"}},
		bson.D{
			{Key: "$group", Value: bson.D{
				{Key: "_id", Value: "$items.product_id"},
				{Key: "sold", Value: bson.D{{Key: "$sum", Value: "$items.quantity"}}},
			}},
		},
		bson.D{
			{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: ProductsCollection},
				{Key: "let", Value: bson.D{
					{Key: "pid", Value: bson.D{{Key: "$convert", Value: bson.D{
						{Key: "input", Value: "$_id"},
						{Key: "to", Value: "objectId"},
						{Key: "onError", Value: nil},
					}}}},
				}},
				{Key: "pipeline", Value: bson.A{
					bson.D{{Key: "$match", Value: bson.D{
						{Key: "$expr", Value: bson.D{{Key: "$eq", Value: bson.A{"$_id", "$$pid"}}}},
						{Key: "is_active", Value: true},
					}}},
				}},
				{Key: "as", Value: "product"},
			}},
		},
		bson.D{{Key: "$unwind", Value: "$product"}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "sold", Value: -1},
			{Key: "product.title", Value: 1},
		}}},
		bson.D{{Key: "$limit", Value: limit}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$product"}}}},
	}

	cursor, err := orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("top selling aggregation: %w", err)
	}
	return decodeProducts(ctx, cursor)
}
