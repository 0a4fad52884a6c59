package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// maxCartRetries bounds optimistic retries of one cart mutation.
const maxCartRetries = 16

type cartItemDocument struct {
	ID            string          `bson:"id"`
	ProductID     string          `bson:"product_id"`
	TitleSnapshot string          `bson:"title_snapshot"`
	UnitPrice     bson.Decimal128 `bson:"unit_price"`
	Quantity      int             `bson:"quantity"`
	LineTotal     bson.Decimal128 `bson:"line_total"`
}

// cartDocument embeds its items so a cart is always written as a whole.
// Version guards against lost updates.
type cartDocument struct {
	ID        bson.ObjectID      `bson:"_id"`
	UserID    string             `bson:"user_id"`
	Status    string             `bson:"status"`
	Items     []cartItemDocument `bson:"items"`
	Version   int64              `bson:"version"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func newCartDocument(c *models.Cart, id bson.ObjectID) (*cartDocument, error) {
	doc := &cartDocument{
		ID:        id,
		UserID:    c.UserID,
		Status:    c.Status,
		Items:     make([]cartItemDocument, 0, len(c.Items)),
		Version:   c.Version,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
	for _, item := range c.Items {
		unit, err := toDecimal(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		line, err := toDecimal(item.LineTotal)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, cartItemDocument{
			ID:            item.ID,
			ProductID:     item.ProductID,
			TitleSnapshot: item.TitleSnapshot,
			UnitPrice:     unit,
			Quantity:      item.Quantity,
			LineTotal:     line,
		})
	}
	return doc, nil
}

func (d *cartDocument) model() (*models.Cart, error) {
	c := &models.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Status:    d.Status,
		Items:     make([]models.CartItem, 0, len(d.Items)),
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, item := range d.Items {
		unit, err := fromDecimal(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		line, err := fromDecimal(item.LineTotal)
		if err != nil {
			return nil, err
		}
		c.Items = append(c.Items, models.CartItem{
			ID:            item.ID,
			CartID:        c.ID,
			ProductID:     item.ProductID,
			TitleSnapshot: item.TitleSnapshot,
			UnitPrice:     unit,
			Quantity:      item.Quantity,
			LineTotal:     line,
		})
	}
	return c, nil
}

type CartStore struct {
	store *Store
}

func NewCartStore(store *Store) *CartStore {
	return &CartStore{store: store}
}

func (s *CartStore) collection() *mongo.Collection {
	return s.store.Collection(CartsCollection)
}

func (s *CartStore) GetActiveByUser(ctx context.Context, userID string) (*models.Cart, error) {
	return s.findOne(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "status", Value: models.CartStatusActive},
	})
}

func (s *CartStore) findOne(ctx context.Context, filter bson.D) (*models.Cart, error) {
	var doc cartDocument
	if err := s.collection().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.model()
}

func (s *CartStore) Create(ctx context.Context, cart *models.Cart) error {
	doc, err := newCartDocument(cart, bson.NewObjectID())
	if err != nil {
		return err
	}
	doc.Version = 0
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	cart.ID = doc.ID.Hex()
	cart.Version = 0
	return nil
}

func (s *CartStore) FindCartIDByItem(ctx context.Context, itemID string) (string, error) {
	var doc struct {
		ID bson.ObjectID `bson:"_id"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err := s.collection().FindOne(ctx, bson.D{{Key: "items.id", Value: itemID}}, opts).Decode(&doc)
	if err != nil {
		return "", classify(err)
	}
	return doc.ID.Hex(), nil
}

// Update re-reads and retries when another writer bumped the version between
// the read and the replace.
func (s *CartStore) Update(ctx context.Context, cartID string, fn service.CartMutation) (*models.Cart, error) {
	oid, err := objectID(cartID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCartRetries; attempt++ {
		cart, err := s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
		if err != nil {
			return nil, err
		}
		readVersion := cart.Version

		if err := fn(cart); err != nil {
			return nil, err
		}
		for i := range cart.Items {
			if cart.Items[i].ID == "" {
				cart.Items[i].ID = bson.NewObjectID().Hex()
			}
			cart.Items[i].CartID = cart.ID
		}
		cart.Version = readVersion + 1
		cart.UpdatedAt = time.Now()

		doc, err := newCartDocument(cart, oid)
		if err != nil {
			return nil, err
		}
		res, err := s.collection().ReplaceOne(ctx, bson.D{
			{Key: "_id", Value: oid},
			{Key: "version", Value: readVersion},
		}, doc)
		if err != nil {
			return nil, fmt.Errorf("replace cart: %w", classify(err))
		}
		if res.MatchedCount == 1 {
			return cart, nil
		}
	}
	return nil, fmt.Errorf("cart %s: %w", cartID, models.ErrConflict)
}
