package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

type orderItemDocument struct {
	ID            string          `bson:"id"`
	ProductID     string          `bson:"product_id"`
	TitleSnapshot string          `bson:"title_snapshot"`
	UnitPrice     bson.Decimal128 `bson:"unit_price"`
	Quantity      int             `bson:"quantity"`
	LineTotal     bson.Decimal128 `bson:"line_total"`
}

// orderDocument stores the items inside the order, so inserting it is a
// single atomic write.
type orderDocument struct {
	ID            bson.ObjectID       `bson:"_id"`
	OrderNumber   string              `bson:"order_number"`
	UserID        string              `bson:"user_id"`
	Status        string              `bson:"status"`
	PaymentStatus string              `bson:"payment_status"`
	TotalAmount   bson.Decimal128     `bson:"total_amount"`
	Currency      string              `bson:"currency"`
	Items         []orderItemDocument `bson:"items"`
	CreatedAt     time.Time           `bson:"created_at"`
	UpdatedAt     time.Time           `bson:"updated_at"`
}

func newOrderDocument(o *models.Order, id bson.ObjectID) (*orderDocument, error) {
	total, err := toDecimal(o.TotalAmount)
	if err != nil {
		return nil, err
	}
	doc := &orderDocument{
		ID:            id,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   total,
		Currency:      o.Currency,
		Items:         make([]orderItemDocument, 0, len(o.Items)),
		CreatedAt:     o.CreatedAt.UTC(),
		UpdatedAt:     o.UpdatedAt.UTC(),
	}
	for _, item := range o.Items {
		unit, err := toDecimal(item.UnitPrice)
		if err != nil {
			return nil, err
		}
		line, err := toDecimal(item.LineTotal)
		if err != nil {
			return nil, err
		}
		doc.Items = append(doc.Items, orderItemDocument{
			ID:            bson.NewObjectID().Hex(),
			ProductID:     item.ProductID,
			TitleSnapshot: item.TitleSnapshot,
			UnitPrice:     unit,
			Quantity:      item.Quantity,
			LineTotal:     line,
		})
	}
	return doc, nil
}

func (d *orderDocument) model() (*models.Order, error) {
	total, err := fromDecimal(d.TotalAmount)
	if err != nil {
		return nil, err
	}
	o := &models.Order{
		ID:            d.ID.Hex(),
		OrderNumber:   d.OrderNumber,
		UserID:        d.UserID,
		Status:        d.Status,
		PaymentStatus: d.PaymentStatus,
		TotalAmount:   total,
		Currency:      d.Currency,
		Items:         make([]models.OrderItem, 0, len(d.Items)),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
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
		o.Items = append(o.Items, models.OrderItem{
			ID:            item.ID,
			OrderID:       o.ID,
			ProductID:     item.ProductID,
			TitleSnapshot: item.TitleSnapshot,
			UnitPrice:     unit,
			Quantity:      item.Quantity,
			LineTotal:     line,
		})
	}
	return o, nil
}

type OrderStore struct {
	store *Store
}

func NewOrderStore(store *Store) *OrderStore {
	return &OrderStore{store: store}
}

func (s *OrderStore) collection() *mongo.Collection {
	return s.store.Collection(OrdersCollection)
}

func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	doc, err := newOrderDocument(o, bson.NewObjectID())
	if err != nil {
		return err
	}
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	o.ID = doc.ID.Hex()
	for i := range o.Items {
		o.Items[i].ID = doc.Items[i].ID
		o.Items[i].OrderID = o.ID
	}
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *OrderStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.findOne(ctx, bson.D{{Key: "order_number", Value: number}})
}

func (s *OrderStore) findOne(ctx context.Context, filter bson.D) (*models.Order, error) {
	var doc orderDocument
	if err := s.collection().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.model()
}

// ListByUser returns order headers; items are left out of the projection.
func (s *OrderStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetProjection(bson.D{{Key: "items", Value: 0}})

	cursor, err := s.collection().Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}

	orders := make([]models.Order, 0, len(docs))
	for i := range docs {
		o, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id, fromStatus, status, paymentStatus string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: status},
		{Key: "payment_status", Value: paymentStatus},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	filter := bson.D{{Key: "_id", Value: oid}, {Key: "status", Value: fromStatus}}
	var doc orderDocument
	err = s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, countErr := s.collection().CountDocuments(ctx, bson.D{{Key: "_id", Value: oid}})
		if countErr != nil {
			return nil, fmt.Errorf("count orders: %w", countErr)
		}
		if n == 0 {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("order %s left %s: %w", id, fromStatus, models.ErrConflict)
	}
	if err != nil {
		return nil, classify(err)
	}
	return doc.model()
}
