package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

type productDocument struct {
	ID               bson.ObjectID    `bson:"_id"`
	Title            string           `bson:"title"`
	Slug             string           `bson:"slug"`
	Category         string           `bson:"category"`
	Price            bson.Decimal128  `bson:"price"`
	CompareAtPrice   *bson.Decimal128 `bson:"compare_at_price,omitempty"`
	DeliveryType     string           `bson:"delivery_type"`
	Platform         string           `bson:"platform,omitempty"`
	Duration         string           `bson:"duration,omitempty"`
	Region           string           `bson:"region,omitempty"`
	Stock            int              `bson:"stock"`
	IsActive         bool             `bson:"is_active"`
	ImageURL         string           `bson:"image_url,omitempty"`
	ShortDescription string           `bson:"short_description,omitempty"`
	Description      string           `bson:"description,omitempty"`
	CreatedAt        time.Time        `bson:"created_at"`
	UpdatedAt        time.Time        `bson:"updated_at"`
}

func newProductDocument(p *models.Product, id bson.ObjectID) (*productDocument, error) {
	price, err := toDecimal(p.Price)
	if err != nil {
		return nil, err
	}
	doc := &productDocument{
		ID:               id,
		Title:            p.Title,
		Slug:             p.Slug,
		Category:         p.Category,
		Price:            price,
		DeliveryType:     p.DeliveryType,
		Platform:         p.Platform,
		Duration:         p.Duration,
		Region:           p.Region,
		Stock:            p.Stock,
		IsActive:         p.IsActive,
		ImageURL:         p.ImageURL,
		ShortDescription: p.ShortDescription,
		Description:      p.Description,
		CreatedAt:        p.CreatedAt.UTC(),
		UpdatedAt:        p.UpdatedAt.UTC(),
	}
	if p.CompareAtPrice != nil {
		compare, err := toDecimal(*p.CompareAtPrice)
		if err != nil {
			return nil, err
		}
		doc.CompareAtPrice = &compare
	}
	return doc, nil
}

func (d *productDocument) model() (*models.Product, error) {
	price, err := fromDecimal(d.Price)
	if err != nil {
		return nil, err
	}
	p := &models.Product{
		ID:               d.ID.Hex(),
		Title:            d.Title,
		Slug:             d.Slug,
		Category:         d.Category,
		Price:            price,
		DeliveryType:     d.DeliveryType,
		Platform:         d.Platform,
		Duration:         d.Duration,
		Region:           d.Region,
		Stock:            d.Stock,
		IsActive:         d.IsActive,
		ImageURL:         d.ImageURL,
		ShortDescription: d.ShortDescription,
		Description:      d.Description,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if d.CompareAtPrice != nil {
		compare, err := fromDecimal(*d.CompareAtPrice)
		if err != nil {
			return nil, err
		}
		p.CompareAtPrice = &compare
	}
	return p, nil
}

type ProductStore struct {
	store *Store
}

func NewProductStore(store *Store) *ProductStore {
	return &ProductStore{store: store}
}

func (s *ProductStore) collection() *mongo.Collection {
	return s.store.Collection(ProductsCollection)
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.findOne(ctx, bson.D{{Key: "slug", Value: slug}})
}

func (s *ProductStore) findOne(ctx context.Context, filter bson.D) (*models.Product, error) {
	var doc productDocument
	if err := s.collection().FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	return doc.model()
}

func (s *ProductStore) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	filter := bson.D{}
	if f.ActiveOnly {
		filter = append(filter, bson.E{Key: "is_active", Value: true})
	}
	if f.Category != "" {
		filter = append(filter, bson.E{Key: "category", Value: f.Category})
	}
	if f.Search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: pattern}},
			bson.D{{Key: "slug", Value: pattern}},
			bson.D{{Key: "platform", Value: pattern}},
		}})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))

	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return decodeProducts(ctx, cursor)
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	doc, err := newProductDocument(p, bson.NewObjectID())
	if err != nil {
		return err
	}
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	oid, err := objectID(p.ID)
	if err != nil {
		return err
	}
	doc, err := newProductDocument(p, oid)
	if err != nil {
		return err
	}
	res, err := s.collection().ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, doc)
	if err != nil {
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	products := make([]models.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].model()
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}
