package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

type postDocument struct {
	ID          bson.ObjectID `bson:"_id"`
	Title       string        `bson:"title"`
	Slug        string        `bson:"slug"`
	Excerpt     string        `bson:"excerpt,omitempty"`
	Content     string        `bson:"content"`
	CoverImage  string        `bson:"cover_image,omitempty"`
	IsPublished bool          `bson:"is_published"`
	PublishedAt *time.Time    `bson:"published_at,omitempty"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

func (d *postDocument) model() models.BlogPost {
	return models.BlogPost{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Slug:        d.Slug,
		Excerpt:     d.Excerpt,
		Content:     d.Content,
		CoverImage:  d.CoverImage,
		IsPublished: d.IsPublished,
		PublishedAt: d.PublishedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type PostStore struct {
	store *Store
}

func NewPostStore(store *Store) *PostStore {
	return &PostStore{store: store}
}

func (s *PostStore) collection() *mongo.Collection {
	return s.store.Collection(PostsCollection)
}

func (s *PostStore) ListPublished(ctx context.Context, limit, offset int) ([]models.BlogPost, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := s.collection().Find(ctx, bson.D{{Key: "is_published", Value: true}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]models.BlogPost, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].model())
	}
	return posts, nil
}

func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var doc postDocument
	if err := s.collection().FindOne(ctx, bson.D{{Key: "slug", Value: slug}}).Decode(&doc); err != nil {
		return nil, classify(err)
	}
	p := doc.model()
	return &p, nil
}

func (s *PostStore) Create(ctx context.Context, p *models.BlogPost) error {
	doc := postDocument{
		ID:          bson.NewObjectID(),
		Title:       p.Title,
		Slug:        p.Slug,
		Excerpt:     p.Excerpt,
		Content:     p.Content,
		CoverImage:  p.CoverImage,
		IsPublished: p.IsPublished,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
	if _, err := s.collection().InsertOne(ctx, doc); err != nil {
		return classify(err)
	}
	p.ID = doc.ID.Hex()
	return nil
}
