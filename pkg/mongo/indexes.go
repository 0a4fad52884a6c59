package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	// Products
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_product_slug_unique"),
		},
	},
	{
		CollectionName: ProductsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "is_active", Value: 1},
			},
			Options: options.Index().SetName("idx_category_active"),
		},
	},

	// Carts: one ACTIVE cart per user
	{
		CollectionName: CartsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("idx_cart_active_user_unique").
				SetPartialFilterExpression(bson.D{{Key: "status", Value: "ACTIVE"}}),
		},
	},
	{
		CollectionName: CartsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "items.id", Value: 1}},
			Options: options.Index().SetName("idx_cart_item_id"),
		},
	},

	// Orders
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_order_number_unique"),
		},
	},
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_orders"),
		},
	},
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "created_at", Value: -1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().SetName("idx_orders_recent"),
		},
	},

	// Users
	{
		CollectionName: UsersCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_phone_unique"),
		},
	},
	{
		CollectionName: UsersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("idx_user_email_unique").
				SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	},

	// Blog posts
	{
		CollectionName: PostsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_post_slug_unique"),
		},
	},
	{
		CollectionName: PostsCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "is_published", Value: 1},
				{Key: "published_at", Value: -1},
			},
			Options: options.Index().SetName("idx_post_published"),
		},
	},
}

// EnsureIndexes creates every required index. Existing identical indexes are
// left as they are.
func (s *Store) EnsureIndexes(ctx context.Context, log *slog.Logger) error {
	for _, idxConfig := range requiredIndexes {
		indexName, err := s.Collection(idxConfig.CollectionName).Indexes().CreateOne(ctx, idxConfig.IndexModel)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", idxConfig.CollectionName, err)
		}
		log.DebugContext(ctx, "index ready", "collection", idxConfig.CollectionName, "index", indexName)
	}
	log.InfoContext(ctx, "mongo indexes ensured", "count", len(requiredIndexes))
	return nil
}
