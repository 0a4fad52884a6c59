package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/mongo"
	"github.com/sepehr-data/mithra-pay/pkg/sqlite"
)

// storage is the set of repositories served by one backend.
type storage struct {
	products service.ProductRepository
	carts    service.CartRepository
	orders   service.OrderRepository
	users    service.UserRepository
	posts    service.PostRepository
	ping     func(ctx context.Context) error
	close    func(ctx context.Context) error
}

func openStorage(ctx context.Context, cfg global.Config, log *slog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case "mongo":
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureIndexes(ctx, log); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return &storage{
			products: mongo.NewProductStore(store),
			carts:    mongo.NewCartStore(store),
			orders:   mongo.NewOrderStore(store),
			users:    mongo.NewUserStore(store),
			posts:    mongo.NewPostStore(store),
			ping:     store.Ping,
			close:    store.Close,
		}, nil

	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storage{
			products: sqlite.NewProductStore(db),
			carts:    sqlite.NewCartStore(db),
			orders:   sqlite.NewOrderStore(db),
			users:    sqlite.NewUserStore(db),
			posts:    sqlite.NewPostStore(db),
			ping:     db.Ping,
			close:    func(context.Context) error { return db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
