package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
	"github.com/sepehr-data/mithra-pay/pkg/sqlite"
)

type stores struct {
	db       *sqlite.DB
	products *sqlite.ProductStore
	carts    *sqlite.CartStore
	orders   *sqlite.OrderStore
	users    *sqlite.UserStore
	posts    *sqlite.PostStore
}

func newStores(t *testing.T) *stores {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &stores{
		db:       db,
		products: sqlite.NewProductStore(db),
		carts:    sqlite.NewCartStore(db),
		orders:   sqlite.NewOrderStore(db),
		users:    sqlite.NewUserStore(db),
		posts:    sqlite.NewPostStore(db),
	}
}

func (s *stores) seedProduct(t *testing.T, slug, price string) *models.Product {
	t.Helper()
	now := time.Now()
	p := &models.Product{
		Title:        "Product " + slug,
		Slug:         slug,
		Price:        money.MustParse(price),
		DeliveryType: models.DeliveryInstantCode,
		Stock:        10,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.products.Create(context.Background(), p))
	return p
}

// countingLookup records catalog lookups.
type countingLookup struct {
	inner service.ProductLookup
	calls atomic.Int32
}

func (c *countingLookup) GetByID(ctx context.Context, id string) (*models.Product, error) {
	c.calls.Add(1)
	return c.inner.GetByID(ctx, id)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	keys   []string
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, topic, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	r.keys = append(r.keys, key)
	return r.err
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
