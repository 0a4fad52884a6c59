package mongo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/sync/errgroup"

	"github.com/sepehr-data/mithra-pay/pkg/logger"
	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	store, err := Connect(ctx, uri, "mithrapay_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(ctx) })

	require.NoError(t, store.EnsureIndexes(ctx, logger.Discard()))
	return store
}

func newTestProduct(slug, price string) *models.Product {
	now := time.Now().UTC()
	return &models.Product{
		Title:        "Product " + slug,
		Slug:         slug,
		Category:     "gift-cards",
		Price:        money.MustParse(price),
		DeliveryType: models.DeliveryInstantCode,
		Stock:        100,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMongoStore(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	products := NewProductStore(store)
	carts := NewCartStore(store)
	orders := NewOrderStore(store)
	users := NewUserStore(store)
	posts := NewPostStore(store)

	t.Run("product round trip keeps exact price", func(t *testing.T) {
		p := newTestProduct("steam-50", "12.345")
		require.NoError(t, products.Create(ctx, p))
		require.NotEmpty(t, p.ID)

		got, err := products.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.True(t, got.Price.Equal(money.MustParse("12.345")))

		bySlug, err := products.GetBySlug(ctx, "steam-50")
		require.NoError(t, err)
		assert.Equal(t, p.ID, bySlug.ID)

		err = products.Create(ctx, newTestProduct("steam-50", "1.00"))
		assert.ErrorIs(t, err, models.ErrDuplicateKey)

		_, err = products.GetByID(ctx, "not-an-object-id")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("product search is case insensitive", func(t *testing.T) {
		p := newTestProduct("PSN-Card", "20.00")
		require.NoError(t, products.Create(ctx, p))

		list, err := products.List(ctx, models.ProductFilter{Search: "psn", ActiveOnly: true, Limit: 10})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, p.ID, list[0].ID)
	})

	t.Run("one active cart per user", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, carts.Create(ctx, models.NewCart("user-cart", now)))
		err := carts.Create(ctx, models.NewCart("user-cart", now))
		assert.ErrorIs(t, err, models.ErrDuplicateKey)
	})

	t.Run("concurrent cart updates are not lost", func(t *testing.T) {
		p := newTestProduct("concurrent-item", "5.00")
		require.NoError(t, products.Create(ctx, p))

		cart := models.NewCart("user-concurrent", time.Now())
		require.NoError(t, carts.Create(ctx, cart))

		var g errgroup.Group
		for i := 0; i < 10; i++ {
			g.Go(func() error {
				_, err := carts.Update(ctx, cart.ID, func(c *models.Cart) error {
					c.AddProduct(p, 1)
					return nil
				})
				return err
			})
		}
		require.NoError(t, g.Wait())

		got, err := carts.GetActiveByUser(ctx, "user-concurrent")
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, 10, got.Items[0].Quantity)
		assert.True(t, got.Total().Equal(money.MustParse("50.00")))

		cartID, err := carts.FindCartIDByItem(ctx, got.Items[0].ID)
		require.NoError(t, err)
		assert.Equal(t, cart.ID, cartID)
	})

	t.Run("order is written with its items", func(t *testing.T) {
		a := newTestProduct("order-a", "10.00")
		b := newTestProduct("order-b", "2.50")
		require.NoError(t, products.Create(ctx, a))
		require.NoError(t, products.Create(ctx, b))

		items := []models.OrderItem{
			{ProductID: a.ID, TitleSnapshot: a.Title, UnitPrice: a.Price, Quantity: 2},
			{ProductID: b.ID, TitleSnapshot: b.Title, UnitPrice: b.Price, Quantity: 2},
		}
		order := models.NewOrder("user-order", models.DefaultCurrency, items, time.Now())
		order.OrderNumber = "20260101-000000000001"
		require.NoError(t, orders.Create(ctx, order))

		got, err := orders.GetByNumber(ctx, order.OrderNumber)
		require.NoError(t, err)
		assert.True(t, got.TotalAmount.Equal(money.MustParse("25.00")))
		assert.Len(t, got.Items, 2)

		dup := models.NewOrder("user-order", models.DefaultCurrency, items, time.Now())
		dup.OrderNumber = order.OrderNumber
		assert.ErrorIs(t, orders.Create(ctx, dup), models.ErrDuplicateKey)

		updated, err := orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid, models.PaymentStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusPaid, updated.Status)

		_, err = orders.UpdateStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled, models.PaymentStatusPaid)
		assert.ErrorIs(t, err, models.ErrConflict)
		_, err = orders.UpdateStatus(ctx, bson.NewObjectID().Hex(), models.OrderStatusPending, models.OrderStatusPaid, models.PaymentStatusPaid)
		assert.ErrorIs(t, err, models.ErrNotFound)

		list, err := orders.ListByUser(ctx, "user-order", 10, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		top, err := products.TopSelling(ctx, time.Now().Add(-time.Hour), 5)
		require.NoError(t, err)
		require.Len(t, top, 2)
	})

	t.Run("users and roles", func(t *testing.T) {
		now := time.Now()
		for i := 0; i < 2; i++ {
			u := &models.User{Phone: fmt.Sprintf("0912000000%d", i), IsActive: true, Roles: []string{models.RoleCustomer}, CreatedAt: now, UpdatedAt: now}
			require.NoError(t, users.Create(ctx, u))
		}
		u, err := users.GetByPhone(ctx, "09120000000")
		require.NoError(t, err)
		require.NoError(t, users.AddRole(ctx, u.ID, models.RoleAdmin))
		require.NoError(t, users.AddRole(ctx, u.ID, models.RoleAdmin))

		got, err := users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{models.RoleCustomer, models.RoleAdmin}, got.Roles)

		dup := &models.User{Phone: "09120000000", CreatedAt: now, UpdatedAt: now}
		assert.ErrorIs(t, users.Create(ctx, dup), models.ErrDuplicateKey)
	})

	t.Run("published posts only", func(t *testing.T) {
		now := time.Now()
		live := (&models.CreatePostRequest{Title: "Live", Slug: "live", Content: "x", IsPublished: true}).ToPost(now)
		draft := (&models.CreatePostRequest{Title: "Draft", Slug: "draft", Content: "x"}).ToPost(now)
		require.NoError(t, posts.Create(ctx, live))
		require.NoError(t, posts.Create(ctx, draft))

		list, err := posts.ListPublished(ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "live", list[0].Slug)
	})
}
