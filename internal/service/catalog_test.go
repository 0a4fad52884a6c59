package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/logger"
	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
	"github.com/sepehr-data/mithra-pay/pkg/redis"
)

func ptr[T any](v T) *T { return &v }

func TestCatalogService_CreateAndList(t *testing.T) {
	s := newStores(t)
	svc := service.NewCatalogService(s.products, nil, logger.Discard())
	ctx := context.Background()

	p, err := svc.Create(ctx, &models.CreateProductRequest{
		Title: "Steam Wallet 10",
		Slug:  " Steam-10 ",
		Price: money.MustParse("10.00"),
		Stock: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "steam-10", p.Slug)
	assert.Equal(t, models.DeliveryInstantCode, p.DeliveryType)

	_, err = svc.Create(ctx, &models.CreateProductRequest{Title: "Dup", Slug: "steam-10", Price: money.MustParse("1")})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = svc.Create(ctx, &models.CreateProductRequest{Title: "Neg", Slug: "neg", Price: money.MustParse("-1")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Create(ctx, &models.CreateProductRequest{Title: "Hidden", Slug: "hidden", Price: money.MustParse("1"), IsActive: ptr(false)})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListAll(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.GetBySlug(ctx, "hidden")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.GetBySlug(ctx, "STEAM-10")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestCatalogService_UpdateInvalidatesCache(t *testing.T) {
	s := newStores(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := redis.NewProductCache(client, s.products, time.Minute, logger.Discard())
	svc := service.NewCatalogService(s.products, cache, logger.Discard())
	ctx := context.Background()

	p := s.seedProduct(t, "psn-20", "20.00")
	_, err := cache.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("catalog:product:"+p.ID))

	updated, err := svc.Update(ctx, p.ID, &models.UpdateProductRequest{Price: ptr(money.MustParse("18.50"))})
	require.NoError(t, err)
	assert.Equal(t, "18.50", updated.Price.String())
	assert.False(t, mr.Exists("catalog:product:"+p.ID))

	fresh, err := cache.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "18.50", fresh.Price.String())

	_, err = svc.Update(ctx, "missing", &models.UpdateProductRequest{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalogService_UpdateFailsWhenCacheCannotInvalidate(t *testing.T) {
	s := newStores(t)
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cache := redis.NewProductCache(client, s.products, time.Minute, logger.Discard())
	svc := service.NewCatalogService(s.products, cache, logger.Discard())
	ctx := context.Background()

	p := s.seedProduct(t, "xbox-25", "25.00")
	_, err := cache.GetByID(ctx, p.ID)
	require.NoError(t, err)

	mr.SetError("LOADING redis is loading the dataset")
	_, err = svc.Update(ctx, p.ID, &models.UpdateProductRequest{IsActive: ptr(false)})
	require.Error(t, err)
	mr.SetError("")

	stored, err := s.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive, "failed update must not reach the repository")

	updated, err := svc.Update(ctx, p.ID, &models.UpdateProductRequest{IsActive: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.False(t, mr.Exists("catalog:product:"+p.ID))

	carts := service.NewCartService(s.carts, cache, logger.Discard())
	_, err = carts.AddItem(ctx, "user-1", p.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCatalogService_TopWeekly(t *testing.T) {
	s := newStores(t)
	svc := service.NewCatalogService(s.products, nil, logger.Discard())
	orders := newOrderService(s, s.products, service.StubGateway{}, nil)
	ctx := context.Background()

	a := s.seedProduct(t, "a", "1.00")
	b := s.seedProduct(t, "b", "1.00")
	_, err := orders.CreateOrder(ctx, "user-1", []models.OrderLine{
		{ProductID: a.ID, Quantity: 1},
		{ProductID: b.ID, Quantity: 4},
	})
	require.NoError(t, err)

	top, err := svc.TopWeekly(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, b.ID, top[0].ID)
}

func TestBlogService(t *testing.T) {
	s := newStores(t)
	svc := service.NewBlogService(s.posts)
	ctx := context.Background()

	post, err := svc.Create(ctx, &models.CreatePostRequest{Title: "Hello", Slug: "Hello-World", Content: "body", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", post.Slug)
	assert.NotNil(t, post.PublishedAt)

	_, err = svc.Create(ctx, &models.CreatePostRequest{Title: "Draft", Slug: "draft", Content: "body"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, &models.CreatePostRequest{Title: "Again", Slug: "hello-world", Content: "body"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	list, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.Get(ctx, "draft")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	got, err := svc.Get(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}
