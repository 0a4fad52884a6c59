package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/logger"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

func newCartService(t *testing.T) (*service.CartService, *stores) {
	s := newStores(t)
	return service.NewCartService(s.carts, s.products, logger.Discard()), s
}

func TestCartService_AddItemCreatesCart(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()
	p := s.seedProduct(t, "steam-10", "10.00")

	cart, err := svc.AddItem(ctx, "user-1", p.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "20.00", cart.Total().String())
	assert.NotEmpty(t, cart.Items[0].ID)
}

func TestCartService_RepeatedAddKeepsSnapshotPrice(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()
	p := s.seedProduct(t, "gift-5", "5.00")

	_, err := svc.AddItem(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)

	p.Price = money.MustParse("7.00")
	require.NoError(t, s.products.Update(ctx, p))

	cart, err := svc.AddItem(ctx, "user-1", p.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "5.00", cart.Items[0].UnitPrice.String())
	assert.Equal(t, "10.00", cart.Items[0].LineTotal.String())
}

func TestCartService_AddItemValidation(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()
	p := s.seedProduct(t, "valid", "1.00")

	_, err := svc.AddItem(ctx, "", p.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.AddItem(ctx, "user-1", p.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.AddItem(ctx, "user-1", "missing", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	inactive := s.seedProduct(t, "inactive", "1.00")
	inactive.IsActive = false
	require.NoError(t, s.products.Update(ctx, inactive))
	_, err = svc.AddItem(ctx, "user-1", inactive.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCartService_UpdateAndRemoveItem(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()
	a := s.seedProduct(t, "a", "3.00")
	b := s.seedProduct(t, "b", "4.00")

	_, err := svc.AddItem(ctx, "user-1", a.ID, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "user-1", b.ID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	itemA := cart.Items[0].ID

	cart, err = svc.UpdateItem(ctx, itemA, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Item(itemA).Quantity)
	assert.Equal(t, "19.00", cart.Total().String())

	_, err = svc.UpdateItem(ctx, itemA, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.UpdateItem(ctx, "no-such-item", 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	cart, err = svc.RemoveItem(ctx, itemA)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	_, err = svc.RemoveItem(ctx, itemA)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCartService_GetCartWithoutCart(t *testing.T) {
	svc, _ := newCartService(t)

	cart, err := svc.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, cart)

	view := cart.View()
	assert.Nil(t, view.CartID)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.TotalAmount.String())
}

func TestCartService_ClearEmptiesCart(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()
	p := s.seedProduct(t, "clear-me", "2.00")

	_, err := svc.AddItem(ctx, "user-1", p.ID, 3)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, "user-1"))

	cart, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.NoError(t, svc.Clear(ctx, "user-without-cart"))
}

func TestCartService_ConcurrentAddsAreNotLost(t *testing.T) {
	svc, s := newCartService(t)
	ctx := context.Background()
	p := s.seedProduct(t, "busy", "1.00")

	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := svc.AddItem(ctx, "user-1", p.ID, 1)
			return err
		})
	}
	require.NoError(t, g.Wait())

	cart, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 25, cart.Items[0].Quantity)
}

func TestCartService_ConcurrentFirstUseCreatesOneCart(t *testing.T) {
	svc, _ := newCartService(t)
	ctx := context.Background()

	ids := make([]string, 10)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			cart, err := svc.GetOrCreate(ctx, "user-1")
			if err != nil {
				return err
			}
			ids[i] = cart.ID
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}
