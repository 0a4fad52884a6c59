package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// CartService manages each user's active cart.
type CartService struct {
	carts   CartRepository
	catalog ProductLookup
	log     *slog.Logger
	now     func() time.Time
}

func NewCartService(carts CartRepository, catalog ProductLookup, log *slog.Logger) *CartService {
	return &CartService{
		carts:   carts,
		catalog: catalog,
		log:     log.With("component", "cart"),
		now:     time.Now,
	}
}

// GetOrCreate returns the user's active cart, creating an empty one on first
// use.
func (s *CartService) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	cart, err := s.carts.GetActiveByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	cart = models.NewCart(userID, s.now())
	if err := s.carts.Create(ctx, cart); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			// another request created it first
			return s.carts.GetActiveByUser(ctx, userID)
		}
		return nil, fmt.Errorf("create cart: %w", err)
	}
	s.log.DebugContext(ctx, "cart created", "cart_id", cart.ID, "user_id", userID)
	return cart, nil
}

// GetCart returns the user's active cart, or nil when there is none.
func (s *CartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("user_id is required")
	}
	cart, err := s.carts.GetActiveByUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem puts quantity units of a product in the user's cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	if strings.TrimSpace(productID) == "" {
		return nil, apperr.Validation("product_id is required")
	}

	product, err := s.lookupAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.carts.Update(ctx, cart.ID, func(c *models.Cart) error {
		c.AddProduct(product, quantity)
		return nil
	})
	if err != nil {
		return nil, s.mutationError(err)
	}
	return updated, nil
}

// UpdateItem sets the quantity of an existing cart line.
func (s *CartService) UpdateItem(ctx context.Context, itemID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperr.Validation("quantity must be positive")
	}
	return s.mutateItem(ctx, itemID, func(c *models.Cart) error {
		return c.SetQuantity(itemID, quantity)
	})
}

// RemoveItem deletes a cart line.
func (s *CartService) RemoveItem(ctx context.Context, itemID string) (*models.Cart, error) {
	return s.mutateItem(ctx, itemID, func(c *models.Cart) error {
		return c.RemoveItem(itemID)
	})
}

// Clear empties the user's cart. Users without a cart are left alone.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	cart, err := s.GetCart(ctx, userID)
	if err != nil || cart == nil {
		return err
	}
	if _, err := s.carts.Update(ctx, cart.ID, func(c *models.Cart) error {
		c.Clear()
		return nil
	}); err != nil {
		return s.mutationError(err)
	}
	return nil
}

func (s *CartService) mutateItem(ctx context.Context, itemID string, fn CartMutation) (*models.Cart, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, apperr.Validation("item_id is required")
	}
	cartID, err := s.carts.FindCartIDByItem(ctx, itemID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("cart item not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find cart item: %w", err)
	}

	updated, err := s.carts.Update(ctx, cartID, fn)
	if err != nil {
		return nil, s.mutationError(err)
	}
	return updated, nil
}

func (s *CartService) lookupAvailable(ctx context.Context, productID string) (*models.Product, error) {
	product, err := s.catalog.GetByID(ctx, productID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("product not available")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup product: %w", err)
	}
	if !product.Available() {
		return nil, apperr.NotFound("product not available")
	}
	return product, nil
}

func (s *CartService) mutationError(err error) error {
	switch {
	case errors.Is(err, models.ErrItemNotFound), errors.Is(err, models.ErrNotFound):
		return apperr.NotFound("cart item not found")
	case errors.Is(err, models.ErrConflict):
		return apperr.Conflict("cart was modified concurrently, please retry").Wrap(err)
	default:
		return fmt.Errorf("update cart: %w", err)
	}
}
