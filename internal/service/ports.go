package service

import (
	"context"
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

// ProductLookup is the read side of the catalog consulted by carts and
// orders. Implementations return models.ErrNotFound for unknown ids.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

type ProductRepository interface {
	ProductLookup
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	// TopSelling ranks products by units sold in orders created since the
	// given time.
	TopSelling(ctx context.Context, since time.Time, limit int) ([]models.Product, error)
}

// CartMutation edits a loaded cart inside the store's write boundary.
type CartMutation func(cart *models.Cart) error

type CartRepository interface {
	GetActiveByUser(ctx context.Context, userID string) (*models.Cart, error)
	// Create returns models.ErrDuplicateKey if the user already has an
	// active cart.
	Create(ctx context.Context, cart *models.Cart) error
	FindCartIDByItem(ctx context.Context, itemID string) (string, error)
	// Update loads the cart, applies fn and persists the result so that
	// concurrent mutations of one cart never overwrite each other.
	Update(ctx context.Context, cartID string, fn CartMutation) (*models.Cart, error)
}

type OrderRepository interface {
	// Create writes the order and all of its items atomically. A clashing
	// order number yields models.ErrDuplicateKey and nothing is written.
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	GetByNumber(ctx context.Context, number string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error)
	// UpdateStatus writes only while the order is still in fromStatus;
	// otherwise it returns models.ErrConflict.
	UpdateStatus(ctx context.Context, id, fromStatus, status, paymentStatus string) (*models.Order, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
	AddRole(ctx context.Context, userID, role string) error
}

type PostRepository interface {
	ListPublished(ctx context.Context, limit, offset int) ([]models.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	Create(ctx context.Context, p *models.BlogPost) error
}

// CatalogCache is the cache the catalog keeps coherent after writes.
type CatalogCache interface {
	Invalidate(ctx context.Context, productID string) error
}

// OTPStore keeps one pending code per phone.
type OTPStore interface {
	Save(ctx context.Context, phone, code string) error
	// Verify consumes the code on a match. It returns false for a wrong or
	// expired code.
	Verify(ctx context.Context, phone, code string) (bool, error)
}

// SMSSender delivers one-time codes.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, code string) error
}

// EventPublisher emits domain events after they are committed.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// PaymentGateway charges an order.
type PaymentGateway interface {
	Charge(ctx context.Context, order *models.Order) (reference string, err error)
}
