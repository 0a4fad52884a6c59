package models

import (
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/money"
)

// Cart statuses
const (
	CartStatusActive     = "ACTIVE"
	CartStatusCheckedOut = "CHECKED_OUT"
	CartStatusAbandoned  = "ABANDONED"
)

// CartItem is one product line in a cart. UnitPrice is the catalog price
// captured when the product was first added.
type CartItem struct {
	ID            string       `json:"id"`
	CartID        string       `json:"-"`
	ProductID     string       `json:"product_id"`
	TitleSnapshot string       `json:"title_snapshot"`
	UnitPrice     money.Amount `json:"unit_price"`
	Quantity      int          `json:"quantity"`
	LineTotal     money.Amount `json:"line_total"`
}

// Recalculate derives the line total from the snapshot price.
func (i *CartItem) Recalculate() {
	i.LineTotal = i.UnitPrice.MulQty(i.Quantity)
}

// Cart is the mutable basket owned by one user
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Status    string     `json:"status"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty active cart for userID.
func NewCart(userID string, now time.Time) *Cart {
	return &Cart{
		UserID:    userID,
		Status:    CartStatusActive,
		Items:     []CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddProduct adds qty of p. An existing line for the same product keeps its
// snapshot price and only grows in quantity. New lines have an empty ID until
// the store assigns one.
func (c *Cart) AddProduct(p *Product, qty int) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += qty
			c.Items[i].Recalculate()
			return &c.Items[i]
		}
	}
	c.Items = append(c.Items, CartItem{
		CartID:        c.ID,
		ProductID:     p.ID,
		TitleSnapshot: p.Title,
		UnitPrice:     p.Price,
		Quantity:      qty,
	})
	item := &c.Items[len(c.Items)-1]
	item.Recalculate()
	return item
}

// SetQuantity replaces the quantity of the line itemID.
func (c *Cart) SetQuantity(itemID string, qty int) error {
	item := c.Item(itemID)
	if item == nil {
		return ErrItemNotFound
	}
	item.Quantity = qty
	item.Recalculate()
	return nil
}

// RemoveItem deletes the line itemID.
func (c *Cart) RemoveItem(itemID string) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear drops every line; the cart itself and its status stay.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
}

func (c *Cart) Item(itemID string) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Total sums the line totals.
func (c *Cart) Total() money.Amount {
	total := money.Zero()
	for _, item := range c.Items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// CartItemView is the serialized form of a cart line
type CartItemView struct {
	ID            string       `json:"id"`
	ProductID     string       `json:"product_id"`
	TitleSnapshot string       `json:"title_snapshot"`
	UnitPrice     money.Amount `json:"unit_price"`
	Quantity      int          `json:"quantity"`
	LineTotal     money.Amount `json:"line_total"`
}

// CartView is the projection returned by every cart operation
type CartView struct {
	CartID      *string        `json:"cart_id"`
	UserID      *string        `json:"user_id"`
	Status      string         `json:"status,omitempty"`
	Items       []CartItemView `json:"items"`
	TotalAmount money.Amount   `json:"total_amount"`
}

// View projects the cart. A nil cart renders as an empty projection.
func (c *Cart) View() CartView {
	if c == nil {
		return CartView{Items: []CartItemView{}, TotalAmount: money.Zero()}
	}
	items := make([]CartItemView, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, CartItemView{
			ID:            item.ID,
			ProductID:     item.ProductID,
			TitleSnapshot: item.TitleSnapshot,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.LineTotal,
		})
	}
	id, userID := c.ID, c.UserID
	return CartView{
		CartID:      &id,
		UserID:      &userID,
		Status:      c.Status,
		Items:       items,
		TotalAmount: c.Total(),
	}
}

type AddCartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

// Qty returns the requested quantity, one when the field was omitted.
func (r *AddCartItemRequest) Qty() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
