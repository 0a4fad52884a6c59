package models

import (
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/money"
)

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
	OrderStatusFulfilled = "FULFILLED"
)

// Payment statuses
const (
	PaymentStatusUnpaid = "UNPAID"
	PaymentStatusPaid   = "PAID"
	PaymentStatusFailed = "FAILED"
)

// DefaultCurrency is used when an order does not name one.
const DefaultCurrency = "IRR"

// OrderItem is an immutable purchased line with its price snapshot
type OrderItem struct {
	ID            string       `json:"id"`
	OrderID       string       `json:"-"`
	ProductID     string       `json:"product_id"`
	TitleSnapshot string       `json:"title_snapshot"`
	UnitPrice     money.Amount `json:"unit_price"`
	Quantity      int          `json:"quantity"`
	LineTotal     money.Amount `json:"line_total"`
}

// Order represents a placed order. Items are fixed at creation.
type Order struct {
	ID            string       `json:"id"`
	OrderNumber   string       `json:"order_number"`
	UserID        string       `json:"user_id"`
	Status        string       `json:"status"`
	PaymentStatus string       `json:"payment_status"`
	TotalAmount   money.Amount `json:"total_amount"`
	Currency      string       `json:"currency"`
	Items         []OrderItem  `json:"items"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewOrder builds a pending, unpaid order with its total summed from items.
func NewOrder(userID, currency string, items []OrderItem, now time.Time) *Order {
	if currency == "" {
		currency = DefaultCurrency
	}
	o := &Order{
		UserID:        userID,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusUnpaid,
		Currency:      currency,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	o.CalculateTotals()
	return o
}

// CalculateTotals recomputes every line total and the order total.
func (o *Order) CalculateTotals() {
	total := money.Zero()
	for i := range o.Items {
		o.Items[i].LineTotal = o.Items[i].UnitPrice.MulQty(o.Items[i].Quantity)
		total = total.Add(o.Items[i].LineTotal)
	}
	o.TotalAmount = total
}

// GetItemCount returns the total number of units in the order
func (o *Order) GetItemCount() int {
	var count int
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

var orderTransitions = map[string][]string{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusFulfilled, OrderStatusCancelled},
}

// CanTransitionTo reports whether the status may move to next.
func (o *Order) CanTransitionTo(next string) bool {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled, OrderStatusFulfilled:
		return true
	}
	return false
}

// OrderItemView is the serialized order line
type OrderItemView struct {
	ProductID     string       `json:"product_id"`
	TitleSnapshot string       `json:"title_snapshot"`
	UnitPrice     money.Amount `json:"unit_price"`
	Quantity      int          `json:"quantity"`
	LineTotal     money.Amount `json:"line_total"`
}

// OrderView is the order projection handed to clients
type OrderView struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	UserID        string          `json:"user_id"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   money.Amount    `json:"total_amount"`
	Currency      string          `json:"currency"`
	CreatedAt     string          `json:"created_at"`
	Items         []OrderItemView `json:"items,omitempty"`
}

// View projects the order without its lines.
func (o *Order) View() OrderView {
	return OrderView{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// DetailView projects the order with its lines.
func (o *Order) DetailView() OrderView {
	v := o.View()
	v.Items = make([]OrderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		v.Items = append(v.Items, OrderItemView{
			ProductID:     item.ProductID,
			TitleSnapshot: item.TitleSnapshot,
			UnitPrice:     item.UnitPrice,
			Quantity:      item.Quantity,
			LineTotal:     item.LineTotal,
		})
	}
	return v
}

// OrderLine is one requested (product, quantity) pair
type OrderLine struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Items []OrderLine `json:"items" binding:"dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PAID CANCELLED FULFILLED"`
}
