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

// Order event names
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

const orderNumberAttempts = 3

type OrderSettings struct {
	Currency   string
	EventTopic string
}

// OrderService assembles orders from catalog prices and drives their status.
type OrderService struct {
	orders    OrderRepository
	catalog   ProductLookup
	payments  PaymentGateway
	events    EventPublisher
	settings  OrderSettings
	log       *slog.Logger
	now       func() time.Time
	newNumber func(time.Time) string
}

func NewOrderService(orders OrderRepository, catalog ProductLookup, payments PaymentGateway, events EventPublisher, settings OrderSettings, log *slog.Logger) *OrderService {
	if settings.Currency == "" {
		settings.Currency = models.DefaultCurrency
	}
	return &OrderService{
		orders:    orders,
		catalog:   catalog,
		payments:  payments,
		events:    events,
		settings:  settings,
		log:       log.With("component", "order"),
		now:       time.Now,
		newNumber: NewOrderNumber,
	}
}

// CreateOrder validates every line against the catalog, snapshots prices and
// persists the order with its items in one write. Nothing is stored when any
// line fails.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, lines []models.OrderLine) (*models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if len(lines) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}
	for i, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return nil, apperr.Validation("item %d: product_id is required", i)
		}
		if line.Quantity <= 0 {
			return nil, apperr.Validation("item %d: quantity must be positive", i)
		}
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("lookup product %s: %w", line.ProductID, err)
		}
		if err != nil || !product.Available() {
			return nil, apperr.NotFound("product %s not available", line.ProductID)
		}
		items = append(items, models.OrderItem{
			ProductID:     product.ID,
			TitleSnapshot: product.Title,
			UnitPrice:     product.Price,
			Quantity:      line.Quantity,
		})
	}

	order := models.NewOrder(userID, s.settings.Currency, items, s.now())

	var err error
	for attempt := 1; attempt <= orderNumberAttempts; attempt++ {
		order.OrderNumber = s.newNumber(order.CreatedAt)
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, models.ErrDuplicateKey) {
			break
		}
		s.log.WarnContext(ctx, "order number collision", "order_number", order.OrderNumber, "attempt", attempt)
	}
	if errors.Is(err, models.ErrDuplicateKey) {
		return nil, apperr.Conflict("could not allocate a unique order number").Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.TotalAmount.String(),
		"items", len(order.Items),
	)
	s.publish(ctx, EventOrderCreated, order)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	return s.found(order, err)
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	order, err := s.orders.GetByNumber(ctx, number)
	return s.found(order, err)
}

// ListUserOrders returns the user's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Validation("user_id is required")
	}
	if offset < 0 {
		offset = 0
	}
	orders, err := s.orders.ListByUser(ctx, userID, models.ClampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*models.Order, error) {
	if !models.ValidOrderStatus(status) {
		return nil, apperr.Validation("unknown order status %q", status)
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if !order.CanTransitionTo(status) {
		return nil, apperr.Conflict("cannot move order from %s to %s", order.Status, status)
	}

	paymentStatus := order.PaymentStatus
	if status == models.OrderStatusPaid {
		paymentStatus = models.PaymentStatusPaid
	}
	return s.setStatus(ctx, order, status, paymentStatus)
}

// Pay charges a pending order owned by userID through the payment gateway.
func (s *OrderService) Pay(ctx context.Context, userID, orderID string) (*models.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperr.NotFound("order not found")
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		return nil, apperr.Conflict("order is already paid")
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Conflict("order is %s and cannot be paid", order.Status)
	}

	ref, chargeErr := s.payments.Charge(ctx, order)
	if chargeErr != nil {
		s.log.WarnContext(ctx, "payment failed", "order_id", order.ID, "err", chargeErr)
		if _, err := s.setStatus(ctx, order, order.Status, models.PaymentStatusFailed); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("payment failed").WithCode("payment_failed").Wrap(chargeErr)
	}

	s.log.InfoContext(ctx, "payment captured", "order_id", order.ID, "reference", ref)
	return s.setStatus(ctx, order, models.OrderStatusPaid, models.PaymentStatusPaid)
}

func (s *OrderService) setStatus(ctx context.Context, order *models.Order, status, paymentStatus string) (*models.Order, error) {
	updated, err := s.orders.UpdateStatus(ctx, order.ID, order.Status, status, paymentStatus)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if errors.Is(err, models.ErrConflict) {
		return nil, apperr.Conflict("order %s was changed by another request", order.ID).Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if updated.Status != order.Status {
		s.publish(ctx, EventOrderStatusChanged, updated)
	}
	return updated, nil
}

func (s *OrderService) found(order *models.Order, err error) (*models.Order, error) {
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

type orderEvent struct {
	Type  string           `json:"type"`
	Order models.OrderView `json:"order"`
}

// publish never fails the caller; the order is already committed.
func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if s.events == nil {
		return
	}
	evt := orderEvent{Type: eventType, Order: order.DetailView()}
	if err := s.events.Publish(ctx, s.settings.EventTopic, order.OrderNumber, evt); err != nil {
		s.log.ErrorContext(ctx, "publish order event", "type", eventType, "order_id", order.ID, "err", err)
	}
}
