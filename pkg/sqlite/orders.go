package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

const orderColumns = `id, order_number, user_id, status, payment_status, total_amount, currency, created_at, updated_at`

type OrderStore struct {
	*DB
}

func NewOrderStore(db *DB) *OrderStore {
	return &OrderStore{DB: db}
}

// Create inserts the order header and every item in one transaction.
func (s *OrderStore) Create(ctx context.Context, o *models.Order) error {
	orderID := uuid.NewString()
	err := s.execTx(ctx, func(q querier) error {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			orderID, o.OrderNumber, o.UserID, o.Status, o.PaymentStatus,
			o.TotalAmount.Exact(), o.Currency, formatTime(o.CreatedAt), formatTime(o.UpdatedAt)); err != nil {
			return classify(err)
		}
		for i, item := range o.Items {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, title_snapshot, unit_price, quantity, line_total, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), orderID, item.ProductID, item.TitleSnapshot,
				item.UnitPrice.Exact(), item.Quantity, item.LineTotal.Exact(), i); err != nil {
				return fmt.Errorf("insert order item %d: %w", i, classify(err))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	o.ID = orderID
	items, err := loadOrderItems(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	o.Items = items
	return nil
}

func (s *OrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (s *OrderStore) GetByNumber(ctx context.Context, number string) (*models.Order, error) {
	return s.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = ?`, number)
}

func (s *OrderStore) getOne(ctx context.Context, query string, arg string) (*models.Order, error) {
	o, err := scanOrder(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if o.Items, err = loadOrderItems(ctx, s.db, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns order headers without items.
func (s *OrderStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (s *OrderStore) UpdateStatus(ctx context.Context, id, fromStatus, status, paymentStatus string) (*models.Order, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, payment_status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		status, paymentStatus, formatTime(time.Now()), id, fromStatus)
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("order %s left %s: %w", id, fromStatus, models.ErrConflict)
	}
	return s.GetByID(ctx, id)
}

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o                    models.Order
		total                string
		createdAt, updatedAt string
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus,
		&total, &o.Currency, &createdAt, &updatedAt); err != nil {
		return nil, classify(err)
	}
	var err error
	if o.TotalAmount, err = money.Parse(total); err != nil {
		return nil, err
	}
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func loadOrderItems(ctx context.Context, q querier, orderID string) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, title_snapshot, unit_price, quantity, line_total
		FROM order_items WHERE order_id = ? ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var (
			item            models.OrderItem
			unit, lineTotal string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.TitleSnapshot,
			&unit, &item.Quantity, &lineTotal); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = money.Parse(unit); err != nil {
			return nil, err
		}
		if item.LineTotal, err = money.Parse(lineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
