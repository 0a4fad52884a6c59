package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

type CartStore struct {
	*DB
}

func NewCartStore(db *DB) *CartStore {
	return &CartStore{DB: db}
}

func (s *CartStore) GetActiveByUser(ctx context.Context, userID string) (*models.Cart, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, version, created_at, updated_at
		FROM carts WHERE user_id = ? AND status = ?`, userID, models.CartStatusActive)
	cart, err := scanCart(row)
	if err != nil {
		return nil, err
	}
	if cart.Items, err = loadCartItems(ctx, s.db, cart.ID); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartStore) Create(ctx context.Context, cart *models.Cart) error {
	cart.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, status, version, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		cart.ID, cart.UserID, cart.Status, formatTime(cart.CreatedAt), formatTime(cart.UpdatedAt))
	if err != nil {
		cart.ID = ""
		return classify(err)
	}
	return nil
}

func (s *CartStore) FindCartIDByItem(ctx context.Context, itemID string) (string, error) {
	var cartID string
	err := s.db.QueryRowContext(ctx, `SELECT cart_id FROM cart_items WHERE id = ?`, itemID).Scan(&cartID)
	if err != nil {
		return "", classify(err)
	}
	return cartID, nil
}

// Update runs the read-modify-write inside one immediate transaction, which
// holds the database write lock for its whole duration.
func (s *CartStore) Update(ctx context.Context, cartID string, fn service.CartMutation) (*models.Cart, error) {
	var out *models.Cart
	err := s.execTx(ctx, func(q querier) error {
		row := q.QueryRowContext(ctx, `
			SELECT id, user_id, status, version, created_at, updated_at
			FROM carts WHERE id = ?`, cartID)
		cart, err := scanCart(row)
		if err != nil {
			return err
		}
		if cart.Items, err = loadCartItems(ctx, q, cart.ID); err != nil {
			return err
		}

		if err := fn(cart); err != nil {
			return err
		}

		cart.Version++
		cart.UpdatedAt = time.Now()
		if _, err := q.ExecContext(ctx, `
			UPDATE carts SET status = ?, version = ?, updated_at = ?
			WHERE id = ?`, cart.Status, cart.Version, formatTime(cart.UpdatedAt), cart.ID); err != nil {
			return fmt.Errorf("update cart: %w", err)
		}
		if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cart.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ID == "" {
				item.ID = uuid.NewString()
			}
			item.CartID = cart.ID
			if _, err := q.ExecContext(ctx, `
				INSERT INTO cart_items (id, cart_id, product_id, title_snapshot, unit_price, quantity, line_total, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.CartID, item.ProductID, item.TitleSnapshot,
				item.UnitPrice.Exact(), item.Quantity, item.LineTotal.Exact(), i); err != nil {
				return fmt.Errorf("write cart item: %w", classify(err))
			}
		}
		out = cart
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanCart(row scanner) (*models.Cart, error) {
	var (
		c                    models.Cart
		createdAt, updatedAt string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Status, &c.Version, &createdAt, &updatedAt); err != nil {
		return nil, classify(err)
	}
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadCartItems(ctx context.Context, q querier, cartID string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, cart_id, product_id, title_snapshot, unit_price, quantity, line_total
		FROM cart_items WHERE cart_id = ? ORDER BY position`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var (
			item            models.CartItem
			unit, lineTotal string
		)
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.TitleSnapshot,
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
