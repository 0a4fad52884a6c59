package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sepehr-data/mithra-pay/pkg/models"
	"github.com/sepehr-data/mithra-pay/pkg/money"
)

const productColumns = `id, title, slug, category, price, compare_at_price, delivery_type,
	platform, duration, region, stock, is_active, image_url, short_description,
	description, created_at, updated_at`

type ProductStore struct {
	*DB
}

func NewProductStore(db *DB) *ProductStore {
	return &ProductStore{DB: db}
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return scanProduct(row)
}

func (s *ProductStore) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE slug = ?`, slug)
	return scanProduct(row)
}

func (s *ProductStore) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		where = append(where, "(title LIKE ? OR slug LIKE ? OR platform LIKE ?)")
		args = append(args, like, like, like)
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

func (s *ProductStore) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Category, p.Price.Exact(), compareAt(p), p.DeliveryType,
		p.Platform, p.Duration, p.Region, p.Stock, p.IsActive, p.ImageURL, p.ShortDescription,
		p.Description, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	return classify(err)
}

func (s *ProductStore) Update(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET title = ?, category = ?, price = ?, compare_at_price = ?,
			delivery_type = ?, platform = ?, duration = ?, region = ?, stock = ?,
			is_active = ?, image_url = ?, short_description = ?, description = ?,
			updated_at = ?
		WHERE id = ?`,
		p.Title, p.Category, p.Price.Exact(), compareAt(p), p.DeliveryType, p.Platform,
		p.Duration, p.Region, p.Stock, p.IsActive, p.ImageURL, p.ShortDescription,
		p.Description, formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return classify(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *ProductStore) TopSelling(ctx context.Context, since time.Time, limit int) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products p
		JOIN (
			SELECT oi.product_id, SUM(oi.quantity) AS sold
			FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE o.created_at >= ? AND o.status <> ?
			GROUP BY oi.product_id
		) s ON s.product_id = p.id
		WHERE p.is_active = 1
		ORDER BY s.sold DESC, p.title
		LIMIT ?`,
		formatTime(since), models.OrderStatusCancelled, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling: %w", err)
	}
	return scanProducts(rows)
}

func compareAt(p *models.Product) sql.NullString {
	if p.CompareAtPrice == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: p.CompareAtPrice.Exact(), Valid: true}
}

func scanProducts(rows *sql.Rows) ([]models.Product, error) {
	defer rows.Close()
	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p                    models.Product
		price                string
		compare              sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Category, &price, &compare, &p.DeliveryType,
		&p.Platform, &p.Duration, &p.Region, &p.Stock, &p.IsActive, &p.ImageURL,
		&p.ShortDescription, &p.Description, &createdAt, &updatedAt)
	if err != nil {
		return nil, classify(err)
	}
	if p.Price, err = money.Parse(price); err != nil {
		return nil, err
	}
	if compare.Valid {
		c, err := money.Parse(compare.String)
		if err != nil {
			return nil, err
		}
		p.CompareAtPrice = &c
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
