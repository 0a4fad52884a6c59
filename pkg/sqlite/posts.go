package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sepehr-data/mithra-pay/pkg/models"
)

const postColumns = `id, title, slug, excerpt, content, cover_image, is_published, published_at, created_at, updated_at`

type PostStore struct {
	*DB
}

func NewPostStore(db *DB) *PostStore {
	return &PostStore{DB: db}
}

func (s *PostStore) ListPublished(ctx context.Context, limit, offset int) ([]models.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM blog_posts
		WHERE is_published = 1
		ORDER BY published_at DESC, id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []models.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PostStore) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE slug = ?`, slug))
}

func (s *PostStore) Create(ctx context.Context, p *models.BlogPost) error {
	id := uuid.NewString()
	var published sql.NullString
	if p.PublishedAt != nil {
		published = sql.NullString{String: formatTime(*p.PublishedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blog_posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Title, p.Slug, p.Excerpt, p.Content, p.CoverImage, p.IsPublished, published,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return classify(err)
	}
	p.ID = id
	return nil
}

func scanPost(row scanner) (*models.BlogPost, error) {
	var (
		p                    models.BlogPost
		published            sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.CoverImage,
		&p.IsPublished, &published, &createdAt, &updatedAt); err != nil {
		return nil, classify(err)
	}
	var err error
	if published.Valid {
		t, err := parseTime(published.String)
		if err != nil {
			return nil, err
		}
		p.PublishedAt = &t
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
