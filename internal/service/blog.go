package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/apperr"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

type BlogService struct {
	posts PostRepository
	now   func() time.Time
}

func NewBlogService(posts PostRepository) *BlogService {
	return &BlogService{posts: posts, now: time.Now}
}

// List returns published posts, newest first.
func (s *BlogService) List(ctx context.Context, limit, offset int) ([]models.BlogPost, error) {
	if offset < 0 {
		offset = 0
	}
	posts, err := s.posts.ListPublished(ctx, models.ClampLimit(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// Get returns a published post.
func (s *BlogService) Get(ctx context.Context, slug string) (*models.BlogPost, error) {
	post, err := s.posts.GetBySlug(ctx, strings.TrimSpace(slug))
	if errors.Is(err, models.ErrNotFound) || (err == nil && !post.IsPublished) {
		return nil, apperr.NotFound("post not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (s *BlogService) Create(ctx context.Context, req *models.CreatePostRequest) (*models.BlogPost, error) {
	post := req.ToPost(s.now())
	post.Slug = strings.ToLower(strings.TrimSpace(post.Slug))
	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, apperr.Conflict("slug %q already exists", post.Slug)
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}
