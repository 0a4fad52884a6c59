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

const (
	topSellingWindow = 7 * 24 * time.Hour
	topSellingLimit  = 8
)

// CatalogService serves the storefront product listings and the admin
// product screens.
type CatalogService struct {
	products ProductRepository
	cache    CatalogCache
	log      *slog.Logger
	now      func() time.Time
}

func NewCatalogService(products ProductRepository, cache CatalogCache, log *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		cache:    cache,
		log:      log.With("component", "catalog"),
		now:      time.Now,
	}
}

// ListActive returns active products matching filter.
func (s *CatalogService) ListActive(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	filter.ActiveOnly = true
	return s.list(ctx, filter)
}

// ListAll includes inactive products, for admins.
func (s *CatalogService) ListAll(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	filter.ActiveOnly = false
	if filter.Limit <= 0 {
		filter.Limit = models.MaxPageSize
	}
	return s.list(ctx, filter)
}

func (s *CatalogService) list(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	products, err := s.products.List(ctx, filter.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetBySlug returns an active product.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.products.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if errors.Is(err, models.ErrNotFound) || (err == nil && !p.IsActive) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// TopWeekly ranks active products by units ordered over the last seven days.
func (s *CatalogService) TopWeekly(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 || limit > models.MaxPageSize {
		limit = topSellingLimit
	}
	products, err := s.products.TopSelling(ctx, s.now().Add(-topSellingWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("top selling products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	p := req.ToProduct()
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.SetTimestamps(s.now())

	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return nil, apperr.Conflict("slug %q already exists", p.Slug)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.log.InfoContext(ctx, "product created", "product_id", p.ID, "slug", p.Slug)
	return p, nil
}

// Update applies a partial update and drops the cached copy.
func (s *CatalogService) Update(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, apperr.NotFound("product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	req.Apply(p)
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	p.SetTimestamps(s.now())

	// A cache that cannot drop the entry aborts the update before the write.
	if err := s.invalidate(ctx, p.ID); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, apperr.NotFound("product not found")
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	// Drops any copy read back in between.
	if err := s.invalidate(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) invalidate(ctx context.Context, id string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.log.ErrorContext(ctx, "invalidate product cache", "product_id", id, "err", err)
		return fmt.Errorf("invalidate product %s: %w", id, err)
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if p.Price.IsNegative() {
		return apperr.Validation("price must not be negative")
	}
	if p.CompareAtPrice != nil && p.CompareAtPrice.IsNegative() {
		return apperr.Validation("compare_at_price must not be negative")
	}
	if p.Stock < 0 {
		return apperr.Validation("stock must not be negative")
	}
	if strings.TrimSpace(p.Title) == "" || p.Slug == "" {
		return apperr.Validation("title and slug are required")
	}
	return nil
}
