package models

import (
	"strings"
	"time"

	"github.com/sepehr-data/mithra-pay/pkg/money"
)

// Delivery types for digital goods
const (
	DeliveryInstantCode      = "INSTANT_CODE"
	DeliveryManualActivation = "MANUAL_ACTIVATION"
	DeliverySharedAccount    = "SHARED_ACCOUNT"
)

// Product represents a digital good in the catalog
type Product struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Slug             string        `json:"slug"`
	Category         string        `json:"category,omitempty"`
	Price            money.Amount  `json:"price"`
	CompareAtPrice   *money.Amount `json:"compare_at_price,omitempty"`
	DeliveryType     string        `json:"delivery_type"`
	Platform         string        `json:"platform,omitempty"`
	Duration         string        `json:"duration,omitempty"`
	Region           string        `json:"region,omitempty"`
	Stock            int           `json:"stock"`
	IsActive         bool          `json:"is_active"`
	ImageURL         string        `json:"image_url,omitempty"`
	ShortDescription string        `json:"short_description,omitempty"`
	Description      string        `json:"description,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Available reports whether the product can be put in a cart or order.
func (p *Product) Available() bool {
	return p != nil && p.IsActive && !p.Price.IsNegative()
}

// SetTimestamps sets created_at and updated_at timestamps
func (p *Product) SetTimestamps(now time.Time) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Normalize clamps paging to sane bounds.
func (f ProductFilter) Normalize() ProductFilter {
	f.Limit = ClampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// CreateProductRequest is the admin payload for a new product
type CreateProductRequest struct {
	Title            string        `json:"title" binding:"required,min=2,max=200"`
	Slug             string        `json:"slug" binding:"required,min=2,max=200"`
	Category         string        `json:"category" binding:"max=100"`
	Price            money.Amount  `json:"price"`
	CompareAtPrice   *money.Amount `json:"compare_at_price"`
	DeliveryType     string        `json:"delivery_type" binding:"omitempty,oneof=INSTANT_CODE MANUAL_ACTIVATION SHARED_ACCOUNT"`
	Platform         string        `json:"platform" binding:"max=100"`
	Duration         string        `json:"duration" binding:"max=100"`
	Region           string        `json:"region" binding:"max=100"`
	Stock            int           `json:"stock" binding:"gte=0"`
	IsActive         *bool         `json:"is_active"`
	ImageURL         string        `json:"image_url" binding:"omitempty,url"`
	ShortDescription string        `json:"short_description" binding:"max=500"`
	Description      string        `json:"description"`
}

// ToProduct builds a product from the request, defaulting delivery type and
// active flag.
func (req *CreateProductRequest) ToProduct() *Product {
	p := &Product{
		Title:            strings.TrimSpace(req.Title),
		Slug:             strings.ToLower(strings.TrimSpace(req.Slug)),
		Category:         req.Category,
		Price:            req.Price,
		CompareAtPrice:   req.CompareAtPrice,
		DeliveryType:     req.DeliveryType,
		Platform:         req.Platform,
		Duration:         req.Duration,
		Region:           req.Region,
		Stock:            req.Stock,
		IsActive:         true,
		ImageURL:         req.ImageURL,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
	}
	if p.DeliveryType == "" {
		p.DeliveryType = DeliveryInstantCode
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	return p
}

// UpdateProductRequest carries a partial update; nil fields are left alone.
type UpdateProductRequest struct {
	Title            *string       `json:"title" binding:"omitempty,min=2,max=200"`
	Category         *string       `json:"category"`
	Price            *money.Amount `json:"price"`
	CompareAtPrice   *money.Amount `json:"compare_at_price"`
	DeliveryType     *string       `json:"delivery_type" binding:"omitempty,oneof=INSTANT_CODE MANUAL_ACTIVATION SHARED_ACCOUNT"`
	Platform         *string       `json:"platform"`
	Duration         *string       `json:"duration"`
	Region           *string       `json:"region"`
	Stock            *int          `json:"stock" binding:"omitempty,gte=0"`
	IsActive         *bool         `json:"is_active"`
	ImageURL         *string       `json:"image_url"`
	ShortDescription *string       `json:"short_description"`
	Description      *string       `json:"description"`
}

// Apply copies the set fields onto p.
func (req *UpdateProductRequest) Apply(p *Product) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&p.Title, req.Title)
	setString(&p.Category, req.Category)
	setString(&p.DeliveryType, req.DeliveryType)
	setString(&p.Platform, req.Platform)
	setString(&p.Duration, req.Duration)
	setString(&p.Region, req.Region)
	setString(&p.ImageURL, req.ImageURL)
	setString(&p.ShortDescription, req.ShortDescription)
	setString(&p.Description, req.Description)
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.CompareAtPrice != nil {
		p.CompareAtPrice = req.CompareAtPrice
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}
