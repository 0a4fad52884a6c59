package models

import "time"

// BlogPost is an article on the storefront blog
type BlogPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Content     string     `json:"content"`
	CoverImage  string     `json:"cover_image,omitempty"`
	IsPublished bool       `json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Slug        string `json:"slug" binding:"required,min=2,max=200"`
	Excerpt     string `json:"excerpt" binding:"max=500"`
	Content     string `json:"content" binding:"required"`
	CoverImage  string `json:"cover_image" binding:"omitempty,url"`
	IsPublished bool   `json:"is_published"`
}

// ToPost builds a post, stamping published_at when it goes live immediately.
func (req *CreatePostRequest) ToPost(now time.Time) *BlogPost {
	p := &BlogPost{
		Title:       req.Title,
		Slug:        req.Slug,
		Excerpt:     req.Excerpt,
		Content:     req.Content,
		CoverImage:  req.CoverImage,
		IsPublished: req.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.IsPublished {
		p.PublishedAt = &now
	}
	return p
}
