package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	Get(ctx context.Context, id string) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) error
	Delete(ctx context.Context, id string) error
}

type SearchRequest struct {
	Limit     *int
	Page      *int
	Fields    []string
	UseInMenu *bool
}

type SearchResult struct {
	Data  []map[string]any `json:"data"`
	Total int64            `json:"total"`
	Limit int              `json:"limit"`
	Page  int              `json:"page"`
}

type CreateRequest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	UseInMenu *bool  `json:"use_in_menu"`
}

type UpdateRequest = CreateRequest

type Response struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	UseInMenu bool      `json:"use_in_menu"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidSlug      = errors.New("invalid_slug")
	ErrInvalidUseInMenu = errors.New("invalid_use_in_menu")
	ErrInvalidField     = errors.New("invalid_field")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
