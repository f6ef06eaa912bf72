package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResponse, error)
	Update(ctx context.Context, id string, req UpdateRequest) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Response, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	GetImage(ctx context.Context, slug string, imageID string) (*ImageContent, error)
}

type CreateRequest struct {
	Enabled           *bool           `json:"enabled"`
	Name              string          `json:"name"`
	Slug              string          `json:"slug"`
	Stock             *int            `json:"stock"`
	Description       *string         `json:"description"`
	Price             decimal.Decimal `json:"price"`
	PriceWithDiscount decimal.Decimal `json:"price_with_discount"`
	CategoryIDs       []ID            `json:"category_ids"`
	Images            []ImageInput    `json:"images"`
	Options           []OptionInput   `json:"options"`
}

// UpdateRequest leaves nil fields untouched. A non-nil empty CategoryIDs unlinks every category.
type UpdateRequest struct {
	Enabled           *bool            `json:"enabled"`
	Name              *string          `json:"name"`
	Slug              *string          `json:"slug"`
	Stock             *int             `json:"stock"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	PriceWithDiscount *decimal.Decimal `json:"price_with_discount"`
	CategoryIDs       *[]ID            `json:"category_ids"`
	Images            []ImageInput     `json:"images"`
	Options           []OptionInput    `json:"options"`
}

type CreateResponse struct {
	ID string `json:"id"`
}

type ImageResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type OptionResponse struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Shape  string   `json:"shape"`
	Radius *int     `json:"radius"`
	Type   string   `json:"type"`
	Values []string `json:"values"`
}

type Response struct {
	ID                string           `json:"id"`
	Enabled           bool             `json:"enabled"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Stock             int              `json:"stock"`
	Description       *string          `json:"description"`
	Price             decimal.Decimal  `json:"price"`
	PriceWithDiscount decimal.Decimal  `json:"price_with_discount"`
	CategoryIDs       []string         `json:"category_ids"`
	Images            []ImageResponse  `json:"images"`
	Options           []OptionResponse `json:"options"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

type OptionFilter struct {
	OptionID int64
	Values   []string
}

type SearchRequest struct {
	Limit       *int
	Page        *int
	Fields      []string
	Match       string
	CategoryIDs []int64
	PriceRange  string
	Options     []OptionFilter
}

type SearchResult struct {
	Data  []map[string]any `json:"data"`
	Total int64            `json:"total"`
	Limit int              `json:"limit"`
	Page  int              `json:"page"`
}

// ImageContent is either decoded bytes or a redirect target.
type ImageContent struct {
	Data        []byte
	Type        string
	RedirectURL string
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidSlug         = errors.New("invalid_slug")
	ErrInvalidStock        = errors.New("invalid_stock")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidImage        = errors.New("invalid_image")
	ErrInvalidImageContent = errors.New("invalid_image_content")
	ErrInvalidOption       = errors.New("invalid_option")
	ErrInvalidOptionTitle  = errors.New("invalid_option_title")
	ErrInvalidOptionShape  = errors.New("invalid_option_shape")
	ErrInvalidOptionType   = errors.New("invalid_option_type")
	ErrInvalidOptionRadius = errors.New("invalid_option_radius")
	ErrInvalidOptionValues = errors.New("invalid_option_values")
	ErrNotFound            = errors.New("not_found")
	ErrImageNotFound       = errors.New("image_not_found")

	// Referential failures roll back the whole write.
	ErrUnknownCategory = errors.New("unknown_category")
	ErrUnknownImage    = errors.New("unknown_image")
	ErrUnknownOption   = errors.New("unknown_option")

	ErrWriteFailed = errors.New("write_failed")
)

// WriteError wraps a persistence failure raised inside a catalog write.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return "product " + e.Op + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWriteFailed }
