package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	ListByUser(ctx context.Context, req ListRequest) (*ListResult, error)
	UpdateStatus(ctx context.Context, id string, status string) (*Response, error)
	Receipt(ctx context.Context, id string) ([]byte, error)
}

type TrackingService interface {
	Timeline(ctx context.Context, orderID string) (*TimelineResponse, error)
	ListByOrder(ctx context.Context, orderID string) ([]TrackingResponse, error)
	Update(ctx context.Context, id string, req UpdateTrackingRequest) (*TrackingResponse, error)
	Delete(ctx context.Context, id string) error
}

type ItemInput struct {
	ProductID snowflake.ID `json:"product_id"`
	Quantity  int          `json:"quantity"`
}

type CreateRequest struct {
	UserID snowflake.ID `json:"-"`
	Items  []ItemInput  `json:"items"`
}

type ListRequest struct {
	UserID snowflake.ID
	Limit  *int
	Page   *int
}

type ItemResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type Response struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Items      []ItemResponse  `json:"items"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type ListResult struct {
	Data  []Response `json:"data"`
	Total int64      `json:"total"`
	Limit int        `json:"limit"`
	Page  int        `json:"page"`
}

type TimelineEntry struct {
	Status    string    `json:"status"`
	Location  string    `json:"location"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

type TimelineResponse struct {
	OrderID       string          `json:"order_id"`
	CurrentStatus string          `json:"current_status"`
	Timeline      []TimelineEntry `json:"timeline"`
}

type TrackingResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    string    `json:"status"`
	Location  *string   `json:"location"`
	Note      *string   `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// UpdateTrackingRequest corrects a tracking row. Nil fields are left untouched.
type UpdateTrackingRequest struct {
	Status   *string `json:"status"`
	Location *string `json:"location"`
	Note     *string `json:"note"`
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidItems     = errors.New("invalid_items")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrUnknownProduct   = errors.New("unknown_product")
	ErrNotFound         = errors.New("order_not_found")
	ErrTrackingNotFound = errors.New("tracking_not_found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)
