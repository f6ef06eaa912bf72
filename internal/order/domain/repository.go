package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	InsertOrder(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID int64, limit, offset int) ([]Order, int64, error)
	ListItems(ctx context.Context, db *gorm.DB, orderIDs []int64) ([]OrderItem, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status string, at time.Time) error
	FindProductPrices(ctx context.Context, db *gorm.DB, productIDs []int64) ([]ProductPrice, error)
}

type TrackingRepository interface {
	Insert(ctx context.Context, db *gorm.DB, tracking *Tracking) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Tracking, error)
	ListByOrder(ctx context.Context, db *gorm.DB, orderID int64) ([]Tracking, error)
	Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id int64) (int64, error)
}
