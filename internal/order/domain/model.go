package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// ValidStatus reports whether s is one of the order states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	UserID     int64           `json:"user_id" gorm:"not null;index"`
	Status     string          `json:"status" gorm:"type:varchar(16);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"not null"`
}

func (Order) TableName() string { return "orders" }

// OrderItem keeps the unit price paid at purchase time.
type OrderItem struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	OrderID   int64           `json:"order_id" gorm:"not null;index"`
	ProductID int64           `json:"product_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// Tracking is one entry of an order's status history.
type Tracking struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	OrderID   int64     `json:"order_id" gorm:"not null;index"`
	Status    string    `json:"status" gorm:"type:varchar(16);not null"`
	Location  *string   `json:"location" gorm:"type:varchar(255)"`
	Note      *string   `json:"note" gorm:"type:text"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`
}

func (Tracking) TableName() string { return "order_trackings" }

// ProductPrice is the catalog view an order needs to price its items.
type ProductPrice struct {
	ID                int64
	Name              string
	Price             decimal.Decimal
	PriceWithDiscount decimal.Decimal
}

// UnitPrice is the discounted price when one is set.
func (p ProductPrice) UnitPrice() decimal.Decimal {
	if p.PriceWithDiscount.IsPositive() {
		return p.PriceWithDiscount
	}
	return p.Price
}
