package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ShapeSquare = "square"
	ShapeCircle = "circle"

	OptionTypeText  = "text"
	OptionTypeColor = "color"
)

type Product struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	Enabled           bool            `json:"enabled" gorm:"not null"`
	Name              string          `json:"name" gorm:"type:varchar(255);not null"`
	Slug              string          `json:"slug" gorm:"type:varchar(255);not null;index"`
	Stock             int             `json:"stock" gorm:"not null"`
	Description       *string         `json:"description,omitempty" gorm:"type:text"`
	Price             decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	PriceWithDiscount decimal.Decimal `json:"price_with_discount" gorm:"type:decimal(12,2);not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }

// Image holds either base64 content or an external path.
type Image struct {
	ID        int64   `json:"id" gorm:"primaryKey"`
	ProductID int64   `json:"product_id" gorm:"not null;index"`
	Enabled   bool    `json:"enabled" gorm:"not null"`
	Content   *string `json:"-" gorm:"type:text"`
	Path      *string `json:"path,omitempty" gorm:"type:text"`
	Type      string  `json:"type" gorm:"type:varchar(128);not null"`
}

func (Image) TableName() string { return "product_images" }

// Option is one value of an option group. Rows sharing title, shape and type form the group.
type Option struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	ProductID int64  `json:"product_id" gorm:"not null;index"`
	Title     string `json:"title" gorm:"type:varchar(255);not null"`
	Shape     string `json:"shape" gorm:"type:varchar(16);not null"`
	Radius    *int   `json:"radius,omitempty"`
	Type      string `json:"type" gorm:"type:varchar(16);not null"`
	Value     string `json:"value" gorm:"type:varchar(255);not null"`
}

func (Option) TableName() string { return "product_options" }

type ProductCategory struct {
	ProductID  int64 `gorm:"primaryKey"`
	CategoryID int64 `gorm:"primaryKey;index"`
}

func (ProductCategory) TableName() string { return "product_categories" }
