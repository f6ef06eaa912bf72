package domain

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SearchFilter is the parsed form of a catalog search.
type SearchFilter struct {
	Match       string
	CategoryIDs []int64
	PriceMin    *decimal.Decimal
	PriceMax    *decimal.Decimal
	Options     []OptionFilter
	Limit       int
	Offset      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	UpdateFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error
	Delete(ctx context.Context, db *gorm.DB, id int64) (int64, error)

	CountCategories(ctx context.Context, db *gorm.DB, ids []int64) (int64, error)
	ListCategoryLinks(ctx context.Context, db *gorm.DB, productIDs []int64) ([]ProductCategory, error)
	LinkCategories(ctx context.Context, db *gorm.DB, productID int64, categoryIDs []int64) error
	UnlinkCategories(ctx context.Context, db *gorm.DB, productID int64, categoryIDs []int64) error

	InsertImages(ctx context.Context, db *gorm.DB, images []Image) error
	UpdateImage(ctx context.Context, db *gorm.DB, image Image) (int64, error)
	DeleteImage(ctx context.Context, db *gorm.DB, productID, imageID int64) (int64, error)
	ListImages(ctx context.Context, db *gorm.DB, productIDs []int64) ([]Image, error)
	FindImageBySlug(ctx context.Context, db *gorm.DB, slug string, imageID int64) (*Image, error)

	InsertOptions(ctx context.Context, db *gorm.DB, options []Option) error
	FindOption(ctx context.Context, db *gorm.DB, productID, optionID int64) (*Option, error)
	DeleteOptionGroup(ctx context.Context, db *gorm.DB, group Option) (int64, error)
	ListOptions(ctx context.Context, db *gorm.DB, productIDs []int64) ([]Option, error)

	DeleteChildren(ctx context.Context, db *gorm.DB, productID int64) error

	Search(ctx context.Context, db *gorm.DB, filter SearchFilter) ([]Product, int64, error)
}
