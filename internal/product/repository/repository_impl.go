package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, enabled, name, slug, stock, description, price, price_with_discount, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Enabled,
		product.Name,
		product.Slug,
		product.Stock,
		product.Description,
		product.Price,
		product.PriceWithDiscount,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, enabled, name, slug, stock, description, price, price_with_discount, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) UpdateFields(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id)
	return tx.RowsAffected, tx.Error
}

func (r *repo) CountCategories(ctx context.Context, db *gorm.DB, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM categories WHERE id IN ?`, ids).Scan(&count).Error
	return count, err
}

func (r *repo) ListCategoryLinks(ctx context.Context, db *gorm.DB, productIDs []int64) ([]domain.ProductCategory, error) {
	var links []domain.ProductCategory
	if len(productIDs) == 0 {
		return links, nil
	}
	err := db.WithContext(ctx).Raw(
		`SELECT product_id, category_id FROM product_categories
		 WHERE product_id IN ? ORDER BY product_id ASC, category_id ASC`,
		productIDs,
	).Scan(&links).Error
	return links, err
}

func (r *repo) LinkCategories(ctx context.Context, db *gorm.DB, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	links := make([]domain.ProductCategory, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		links = append(links, domain.ProductCategory{ProductID: productID, CategoryID: id})
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repo) UnlinkCategories(ctx context.Context, db *gorm.DB, productID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM product_categories WHERE product_id = ? AND category_id IN ?`,
		productID,
		categoryIDs,
	).Error
}

func (r *repo) InsertImages(ctx context.Context, db *gorm.DB, images []domain.Image) error {
	if len(images) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&images).Error
}

func (r *repo) UpdateImage(ctx context.Context, db *gorm.DB, image domain.Image) (int64, error) {
	tx := db.WithContext(ctx).Exec(
		`UPDATE product_images SET content = ?, path = ?, type = ? WHERE id = ? AND product_id = ?`,
		image.Content,
		image.Path,
		image.Type,
		image.ID,
		image.ProductID,
	)
	return tx.RowsAffected, tx.Error
}

func (r *repo) DeleteImage(ctx context.Context, db *gorm.DB, productID, imageID int64) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM product_images WHERE id = ? AND product_id = ?`, imageID, productID)
	return tx.RowsAffected, tx.Error
}

func (r *repo) ListImages(ctx context.Context, db *gorm.DB, productIDs []int64) ([]domain.Image, error) {
	var images []domain.Image
	if len(productIDs) == 0 {
		return images, nil
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, enabled, path, type FROM product_images
		 WHERE product_id IN ? ORDER BY id ASC`,
		productIDs,
	).Scan(&images).Error
	return images, err
}

func (r *repo) FindImageBySlug(ctx context.Context, db *gorm.DB, slug string, imageID int64) (*domain.Image, error) {
	var img domain.Image
	err := db.WithContext(ctx).Raw(
		`SELECT i.id, i.product_id, i.enabled, i.content, i.path, i.type
		 FROM product_images i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.id = ? AND p.slug = ?`,
		imageID,
		slug,
	).Scan(&img).Error
	if err != nil {
		return nil, err
	}
	if img.ID == 0 {
		return nil, nil
	}
	return &img, nil
}

func (r *repo) InsertOptions(ctx context.Context, db *gorm.DB, options []domain.Option) error {
	if len(options) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&options).Error
}

func (r *repo) FindOption(ctx context.Context, db *gorm.DB, productID, optionID int64) (*domain.Option, error) {
	var opt domain.Option
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, title, shape, radius, type, value
		 FROM product_options WHERE id = ? AND product_id = ?`,
		optionID,
		productID,
	).Scan(&opt).Error
	if err != nil {
		return nil, err
	}
	if opt.ID == 0 {
		return nil, nil
	}
	return &opt, nil
}

// DeleteOptionGroup removes every row sharing the group's product, title, shape and type.
func (r *repo) DeleteOptionGroup(ctx context.Context, db *gorm.DB, group domain.Option) (int64, error) {
	tx := db.WithContext(ctx).Exec(
		`DELETE FROM product_options WHERE product_id = ? AND title = ? AND shape = ? AND type = ?`,
		group.ProductID,
		group.Title,
		group.Shape,
		group.Type,
	)
	return tx.RowsAffected, tx.Error
}

func (r *repo) ListOptions(ctx context.Context, db *gorm.DB, productIDs []int64) ([]domain.Option, error) {
	var options []domain.Option
	if len(productIDs) == 0 {
		return options, nil
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, product_id, title, shape, radius, type, value FROM product_options
		 WHERE product_id IN ? ORDER BY id ASC`,
		productIDs,
	).Scan(&options).Error
	return options, err
}

func (r *repo) DeleteChildren(ctx context.Context, db *gorm.DB, productID int64) error {
	for _, stmt := range []string{
		`DELETE FROM product_options WHERE product_id = ?`,
		`DELETE FROM product_images WHERE product_id = ?`,
		`DELETE FROM product_categories WHERE product_id = ?`,
	} {
		if err := db.WithContext(ctx).Exec(stmt, productID).Error; err != nil {
			return err
		}
	}
	return nil
}
