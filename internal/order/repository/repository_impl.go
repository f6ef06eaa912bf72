package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, user_id, status, total_price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.UserID,
		order.Status,
		order.TotalPrice,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, status, total_price, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	stmt := db.WithContext(ctx).Where("user_id = ?", userID).Order("id DESC")
	if limit > 0 {
		stmt = stmt.Limit(limit).Offset(offset)
	}
	var orders []domain.Order
	if err := stmt.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, orderIDs []int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	if len(orderIDs) == 0 {
		return items, nil
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, quantity, price
		 FROM order_items WHERE order_id IN ? ORDER BY order_id ASC, id ASC`,
		orderIDs,
	).Scan(&items).Error
	return items, err
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id int64, status string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		status, at, id,
	).Error
}

func (r *repo) FindProductPrices(ctx context.Context, db *gorm.DB, productIDs []int64) ([]domain.ProductPrice, error) {
	var prices []domain.ProductPrice
	if len(productIDs) == 0 {
		return prices, nil
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price, price_with_discount FROM products WHERE id IN ?`,
		productIDs,
	).Scan(&prices).Error
	return prices, err
}
