package repository

import (
	"context"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"gorm.io/gorm"
)

type trackingRepo struct{}

func ProvideTracking() domain.TrackingRepository {
	return &trackingRepo{}
}

func (r *trackingRepo) Insert(ctx context.Context, db *gorm.DB, tracking *domain.Tracking) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO order_trackings (id, order_id, status, location, note, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tracking.ID,
		tracking.OrderID,
		tracking.Status,
		tracking.Location,
		tracking.Note,
		tracking.Timestamp,
	).Error
}

func (r *trackingRepo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Tracking, error) {
	var tracking domain.Tracking
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, status, location, note, timestamp
		 FROM order_trackings WHERE id = ?`,
		id,
	).Scan(&tracking).Error
	if err != nil {
		return nil, err
	}
	if tracking.ID == 0 {
		return nil, nil
	}
	return &tracking, nil
}

// ListByOrder returns the history oldest first. Rows written in the same instant keep insertion order.
func (r *trackingRepo) ListByOrder(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.Tracking, error) {
	var rows []domain.Tracking
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, status, location, note, timestamp
		 FROM order_trackings WHERE order_id = ? ORDER BY timestamp ASC, id ASC`,
		orderID,
	).Scan(&rows).Error
	return rows, err
}

func (r *trackingRepo) Update(ctx context.Context, db *gorm.DB, id int64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Tracking{}).Where("id = ?", id).Updates(fields).Error
}

func (r *trackingRepo) Delete(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	tx := db.WithContext(ctx).Exec(`DELETE FROM order_trackings WHERE id = ?`, id)
	return tx.RowsAffected, tx.Error
}
