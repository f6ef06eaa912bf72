// Package lifecycle appends order tracking history when an order's status changes.
package lifecycle

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	NoteCreated   = "order created, awaiting confirmation"
	NoteConfirmed = "order confirmed by seller"
	NoteShipped   = "order shipped to customer"
	NoteDelivered = "order delivered to customer"
	NoteCanceled  = "order canceled"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	StoreCfg *config.StoreConfigHolder
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.TrackingRepository
}

type Recorder struct {
	log      *zap.Logger
	storeCfg *config.StoreConfigHolder
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.TrackingRepository
}

func NewRecorder(p Params) *Recorder {
	return &Recorder{
		log:      p.Log.Named("order.lifecycle"),
		storeCfg: p.StoreCfg,
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
	}
}

// Entry is the note and location recorded for a status.
type Entry struct {
	Note     string
	Location *string
}

// Derive maps a status to its tracking note and location.
func Derive(status string, cfg config.TrackingConfig) Entry {
	switch status {
	case domain.StatusConfirmed:
		return Entry{Note: NoteConfirmed}
	case domain.StatusShipped:
		return Entry{Note: NoteShipped, Location: label(cfg.ShippedLocation)}
	case domain.StatusDelivered:
		return Entry{Note: NoteDelivered, Location: label(cfg.DeliveredLocation)}
	case domain.StatusCanceled:
		return Entry{Note: NoteCanceled}
	default:
		return Entry{Note: "order status updated to " + status}
	}
}

// RecordCreated writes the first history row of a new order.
func (r *Recorder) RecordCreated(ctx context.Context, tx *gorm.DB, order *domain.Order) (*domain.Tracking, error) {
	return r.insert(ctx, tx, order.ID, order.Status, Entry{Note: NoteCreated})
}

// RecordTrackingIfStatusChanged appends one row when newStatus differs from oldStatus.
// It returns nil when nothing was written. tx must be the transaction that persists the status.
func (r *Recorder) RecordTrackingIfStatusChanged(ctx context.Context, tx *gorm.DB, order *domain.Order, oldStatus, newStatus string) (*domain.Tracking, error) {
	if oldStatus == newStatus {
		return nil, nil
	}
	entry := Derive(newStatus, r.storeCfg.Get().Tracking)
	return r.insert(ctx, tx, order.ID, newStatus, entry)
}

func (r *Recorder) insert(ctx context.Context, tx *gorm.DB, orderID int64, status string, entry Entry) (*domain.Tracking, error) {
	note := entry.Note
	row := &domain.Tracking{
		ID:        r.genID.Generate().Int64(),
		OrderID:   orderID,
		Status:    status,
		Location:  entry.Location,
		Note:      &note,
		Timestamp: r.clock.Now(),
	}
	if err := r.repo.Insert(ctx, tx, row); err != nil {
		return nil, err
	}
	r.log.Debug("tracking appended",
		zap.Int64("order_id", orderID),
		zap.String("status", status),
	)
	return row, nil
}

func label(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
