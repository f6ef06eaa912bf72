package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TrackingParams struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	StoreCfg     *config.StoreConfigHolder
	Repo         domain.Repository
	TrackingRepo domain.TrackingRepository
	AuditSvc     auditdomain.Service `optional:"true"`
}

type TrackingService struct {
	db           *gorm.DB
	log          *zap.Logger
	storeCfg     *config.StoreConfigHolder
	repo         domain.Repository
	trackingRepo domain.TrackingRepository
	auditSvc     auditdomain.Service
}

func NewTracking(p TrackingParams) domain.TrackingService {
	return &TrackingService{
		db:           p.DB,
		log:          p.Log.Named("order.tracking"),
		storeCfg:     p.StoreCfg,
		repo:         p.Repo,
		trackingRepo: p.TrackingRepo,
		auditSvc:     p.AuditSvc,
	}
}

func (s *TrackingService) Timeline(ctx context.Context, orderID string) (*domain.TimelineResponse, error) {
	order, rows, err := s.history(ctx, orderID)
	if err != nil {
		return nil, err
	}

	missing := s.storeCfg.Get().Tracking.MissingLocation
	timeline := make([]domain.TimelineEntry, 0, len(rows))
	for _, row := range rows {
		timeline = append(timeline, toTimelineEntry(row, missing))
	}
	return &domain.TimelineResponse{
		OrderID:       snowflake.ID(order.ID).String(),
		CurrentStatus: order.Status,
		Timeline:      timeline,
	}, nil
}

func (s *TrackingService) ListByOrder(ctx context.Context, orderID string) ([]domain.TrackingResponse, error) {
	_, rows, err := s.history(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.TrackingResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTrackingResponse(row))
	}
	return out, nil
}

// Update corrects a tracking row in place. The order's own status is not touched.
func (s *TrackingService) Update(ctx context.Context, id string, req domain.UpdateTrackingRequest) (*domain.TrackingResponse, error) {
	trackingID, err := parseTrackingID(id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	changes := map[string]any{}
	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if !domain.ValidStatus(status) {
			return nil, domain.ErrInvalidStatus
		}
		fields["status"] = status
		changes["status"] = status
	}
	if req.Location != nil {
		fields["location"] = optionalText(*req.Location)
		changes["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Note != nil {
		fields["note"] = optionalText(*req.Note)
		changes["note"] = strings.TrimSpace(*req.Note)
	}

	var updated *domain.Tracking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.trackingRepo.FindByID(ctx, tx, trackingID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrTrackingNotFound
		}
		if err := s.trackingRepo.Update(ctx, tx, trackingID, fields); err != nil {
			return err
		}
		updated, err = s.trackingRepo.FindByID(ctx, tx, trackingID)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTrackingNotFound) {
			s.log.Error("update tracking failed", zap.Int64("tracking_id", trackingID), zap.Error(err))
		}
		return nil, err
	}

	s.audit(ctx, "tracking.update", updated, changes)
	resp := toTrackingResponse(*updated)
	return &resp, nil
}

func (s *TrackingService) Delete(ctx context.Context, id string) error {
	trackingID, err := parseTrackingID(id)
	if err != nil {
		return err
	}

	var deleted *domain.Tracking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.trackingRepo.FindByID(ctx, tx, trackingID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrTrackingNotFound
		}
		if _, err := s.trackingRepo.Delete(ctx, tx, trackingID); err != nil {
			return err
		}
		deleted = row
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrTrackingNotFound) {
			s.log.Error("delete tracking failed", zap.Int64("tracking_id", trackingID), zap.Error(err))
		}
		return err
	}

	s.audit(ctx, "tracking.delete", deleted, map[string]any{"status": deleted.Status})
	return nil
}

// history loads the order and its rows, enforcing ownership before the rows are read.
func (s *TrackingService) history(ctx context.Context, orderID string) (*domain.Order, []domain.Tracking, error) {
	id, err := parseID(orderID)
	if err != nil {
		return nil, nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, domain.ErrNotFound
	}
	if err := authorizeOwner(ctx, order); err != nil {
		return nil, nil, err
	}
	rows, err := s.trackingRepo.ListByOrder(ctx, s.db, order.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, domain.ErrTrackingNotFound
	}
	return order, rows, nil
}

func (s *TrackingService) audit(ctx context.Context, action string, row *domain.Tracking, metadata map[string]any) {
	if s.auditSvc == nil || row == nil {
		return
	}
	target := snowflake.ID(row.ID).String()
	metadata["order_id"] = snowflake.ID(row.OrderID).String()
	if err := s.auditSvc.AuditLog(ctx, action, "tracking", &target, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func toTimelineEntry(row domain.Tracking, missingLocation string) domain.TimelineEntry {
	entry := domain.TimelineEntry{
		Status:    row.Status,
		Location:  missingLocation,
		Timestamp: row.Timestamp,
	}
	if row.Location != nil && *row.Location != "" {
		entry.Location = *row.Location
	}
	if row.Note != nil {
		entry.Note = *row.Note
	}
	return entry
}

func toTrackingResponse(row domain.Tracking) domain.TrackingResponse {
	return domain.TrackingResponse{
		ID:        snowflake.ID(row.ID).String(),
		OrderID:   snowflake.ID(row.OrderID).String(),
		Status:    row.Status,
		Location:  row.Location,
		Note:      row.Note,
		Timestamp: row.Timestamp,
	}
}

func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func parseTrackingID(id string) (int64, error) {
	parsed, err := parseID(id)
	if err != nil {
		return 0, domain.ErrTrackingNotFound
	}
	return parsed, nil
}
