package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/order/lifecycle"
	"github.com/smallbiznis/storefront/internal/principal"
	"github.com/smallbiznis/storefront/internal/providers/pdf"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Cfg          config.Config
	StoreCfg     *config.StoreConfigHolder
	Clock        clock.Clock
	GenID        *snowflake.Node
	Repo         domain.Repository
	TrackingRepo domain.TrackingRepository
	Recorder     *lifecycle.Recorder
	PDF          pdf.Provider        `optional:"true"`
	AuditSvc     auditdomain.Service `optional:"true"`
	Metrics      *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	storeName    string
	storeCfg     *config.StoreConfigHolder
	clock        clock.Clock
	genID        *snowflake.Node
	repo         domain.Repository
	trackingRepo domain.TrackingRepository
	recorder     *lifecycle.Recorder
	pdf          pdf.Provider
	auditSvc     auditdomain.Service
	metrics      *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("order.service"),
		storeName:    p.Cfg.AppName,
		storeCfg:     p.StoreCfg,
		clock:        p.Clock,
		genID:        p.GenID,
		repo:         p.Repo,
		trackingRepo: p.TrackingRepo,
		recorder:     p.Recorder,
		pdf:          p.PDF,
		auditSvc:     p.AuditSvc,
		metrics:      p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if req.UserID <= 0 {
		return nil, domain.ErrInvalidUser
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidItems
	}
	productIDs := make([]int64, 0, len(req.Items))
	seen := make(map[int64]struct{}, len(req.Items))
	for _, item := range req.Items {
		if item.ProductID <= 0 {
			return nil, domain.ErrInvalidItems
		}
		if item.Quantity < 1 {
			return nil, domain.ErrInvalidQuantity
		}
		if _, ok := seen[item.ProductID.Int64()]; !ok {
			seen[item.ProductID.Int64()] = struct{}{}
			productIDs = append(productIDs, item.ProductID.Int64())
		}
	}

	now := s.clock.Now()
	order := &domain.Order{
		ID:        s.genID.Generate().Int64(),
		UserID:    req.UserID.Int64(),
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	var items []domain.OrderItem

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		prices, err := s.repo.FindProductPrices(ctx, tx, productIDs)
		if err != nil {
			return err
		}
		if len(prices) != len(productIDs) {
			return domain.ErrUnknownProduct
		}
		byID := make(map[int64]domain.ProductPrice, len(prices))
		for _, p := range prices {
			byID[p.ID] = p
		}

		total := decimal.Zero
		items = make([]domain.OrderItem, 0, len(req.Items))
		for _, in := range req.Items {
			unit := byID[in.ProductID.Int64()].UnitPrice()
			total = total.Add(unit.Mul(decimal.NewFromInt(int64(in.Quantity))))
			items = append(items, domain.OrderItem{
				ID:        s.genID.Generate().Int64(),
				OrderID:   order.ID,
				ProductID: in.ProductID.Int64(),
				Quantity:  in.Quantity,
				Price:     unit,
			})
		}
		order.TotalPrice = total

		if err := s.repo.InsertOrder(ctx, tx, order); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, items); err != nil {
			return err
		}
		_, err = s.recorder.RecordCreated(ctx, tx, order)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrUnknownProduct) {
			s.log.Error("create order failed", zap.Error(err))
		}
		return nil, err
	}

	s.metrics.RecordOrderCreated(ctx)
	s.metrics.RecordTrackingEvent(ctx, order.Status)
	return toResponse(order, items), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	order, err := s.findOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	return toResponse(order, items), nil
}

func (s *Service) ListByUser(ctx context.Context, req domain.ListRequest) (*domain.ListResult, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	userID := req.UserID
	if userID == 0 {
		userID = caller.UserID
	}
	if userID != caller.UserID && !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	page, err := pagination.NewPage(req.Limit, req.Page, s.storeCfg.Get().Catalog.DefaultSearchLimit)
	if err != nil {
		return nil, err
	}
	limit, offset := 0, 0
	if !page.Unbounded() {
		limit, offset = page.Limit, page.Offset()
	}

	orders, total, err := s.repo.ListByUser(ctx, s.db, userID.Int64(), limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	items, err := s.repo.ListItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[int64][]domain.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	data := make([]domain.Response, 0, len(orders))
	for i := range orders {
		data = append(data, *toResponse(&orders[i], byOrder[orders[i].ID]))
	}
	return &domain.ListResult{
		Data:  data,
		Total: total,
		Limit: page.Limit,
		Page:  page.Page,
	}, nil
}

// UpdateStatus writes the new status and its tracking row in one transaction.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*domain.Response, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	var (
		order     *domain.Order
		oldStatus string
		appended  *domain.Tracking
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrNotFound
		}
		oldStatus = order.Status
		if oldStatus == status {
			return nil
		}

		now := s.clock.Now()
		if err := s.repo.UpdateStatus(ctx, tx, order.ID, status, now); err != nil {
			return err
		}
		order.Status = status
		order.UpdatedAt = now

		appended, err = s.recorder.RecordTrackingIfStatusChanged(ctx, tx, order, oldStatus, status)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("update order status failed", zap.Int64("order_id", orderID), zap.Error(err))
		}
		return nil, err
	}

	if appended != nil {
		s.metrics.RecordTrackingEvent(ctx, appended.Status)
		if s.auditSvc != nil {
			target := snowflake.ID(order.ID).String()
			err := s.auditSvc.AuditLog(ctx, "order.status_update", "order", &target, map[string]any{
				"from": oldStatus,
				"to":   status,
			})
			if err != nil {
				s.log.Warn("audit log failed", zap.String("action", "order.status_update"), zap.Error(err))
			}
		}
	}

	items, err := s.repo.ListItems(ctx, s.db, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	return toResponse(order, items), nil
}

func (s *Service) Receipt(ctx context.Context, id string) ([]byte, error) {
	if s.pdf == nil {
		return nil, errors.New("receipt renderer not configured")
	}
	order, err := s.findOwned(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, s.db, []int64{order.ID})
	if err != nil {
		return nil, err
	}
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	products, err := s.repo.FindProductPrices(ctx, s.db, productIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	rows, err := s.trackingRepo.ListByOrder(ctx, s.db, order.ID)
	if err != nil {
		return nil, err
	}

	data := pdf.ReceiptData{
		StoreName: s.storeName,
		OrderID:   snowflake.ID(order.ID).String(),
		Customer:  snowflake.ID(order.UserID).String(),
		Status:    order.Status,
		IssuedAt:  s.clock.Now().Format("2006-01-02 15:04 MST"),
		Total:     order.TotalPrice.StringFixed(2),
	}
	for _, item := range items {
		name, ok := names[item.ProductID]
		if !ok {
			name = "product " + snowflake.ID(item.ProductID).String()
		}
		data.Items = append(data.Items, pdf.ReceiptItem{
			Description: name,
			Qty:         item.Quantity,
			UnitPrice:   item.Price.StringFixed(2),
			Amount:      item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2),
		})
	}
	missing := s.storeCfg.Get().Tracking.MissingLocation
	for _, row := range rows {
		entry := toTimelineEntry(row, missing)
		data.Timeline = append(data.Timeline, pdf.ReceiptEvent{
			At:       entry.Timestamp.Format("2006-01-02 15:04"),
			Status:   entry.Status,
			Location: entry.Location,
			Note:     entry.Note,
		})
	}

	r, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		s.log.Error("render receipt failed", zap.Int64("order_id", order.ID), zap.Error(err))
		return nil, err
	}
	return io.ReadAll(r)
}

// findOwned loads an order the caller is allowed to read.
func (s *Service) findOwned(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if err := authorizeOwner(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func authorizeOwner(ctx context.Context, order *domain.Order) error {
	caller, ok := principal.FromContext(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if caller.IsAdmin() || caller.UserID.Int64() == order.UserID {
		return nil
	}
	return domain.ErrForbidden
}

func toResponse(order *domain.Order, items []domain.OrderItem) *domain.Response {
	out := make([]domain.ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, domain.ItemResponse{
			ID:        snowflake.ID(item.ID).String(),
			ProductID: snowflake.ID(item.ProductID).String(),
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return &domain.Response{
		ID:         snowflake.ID(order.ID).String(),
		UserID:     snowflake.ID(order.UserID).String(),
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		Items:      out,
		CreatedAt:  order.CreatedAt,
		UpdatedAt:  order.UpdatedAt,
	}
}

func parseID(id string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed.Int64(), nil
}
