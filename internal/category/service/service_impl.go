package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/storefront/internal/category/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/smallbiznis/storefront/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var defaultFields = []string{"id", "name", "slug", "use_in_menu"}

var selectableFields = map[string]bool{
	"id":          true,
	"name":        true,
	"slug":        true,
	"use_in_menu": true,
	"created_at":  true,
	"updated_at":  true,
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	GenID    *snowflake.Node
	Store    repository.Repository[domain.Category]
	StoreCfg *config.StoreConfigHolder
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	store    repository.Repository[domain.Category]
	storeCfg *config.StoreConfigHolder
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("category.service"),
		clock:    p.Clock,
		genID:    p.GenID,
		store:    p.Store,
		storeCfg: p.StoreCfg,
		metrics:  p.Metrics,
	}
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	page, err := pagination.NewPage(req.Limit, req.Page, s.storeCfg.Get().Catalog.DefaultSearchLimit)
	if err != nil {
		return nil, err
	}

	fields := defaultFields
	if len(req.Fields) > 0 {
		fields = make([]string, 0, len(req.Fields))
		for _, f := range req.Fields {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if !selectableFields[f] {
				return nil, domain.ErrInvalidField
			}
			fields = append(fields, f)
		}
	}

	var filter *domain.Category
	var opts []option.QueryOption
	if req.UseInMenu != nil {
		opts = append(opts, option.WithWhere("use_in_menu = ?", *req.UseInMenu))
	}

	total, err := s.store.Count(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	opts = append(opts,
		option.WithSelect(fields...),
		option.WithSortBy(option.Sort{Column: "id", Direction: "ASC"}),
		option.WithPage(page.Limit, page.Page),
	)
	items, err := s.store.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	data := make([]map[string]any, 0, len(items))
	for _, item := range items {
		data = append(data, project(item, fields))
	}

	return &domain.SearchResult{
		Data:  data,
		Total: total,
		Limit: page.Limit,
		Page:  page.Page,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	categoryID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.store.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return toResponse(item), nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name, slugValue, useInMenu, err := validate(req)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	item := &domain.Category{
		ID:        s.genID.Generate().Int64(),
		Name:      name,
		Slug:      slugValue,
		UseInMenu: useInMenu,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, item); err != nil {
		s.metrics.RecordCatalogWrite(ctx, "category", "create", "error")
		return nil, err
	}

	s.metrics.RecordCatalogWrite(ctx, "category", "create", "ok")
	return toResponse(item), nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) error {
	categoryID, err := parseID(id)
	if err != nil {
		return err
	}
	name, slugValue, useInMenu, err := validate(req)
	if err != nil {
		return err
	}

	affected, err := s.store.Update(ctx, categoryID, map[string]any{
		"name":        name,
		"slug":        slugValue,
		"use_in_menu": useInMenu,
		"updated_at":  s.clock.Now(),
	})
	if err != nil {
		s.metrics.RecordCatalogWrite(ctx, "category", "update", "error")
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	s.metrics.RecordCatalogWrite(ctx, "category", "update", "ok")
	return nil
}

// Delete removes the category and unlinks it from every product.
func (s *Service) Delete(ctx context.Context, id string) error {
	categoryID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM product_categories WHERE category_id = ?`, categoryID).Error; err != nil {
			return err
		}
		affected, err := s.store.WithTrx(tx).Delete(ctx, categoryID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.RecordCatalogWrite(ctx, "category", "delete", "ok")
	return nil
}

func validate(req domain.CreateRequest) (string, string, bool, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", "", false, domain.ErrInvalidName
	}
	slugValue := slug.Make(req.Slug)
	if slugValue == "" {
		return "", "", false, domain.ErrInvalidSlug
	}
	if req.UseInMenu == nil {
		return "", "", false, domain.ErrInvalidUseInMenu
	}
	return name, slugValue, *req.UseInMenu, nil
}

func parseID(id string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed.Int64(), nil
}

func project(c *domain.Category, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "id":
			out[f] = snowflake.ID(c.ID).String()
		case "name":
			out[f] = c.Name
		case "slug":
			out[f] = c.Slug
		case "use_in_menu":
			out[f] = c.UseInMenu
		case "created_at":
			out[f] = c.CreatedAt
		case "updated_at":
			out[f] = c.UpdatedAt
		}
	}
	return out
}

func toResponse(c *domain.Category) *domain.Response {
	return &domain.Response{
		ID:        snowflake.ID(c.ID).String(),
		Name:      c.Name,
		Slug:      c.Slug,
		UseInMenu: c.UseInMenu,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
