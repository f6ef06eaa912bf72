package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	StoreCfg *config.StoreConfigHolder
	Clock    clock.Clock
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	mediaURL string
	storeCfg *config.StoreConfigHolder
	clock    clock.Clock
	genID    *snowflake.Node
	repo     domain.Repository
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("product.service"),
		mediaURL: strings.TrimRight(p.Cfg.MediaBaseURL, "/"),
		storeCfg: p.StoreCfg,
		clock:    p.Clock,
		genID:    p.GenID,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.CreateResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	slugValue := slug.Make(req.Slug)
	if slugValue == "" {
		return nil, domain.ErrInvalidSlug
	}
	stock := 0
	if req.Stock != nil {
		stock = *req.Stock
	}
	if stock < 0 {
		return nil, domain.ErrInvalidStock
	}
	if req.Price.IsNegative() || req.PriceWithDiscount.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	images := make([]domain.Image, 0, len(req.Images))
	for _, in := range req.Images {
		dir, err := domain.ParseImageDirective(in)
		if err != nil {
			return nil, err
		}
		create, ok := dir.(domain.CreateImage)
		if !ok {
			return nil, domain.ErrInvalidImage
		}
		img, err := normalizeImage(create.ImagePayload)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	groups := make([]domain.OptionGroup, 0, len(req.Options))
	for _, in := range req.Options {
		dir, err := domain.ParseOptionDirective(in)
		if err != nil {
			return nil, err
		}
		create, ok := dir.(domain.CreateOption)
		if !ok {
			return nil, domain.ErrInvalidOption
		}
		groups = append(groups, create.OptionGroup)
	}

	now := s.clock.Now()
	product := &domain.Product{
		ID:                s.genID.Generate().Int64(),
		Enabled:           enabled,
		Name:              name,
		Slug:              slugValue,
		Stock:             stock,
		Description:       normalizeDescription(req.Description),
		Price:             req.Price,
		PriceWithDiscount: req.PriceWithDiscount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, product); err != nil {
			return err
		}

		if len(req.CategoryIDs) > 0 {
			ids := uniqueIDs(req.CategoryIDs)
			if err := s.ensureCategories(ctx, tx, ids); err != nil {
				return err
			}
			if err := s.repo.LinkCategories(ctx, tx, product.ID, ids); err != nil {
				return err
			}
		}

		for i := range images {
			images[i].ID = s.genID.Generate().Int64()
			images[i].ProductID = product.ID
			images[i].Enabled = true
		}
		if err := s.repo.InsertImages(ctx, tx, images); err != nil {
			return err
		}

		var rows []domain.Option
		for _, g := range groups {
			rows = append(rows, s.expandGroup(product.ID, g)...)
		}
		return s.repo.InsertOptions(ctx, tx, rows)
	})
	if err != nil {
		s.metrics.RecordCatalogWrite(ctx, "product", "create", "error")
		return nil, s.writeError(ctx, "create", err)
	}

	s.metrics.RecordCatalogWrite(ctx, "product", "create", "ok")
	return &domain.CreateResponse{ID: snowflake.ID(product.ID).String()}, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	fields, err := updateFields(req)
	if err != nil {
		return err
	}

	imageDirs := make([]domain.ImageDirective, 0, len(req.Images))
	for _, in := range req.Images {
		dir, err := domain.ParseImageDirective(in)
		if err != nil {
			return err
		}
		imageDirs = append(imageDirs, dir)
	}
	optionDirs := make([]domain.OptionDirective, 0, len(req.Options))
	for _, in := range req.Options {
		dir, err := domain.ParseOptionDirective(in)
		if err != nil {
			return err
		}
		optionDirs = append(optionDirs, dir)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, tx, productID, fields); err != nil {
			return err
		}

		if req.CategoryIDs != nil {
			if err := s.relinkCategories(ctx, tx, productID, uniqueIDs(*req.CategoryIDs)); err != nil {
				return err
			}
		}

		for _, dir := range imageDirs {
			if err := s.applyImageDirective(ctx, tx, productID, dir); err != nil {
				return err
			}
		}
		for _, dir := range optionDirs {
			if err := s.applyOptionDirective(ctx, tx, productID, dir); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.metrics.RecordCatalogWrite(ctx, "product", "update", "error")
		}
		return s.writeError(ctx, "update", err)
	}

	s.metrics.RecordCatalogWrite(ctx, "product", "update", "ok")
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	var deleted *domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.repo.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		if err := s.repo.DeleteChildren(ctx, tx, productID); err != nil {
			return err
		}
		if _, err := s.repo.Delete(ctx, tx, productID); err != nil {
			return err
		}
		deleted = product
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.metrics.RecordCatalogWrite(ctx, "product", "delete", "error")
		}
		return err
	}

	s.metrics.RecordCatalogWrite(ctx, "product", "delete", "ok")
	if s.auditSvc != nil {
		target := snowflake.ID(deleted.ID).String()
		err := s.auditSvc.AuditLog(ctx, "product.delete", "product", &target, map[string]any{
			"name": deleted.Name,
			"slug": deleted.Slug,
		})
		if err != nil {
			s.log.Warn("audit log failed", zap.String("action", "product.delete"), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	children, err := s.loadChildren(ctx, []int64{productID}, allComputed)
	if err != nil {
		return nil, err
	}
	return s.toResponse(product, children), nil
}

func (s *Service) GetImage(ctx context.Context, slugValue string, imageID string) (*domain.ImageContent, error) {
	id, err := parseID(imageID)
	if err != nil {
		return nil, domain.ErrImageNotFound
	}
	img, err := s.repo.FindImageBySlug(ctx, s.db, strings.TrimSpace(slugValue), id)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, domain.ErrImageNotFound
	}
	if img.Path != nil && *img.Path != "" {
		return &domain.ImageContent{RedirectURL: *img.Path, Type: img.Type}, nil
	}
	data, err := decodeImage(img)
	if err != nil {
		return nil, err
	}
	return &domain.ImageContent{Data: data, Type: img.Type}, nil
}

func (s *Service) ensureCategories(ctx context.Context, tx *gorm.DB, ids []int64) error {
	count, err := s.repo.CountCategories(ctx, tx, ids)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return domain.ErrUnknownCategory
	}
	return nil
}

// relinkCategories applies the symmetric difference between the current and requested links.
func (s *Service) relinkCategories(ctx context.Context, tx *gorm.DB, productID int64, requested []int64) error {
	if err := s.ensureCategories(ctx, tx, requested); err != nil {
		return err
	}

	links, err := s.repo.ListCategoryLinks(ctx, tx, []int64{productID})
	if err != nil {
		return err
	}
	current := make(map[int64]bool, len(links))
	for _, l := range links {
		current[l.CategoryID] = true
	}
	wanted := make(map[int64]bool, len(requested))
	for _, id := range requested {
		wanted[id] = true
	}

	var removed, added []int64
	for _, l := range links {
		if !wanted[l.CategoryID] {
			removed = append(removed, l.CategoryID)
		}
	}
	for _, id := range requested {
		if !current[id] {
			added = append(added, id)
		}
	}

	if err := s.repo.UnlinkCategories(ctx, tx, productID, removed); err != nil {
		return err
	}
	return s.repo.LinkCategories(ctx, tx, productID, added)
}

func (s *Service) applyImageDirective(ctx context.Context, tx *gorm.DB, productID int64, dir domain.ImageDirective) error {
	switch d := dir.(type) {
	case domain.CreateImage:
		img, err := normalizeImage(d.ImagePayload)
		if err != nil {
			return err
		}
		img.ID = s.genID.Generate().Int64()
		img.ProductID = productID
		img.Enabled = true
		return s.repo.InsertImages(ctx, tx, []domain.Image{img})
	case domain.UpdateImage:
		img, err := normalizeImage(d.ImagePayload)
		if err != nil {
			return err
		}
		img.ID = d.ID
		img.ProductID = productID
		affected, err := s.repo.UpdateImage(ctx, tx, img)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrUnknownImage
		}
		return nil
	case domain.DeleteImage:
		affected, err := s.repo.DeleteImage(ctx, tx, productID, d.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return domain.ErrUnknownImage
		}
		return nil
	default:
		return domain.ErrInvalidImage
	}
}

func (s *Service) applyOptionDirective(ctx context.Context, tx *gorm.DB, productID int64, dir domain.OptionDirective) error {
	switch d := dir.(type) {
	case domain.CreateOption:
		return s.repo.InsertOptions(ctx, tx, s.expandGroup(productID, d.OptionGroup))
	case domain.ReplaceOption:
		existing, err := s.repo.FindOption(ctx, tx, productID, d.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrUnknownOption
		}
		if _, err := s.repo.DeleteOptionGroup(ctx, tx, *existing); err != nil {
			return err
		}
		return s.repo.InsertOptions(ctx, tx, s.expandGroup(productID, inheritGroup(d.OptionGroup, *existing)))
	case domain.DeleteOption:
		existing, err := s.repo.FindOption(ctx, tx, productID, d.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrUnknownOption
		}
		_, err = s.repo.DeleteOptionGroup(ctx, tx, *existing)
		return err
	default:
		return domain.ErrInvalidOption
	}
}

// expandGroup fans an option group out into one row per value.
func (s *Service) expandGroup(productID int64, g domain.OptionGroup) []domain.Option {
	rows := make([]domain.Option, 0, len(g.Values))
	for _, v := range g.Values {
		rows = append(rows, domain.Option{
			ID:        s.genID.Generate().Int64(),
			ProductID: productID,
			Title:     g.Title,
			Shape:     g.Shape,
			Radius:    g.Radius,
			Type:      g.Type,
			Value:     v,
		})
	}
	return rows
}

func inheritGroup(g domain.OptionGroup, existing domain.Option) domain.OptionGroup {
	if g.Title == "" {
		g.Title = existing.Title
	}
	if g.Shape == "" {
		g.Shape = existing.Shape
	}
	if g.Type == "" {
		g.Type = existing.Type
	}
	if g.Radius == nil {
		g.Radius = existing.Radius
	}
	return g
}

func updateFields(req domain.UpdateRequest) (map[string]any, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Slug != nil {
		slugValue := slug.Make(*req.Slug)
		if slugValue == "" {
			return nil, domain.ErrInvalidSlug
		}
		fields["slug"] = slugValue
	}
	if req.Enabled != nil {
		fields["enabled"] = *req.Enabled
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, domain.ErrInvalidStock
		}
		fields["stock"] = *req.Stock
	}
	if req.Description != nil {
		fields["description"] = normalizeDescription(req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		fields["price"] = *req.Price
	}
	if req.PriceWithDiscount != nil {
		if req.PriceWithDiscount.IsNegative() {
			return nil, domain.ErrInvalidPrice
		}
		fields["price_with_discount"] = *req.PriceWithDiscount
	}
	return fields, nil
}

// writeError passes domain and context errors through and wraps anything else as a write failure.
func (s *Service) writeError(ctx context.Context, op string, err error) error {
	if isDomainError(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	s.log.Error("product write failed", zap.String("op", op), zap.Error(err))
	return &domain.WriteError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrUnknownCategory,
		domain.ErrUnknownImage,
		domain.ErrUnknownOption,
		domain.ErrInvalidImage,
		domain.ErrInvalidImageContent,
		domain.ErrInvalidOption,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func normalizeDescription(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseID(id string) (int64, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed.Int64(), nil
}

func uniqueIDs(ids []domain.ID) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		v := id.Int64()
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
