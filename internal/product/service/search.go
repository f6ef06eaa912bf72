package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

var defaultSearchFields = []string{
	"id",
	"enabled",
	"name",
	"slug",
	"stock",
	"description",
	"price",
	"price_with_discount",
	"category_ids",
	"images",
	"options",
}

type computed struct {
	categories bool
	images     bool
	options    bool
}

var allComputed = computed{categories: true, images: true, options: true}

type children struct {
	categories map[int64][]string
	images     map[int64][]domain.ImageResponse
	options    map[int64][]domain.OptionResponse
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	page, err := pagination.NewPage(req.Limit, req.Page, s.storeCfg.Get().Catalog.DefaultSearchLimit)
	if err != nil {
		return nil, err
	}

	fields := defaultSearchFields
	if len(req.Fields) > 0 {
		fields = make([]string, 0, len(req.Fields))
		for _, f := range req.Fields {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
	}

	filter := domain.SearchFilter{
		Match:       req.Match,
		CategoryIDs: req.CategoryIDs,
		Options:     req.Options,
	}
	if lo, hi, ok := parsePriceRange(req.PriceRange); ok {
		filter.PriceMin = &lo
		filter.PriceMax = &hi
	}
	if !page.Unbounded() {
		filter.Limit = page.Limit
		filter.Offset = page.Offset()
	}

	items, total, err := s.repo.Search(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	want := computed{}
	for _, f := range fields {
		switch f {
		case "category_ids":
			want.categories = true
		case "images":
			want.images = true
		case "options":
			want.options = true
		}
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	kids, err := s.loadChildren(ctx, ids, want)
	if err != nil {
		return nil, err
	}

	data := make([]map[string]any, 0, len(items))
	for i := range items {
		data = append(data, s.project(&items[i], kids, fields))
	}

	return &domain.SearchResult{
		Data:  data,
		Total: total,
		Limit: page.Limit,
		Page:  page.Page,
	}, nil
}

// parsePriceRange accepts "min-max". Anything else disables the filter.
func parsePriceRange(raw string) (decimal.Decimal, decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	lo, hi, ok := strings.Cut(raw, "-")
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	minPrice, err := decimal.NewFromString(strings.TrimSpace(lo))
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	maxPrice, err := decimal.NewFromString(strings.TrimSpace(hi))
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, false
	}
	return minPrice, maxPrice, true
}

func (s *Service) loadChildren(ctx context.Context, productIDs []int64, want computed) (children, error) {
	kids := children{
		categories: map[int64][]string{},
		images:     map[int64][]domain.ImageResponse{},
		options:    map[int64][]domain.OptionResponse{},
	}
	if len(productIDs) == 0 {
		return kids, nil
	}

	if want.categories {
		links, err := s.repo.ListCategoryLinks(ctx, s.db, productIDs)
		if err != nil {
			return kids, err
		}
		for _, l := range links {
			kids.categories[l.ProductID] = append(kids.categories[l.ProductID], snowflake.ID(l.CategoryID).String())
		}
	}

	if want.images {
		images, err := s.repo.ListImages(ctx, s.db, productIDs)
		if err != nil {
			return kids, err
		}
		for _, img := range images {
			kids.images[img.ProductID] = append(kids.images[img.ProductID], domain.ImageResponse{ID: snowflake.ID(img.ID).String()})
		}
	}

	if want.options {
		options, err := s.repo.ListOptions(ctx, s.db, productIDs)
		if err != nil {
			return kids, err
		}
		kids.options = groupOptions(options)
	}
	return kids, nil
}

type groupKey struct {
	productID int64
	title     string
	shape     string
	typ       string
}

// groupOptions folds flat option rows back into groups, keeping first-seen order.
func groupOptions(rows []domain.Option) map[int64][]domain.OptionResponse {
	out := map[int64][]domain.OptionResponse{}
	index := map[groupKey]int{}
	for _, row := range rows {
		key := groupKey{row.ProductID, row.Title, row.Shape, row.Type}
		if i, ok := index[key]; ok {
			out[row.ProductID][i].Values = append(out[row.ProductID][i].Values, row.Value)
			continue
		}
		index[key] = len(out[row.ProductID])
		out[row.ProductID] = append(out[row.ProductID], domain.OptionResponse{
			ID:     snowflake.ID(row.ID).String(),
			Title:  row.Title,
			Shape:  row.Shape,
			Radius: row.Radius,
			Type:   row.Type,
			Values: []string{row.Value},
		})
	}
	return out
}

func (s *Service) imageURL(slugValue, imageID string) string {
	return fmt.Sprintf("%s/product/media/product/%s/image/%s", s.mediaURL, slugValue, imageID)
}

func (s *Service) imagesFor(p *domain.Product, kids children) []domain.ImageResponse {
	imgs := make([]domain.ImageResponse, 0, len(kids.images[p.ID]))
	for _, img := range kids.images[p.ID] {
		imgs = append(imgs, domain.ImageResponse{ID: img.ID, Content: s.imageURL(p.Slug, img.ID)})
	}
	return imgs
}

func (s *Service) project(p *domain.Product, kids children, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "id":
			out[f] = snowflake.ID(p.ID).String()
		case "enabled":
			out[f] = p.Enabled
		case "name":
			out[f] = p.Name
		case "slug":
			out[f] = p.Slug
		case "stock":
			out[f] = p.Stock
		case "description":
			out[f] = p.Description
		case "price":
			out[f] = p.Price
		case "price_with_discount":
			out[f] = p.PriceWithDiscount
		case "created_at":
			out[f] = p.CreatedAt
		case "updated_at":
			out[f] = p.UpdatedAt
		case "category_ids":
			out[f] = nonNil(kids.categories[p.ID])
		case "images":
			out[f] = s.imagesFor(p, kids)
		case "options":
			opts := kids.options[p.ID]
			if opts == nil {
				opts = []domain.OptionResponse{}
			}
			out[f] = opts
		}
	}
	return out
}

func (s *Service) toResponse(p *domain.Product, kids children) *domain.Response {
	opts := kids.options[p.ID]
	if opts == nil {
		opts = []domain.OptionResponse{}
	}
	return &domain.Response{
		ID:                snowflake.ID(p.ID).String(),
		Enabled:           p.Enabled,
		Name:              p.Name,
		Slug:              p.Slug,
		Stock:             p.Stock,
		Description:       p.Description,
		Price:             p.Price,
		PriceWithDiscount: p.PriceWithDiscount,
		CategoryIDs:       nonNil(kids.categories[p.ID]),
		Images:            s.imagesFor(p, kids),
		Options:           opts,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
