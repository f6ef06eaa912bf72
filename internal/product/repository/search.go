package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search returns one page of products matching filter and the distinct total before paging.
// Every filter is an EXISTS subquery so child rows never multiply the product rows.
func (r *repo) Search(ctx context.Context, db *gorm.DB, filter domain.SearchFilter) ([]domain.Product, int64, error) {
	base := func() *gorm.DB {
		return applySearchFilter(db.WithContext(ctx).Table("products AS p"), filter)
	}

	var total int64
	if err := base().Distinct("p.id").Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Product
	if total == 0 {
		return items, 0, nil
	}

	stmt := base().Select("p.*")
	stmt = option.WithSortBy(option.Sort{Column: "p.id", Direction: "ASC"}).Apply(stmt)
	if filter.Limit > 0 {
		stmt = option.WithLimit(filter.Limit).Apply(stmt)
		stmt = option.WithOffset(filter.Offset).Apply(stmt)
	}
	if err := stmt.Scan(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func applySearchFilter(stmt *gorm.DB, filter domain.SearchFilter) *gorm.DB {
	if match := strings.TrimSpace(filter.Match); match != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(match)) + "%"
		stmt = stmt.Where(
			`(LOWER(p.name) LIKE ? ESCAPE '!' OR LOWER(COALESCE(p.description, '')) LIKE ? ESCAPE '!')`,
			pattern,
			pattern,
		)
	}

	if filter.PriceMin != nil && filter.PriceMax != nil {
		stmt = stmt.Where("p.price BETWEEN ? AND ?", *filter.PriceMin, *filter.PriceMax)
	}

	if len(filter.CategoryIDs) > 0 {
		stmt = stmt.Where(
			`EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id IN ?)`,
			filter.CategoryIDs,
		)
	}

	// Groups are AND-ed; values inside a group are OR-ed. A group is identified by the
	// title of the referenced option row.
	for _, opt := range filter.Options {
		if len(opt.Values) == 0 {
			continue
		}
		stmt = stmt.Where(
			`EXISTS (
				SELECT 1 FROM product_options po
				WHERE po.product_id = p.id
				  AND po.value IN ?
				  AND po.title = (SELECT ref.title FROM product_options ref WHERE ref.id = ?)
			)`,
			opt.Values,
			opt.OptionID,
		)
	}

	return stmt
}
