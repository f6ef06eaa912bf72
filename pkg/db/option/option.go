package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// Sort is an already-validated ORDER BY clause.
type Sort struct {
	Column    string
	Direction string
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func WithOffset(offset int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if offset <= 0 {
			return db
		}
		return db.Offset(offset)
	})
}

// WithPage applies limit/offset for 1-based pages. A negative limit disables paging.
func WithPage(limit, page int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit < 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Limit(limit).Offset((page - 1) * limit)
	})
}

func WithWhere(query string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

func WithSelect(columns ...string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if len(columns) == 0 {
			return db
		}
		return db.Select(columns)
	})
}

func WithSortBy(sort Sort) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if sort.Column == "" {
			return db
		}
		return db.Order(fmt.Sprintf("%s %s", sort.Column, sort.Direction))
	})
}

// WithQuerySortBy resolves user supplied sort input against an allow-list.
// Unknown columns fall back to id ascending.
func WithQuerySortBy(sortBy, orderBy string, allowed map[string]bool) Sort {
	column := strings.ToLower(strings.TrimSpace(sortBy))
	if column == "" || !allowed[column] {
		column = "id"
	}

	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(orderBy), "desc") {
		direction = "DESC"
	}

	return Sort{Column: column, Direction: direction}
}
