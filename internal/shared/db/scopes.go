// Package db provides database utilities including transaction management and query scopes.
package db

import (
	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/shared/query"
)

// Paginate is a GORM scope applying limit/offset when a page size is set.
//
// Example usage:
//
//	db.Scopes(db.Paginate(opts.PageFilter)).Find(&rows)
func Paginate(f query.PageFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.PageSize <= 0 {
			return db
		}
		return db.Offset(f.Offset()).Limit(f.Limit())
	}
}

// OrderBy is a GORM scope applying the sort filter, if any.
// SortBy must come from a server-side allow-list, never raw user input.
func OrderBy(f query.SortFilter) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if clause := f.OrderClause(); clause != "" {
			return db.Order(clause)
		}
		return db
	}
}
