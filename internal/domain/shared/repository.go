package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 1000
)

// Conds are column equality conditions used for lookups and uniqueness checks
type Conds map[string]any

// Repository is the base interface for plant-scoped CRUD repositories.
// Soft-deleted rows are never returned.
type Repository[T any] interface {
	FindByID(ctx context.Context, scope Actor, id uuid.UUID) (*T, error)
	FindOne(ctx context.Context, scope Actor, conds Conds) (*T, error)
	List(ctx context.Context, scope Actor, filter Filter) ([]T, int64, error)
	Create(ctx context.Context, entity *T) error
	Save(ctx context.Context, entity *T) error
	// SoftDelete sets deleted_at and records the actor in updated_by
	SoftDelete(ctx context.Context, scope Actor, id uuid.UUID) error
	// Exists reports whether a live row matches conds, ignoring excludeID
	Exists(ctx context.Context, scope Actor, conds Conds, excludeID *uuid.UUID) (bool, error)
}

// ExistsChecker is the part of Repository used for uniqueness checks
type ExistsChecker interface {
	Exists(ctx context.Context, scope Actor, conds Conds, excludeID *uuid.UUID) (bool, error)
}

// EnsureUnique returns an ALREADY_EXISTS error naming field and value when a live
// row other than excludeID matches conds
func EnsureUnique(ctx context.Context, repo ExistsChecker, scope Actor, conds Conds, excludeID *uuid.UUID, field string, value any) error {
	exists, err := repo.Exists(ctx, scope, conds, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return Conflict(field, value)
	}
	return nil
}

// Filter represents query filter options
type Filter struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
	OrderBy  string
	OrderDir string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:    DefaultPage,
		Limit:   DefaultLimit,
		Filters: make(map[string]any),
	}
}

// Normalized returns a copy with page and limit clamped to valid values
func (f Filter) Normalized() Filter {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Filters == nil {
		f.Filters = make(map[string]any)
	}
	return f
}

// Offset returns the row offset of the filter's page
func (f Filter) Offset() int {
	n := f.Normalized()
	return (n.Page - 1) * n.Limit
}

// With returns a copy of the filter with an extra equality condition
func (f Filter) With(column string, value any) Filter {
	out := make(map[string]any, len(f.Filters)+1)
	for k, v := range f.Filters {
		out[k] = v
	}
	out[column] = value
	f.Filters = out
	return f
}

// PageMeta describes a page of results
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// NewPageMeta computes pagination metadata
func NewPageMeta(total int64, page, limit int) PageMeta {
	if page <= 0 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	totalPages := int(total / int64(limit))
	if total%int64(limit) > 0 {
		totalPages++
	}
	return PageMeta{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Page is a page of items with its metadata
type Page[T any] struct {
	Items []T      `json:"data"`
	Meta  PageMeta `json:"meta"`
}

// NewPage creates a page from items and the filter that produced them
func NewPage[T any](items []T, total int64, filter Filter) Page[T] {
	f := filter.Normalized()
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: NewPageMeta(total, f.Page, f.Limit)}
}
