package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/mes/backend/internal/domain/shared"
	"github.com/mes/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CrudOptions describes how a table is searched, filtered and sorted
type CrudOptions struct {
	// SearchColumns are matched case-insensitively with LIKE against Filter.Search
	SearchColumns []string
	// StatusColumn receives Filter.Status (default "status")
	StatusColumn string
	// DateColumn receives Filter.FromDate / Filter.ToDate
	DateColumn string
	// SortFields whitelists Filter.OrderBy
	SortFields map[string]bool
	// DefaultOrder is used when Filter.OrderBy is empty or not allowed
	DefaultOrder string
	// Preloads are associations loaded with every read
	Preloads []string
}

// GormCrudRepository is the generic plant-scoped CRUD repository shared by every
// MES table. Module repositories embed it and add their own queries.
type GormCrudRepository[T any] struct {
	db   *gorm.DB
	opts CrudOptions
}

// NewGormCrudRepository creates a new GormCrudRepository
func NewGormCrudRepository[T any](db *gorm.DB, opts CrudOptions) *GormCrudRepository[T] {
	if opts.StatusColumn == "" {
		opts.StatusColumn = "status"
	}
	if opts.SortFields == nil {
		opts.SortFields = CommonSortFields
	}
	if opts.DefaultOrder == "" {
		opts.DefaultOrder = "created_at DESC"
	}
	return &GormCrudRepository[T]{db: db, opts: opts}
}

// Conn returns the connection bound to ctx; inside a transaction scope this is the tx
func (r *GormCrudRepository[T]) Conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// Scoped returns a query on T narrowed to the actor's tenant, with preloads applied
func (r *GormCrudRepository[T]) Scoped(ctx context.Context, scope shared.Actor) *gorm.DB {
	return r.withPreloads(r.plain(ctx, scope))
}

func (r *GormCrudRepository[T]) plain(ctx context.Context, scope shared.Actor) *gorm.DB {
	return r.db.WithContext(ctx).Model(new(T)).Scopes(tenant.Scope(scope))
}

func (r *GormCrudRepository[T]) withPreloads(q *gorm.DB) *gorm.DB {
	for _, p := range r.opts.Preloads {
		q = q.Preload(p)
	}
	return q
}

// FindByID finds a live row by id
func (r *GormCrudRepository[T]) FindByID(ctx context.Context, scope shared.Actor, id uuid.UUID) (*T, error) {
	var entity T
	if err := r.Scoped(ctx, scope).Where("id = ?", id).First(&entity).Error; err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

// FindOne finds the first live row matching conds
func (r *GormCrudRepository[T]) FindOne(ctx context.Context, scope shared.Actor, conds shared.Conds) (*T, error) {
	var entity T
	if err := applyConds(r.Scoped(ctx, scope), conds).First(&entity).Error; err != nil {
		return nil, translateError(err)
	}
	return &entity, nil
}

// FindAll returns every live row matching conds in the given order
func (r *GormCrudRepository[T]) FindAll(ctx context.Context, scope shared.Actor, conds shared.Conds, order string) ([]T, error) {
	var items []T
	q := applyConds(r.Scoped(ctx, scope), conds)
	if order != "" {
		q = q.Order(order)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// List returns one page of live rows and the total count matching the filter
func (r *GormCrudRepository[T]) List(ctx context.Context, scope shared.Actor, filter shared.Filter) ([]T, int64, error) {
	f := filter.Normalized()
	q := r.ApplyFilter(r.plain(ctx, scope), f).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []T
	if err := r.withPreloads(q).Order(r.orderClause(f)).Offset(f.Offset()).Limit(f.Limit).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ApplyFilter adds search, status, date range and equality conditions
func (r *GormCrudRepository[T]) ApplyFilter(q *gorm.DB, f shared.Filter) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" && len(r.opts.SearchColumns) > 0 {
		pattern := "%" + strings.ToLower(s) + "%"
		parts := make([]string, len(r.opts.SearchColumns))
		args := make([]any, len(r.opts.SearchColumns))
		for i, col := range r.opts.SearchColumns {
			parts[i] = fmt.Sprintf("LOWER(%s) LIKE ?", col)
			args[i] = pattern
		}
		q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	if f.Status != "" {
		q = q.Where(clause.Eq{Column: clause.Column{Name: r.opts.StatusColumn}, Value: f.Status})
	}
	if r.opts.DateColumn != "" {
		if f.FromDate != nil {
			q = q.Where(clause.Gte{Column: clause.Column{Name: r.opts.DateColumn}, Value: *f.FromDate})
		}
		if f.ToDate != nil {
			q = q.Where(clause.Lte{Column: clause.Column{Name: r.opts.DateColumn}, Value: *f.ToDate})
		}
	}
	return applyConds(q, f.Filters)
}

func (r *GormCrudRepository[T]) orderClause(f shared.Filter) string {
	if order := sortClause(f.OrderBy, f.OrderDir, r.opts.SortFields); order != "" {
		return order
	}
	return r.opts.DefaultOrder
}

// Create inserts a new row
func (r *GormCrudRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entity).Error
}

// CreateWithAssociations inserts a row together with its has-many children
func (r *GormCrudRepository[T]) CreateWithAssociations(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// Save updates all columns of an existing row; associations are not touched
func (r *GormCrudRepository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(entity).Error
}

// SoftDelete records the actor in updated_by and sets deleted_at
func (r *GormCrudRepository[T]) SoftDelete(ctx context.Context, scope shared.Actor, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(new(T)).Scopes(tenant.Scope(scope)).
		Where("id = ?", id).
		Update("updated_by", scope.UserID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return r.db.WithContext(ctx).Scopes(tenant.Scope(scope)).Where("id = ?", id).Delete(new(T)).Error
}

// Exists reports whether a live row matches conds, ignoring excludeID
func (r *GormCrudRepository[T]) Exists(ctx context.Context, scope shared.Actor, conds shared.Conds, excludeID *uuid.UUID) (bool, error) {
	q := applyConds(r.plain(ctx, scope), conds)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyConds adds equality conditions in a stable column order
func applyConds(q *gorm.DB, conds shared.Conds) *gorm.DB {
	if len(conds) == 0 {
		return q
	}
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q = q.Where(clause.Eq{Column: clause.Column{Name: k}, Value: conds[k]})
	}
	return q
}

// translateError maps gorm's not-found error to the domain sentinel
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
