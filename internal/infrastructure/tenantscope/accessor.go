// Package tenantscope provides a data-access handle that confines every
// query and create to a single tenant.
//
// Two behaviours are deliberate and easy to misuse:
//
//   - An entity type missing from the tenancy classification table gets NO
//     automatic filter. Adding a model without classifying it silently drops
//     tenant isolation for it.
//   - Update and Delete by primary key are never scoped. The route handler
//     must have verified ownership (for example with FindUnique) first.
package tenantscope

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/authorization"
	shareddb "github.com/retailhub/retailhub/internal/shared/db"
	"github.com/retailhub/retailhub/internal/shared/logger"
	"github.com/retailhub/retailhub/internal/shared/query"
)

var schemaCache sync.Map

// Accessor is a tenant-scoped data-access handle. The zero tenant means raw,
// unscoped access.
type Accessor struct {
	db       *gorm.DB
	tenantID string
	logger   logger.Interface
}

// New returns an accessor for the caller. A nil tenant yields raw access.
// That is expected for super admins; for any other role the caller sees all
// tenants, so it is logged.
func New(db *gorm.DB, tenantID *string, role authorization.UserRole, log logger.Interface) *Accessor {
	a := &Accessor{db: db, logger: log}
	if tenantID == nil || *tenantID == "" {
		if !role.IsSuperAdmin() {
			log.Warnw("tenantless caller received unscoped data access", "role", role)
		}
		return a
	}
	a.tenantID = *tenantID
	return a
}

// Scoped reports whether tenant filters are applied.
func (a *Accessor) Scoped() bool {
	return a.tenantID != ""
}

// TenantID returns the tenant the accessor is confined to, or "".
func (a *Accessor) TenantID() string {
	return a.tenantID
}

// Raw returns the unscoped handle, joined to any transaction in ctx.
// Route-scoped entities are read through it and filtered by hand.
func (a *Accessor) Raw(ctx context.Context) *gorm.DB {
	return shareddb.GetTxFromContext(ctx, a.db)
}

// Transaction runs fn with a context carrying one database transaction that
// every accessor call made with that context joins.
func (a *Accessor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return shareddb.NewTransactionManager(a.db).RunInTransaction(ctx, fn)
}

// FindMany loads every row of dest's entity matching where into dest (a slice pointer).
func (a *Accessor) FindMany(ctx context.Context, dest any, where query.Where, opts ...query.FindOption) error {
	o := query.NewFindOptions(opts...)
	tx, err := a.scoped(ctx, tenancy.OpFindMany, dest, where)
	if err != nil {
		return err
	}
	return tx.Scopes(shareddb.OrderBy(o.SortFilter), shareddb.Paginate(o.PageFilter)).Find(dest).Error
}

// FindFirst loads the first matching row. It returns gorm.ErrRecordNotFound
// when nothing matches.
func (a *Accessor) FindFirst(ctx context.Context, dest any, where query.Where) error {
	tx, err := a.scoped(ctx, tenancy.OpFindFirst, dest, where)
	if err != nil {
		return err
	}
	return tx.Take(dest).Error
}

// FindUnique loads the row identified by the unique fields in where.
// The tenant filter is spread into where, not AND-wrapped.
func (a *Accessor) FindUnique(ctx context.Context, dest any, where query.Where) error {
	tx, err := a.scoped(ctx, tenancy.OpFindUnique, dest, where)
	if err != nil {
		return err
	}
	return tx.Take(dest).Error
}

// Count counts rows of model's entity matching where.
func (a *Accessor) Count(ctx context.Context, model tenancy.Model, where query.Where) (int64, error) {
	tx, err := a.scoped(ctx, tenancy.OpCount, model, where)
	if err != nil {
		return 0, err
	}
	var count int64
	err = tx.Count(&count).Error
	return count, err
}

// Aggregate scans selectExpr (for example "SUM(total_cents) AS total") over
// matching rows into dest.
func (a *Accessor) Aggregate(ctx context.Context, model tenancy.Model, where query.Where, selectExpr string, dest any) error {
	tx, err := a.scoped(ctx, tenancy.OpAggregate, model, where)
	if err != nil {
		return err
	}
	return tx.Select(selectExpr).Scan(dest).Error
}

// GroupBy scans selectExpr grouped by columns into dest.
func (a *Accessor) GroupBy(ctx context.Context, model tenancy.Model, where query.Where, columns []string, selectExpr string, dest any) error {
	tx, err := a.scoped(ctx, tenancy.OpGroupBy, model, where)
	if err != nil {
		return err
	}
	for _, col := range columns {
		tx = tx.Group(col)
	}
	return tx.Select(selectExpr).Scan(dest).Error
}

// UpdateMany applies values to every matching row.
func (a *Accessor) UpdateMany(ctx context.Context, model tenancy.Model, where query.Where, values map[string]any) (int64, error) {
	tx, err := a.scoped(ctx, tenancy.OpUpdateMany, model, where)
	if err != nil {
		return 0, err
	}
	res := tx.Updates(values)
	return res.RowsAffected, res.Error
}

// DeleteMany deletes every matching row.
func (a *Accessor) DeleteMany(ctx context.Context, model tenancy.Model, where query.Where) (int64, error) {
	tx, err := a.scoped(ctx, tenancy.OpDeleteMany, model, where)
	if err != nil {
		return 0, err
	}
	res := tx.Delete(model)
	return res.RowsAffected, res.Error
}

// Create inserts value, filling in the tenant when the payload names none.
func (a *Accessor) Create(ctx context.Context, value tenancy.Model) error {
	if err := a.injectTenant(ctx, value); err != nil {
		return err
	}
	return a.Raw(ctx).Create(value).Error
}

// CreateMany inserts a slice of models, filling in the tenant per element.
func (a *Accessor) CreateMany(ctx context.Context, values any) error {
	if err := a.injectTenant(ctx, values); err != nil {
		return err
	}
	return a.Raw(ctx).Create(values).Error
}

// Update applies values to the row with primary key id. NOT tenant scoped:
// ownership must already be verified by the caller.
func (a *Accessor) Update(ctx context.Context, model tenancy.Model, id string, values map[string]any) (int64, error) {
	res := a.Raw(ctx).Model(model).Where("id = ?", id).Updates(values)
	return res.RowsAffected, res.Error
}

// Delete removes the row with primary key id. NOT tenant scoped:
// ownership must already be verified by the caller.
func (a *Accessor) Delete(ctx context.Context, model tenancy.Model, id string) (int64, error) {
	res := a.Raw(ctx).Where("id = ?", id).Delete(model)
	return res.RowsAffected, res.Error
}

// scoped builds the statement for a read-family operation on value's entity.
func (a *Accessor) scoped(ctx context.Context, op tenancy.Operation, value any, where query.Where) (*gorm.DB, error) {
	tx := a.Raw(ctx).Model(value)

	cls, ok := a.classify(value)
	if ok && a.Scoped() {
		where = tenancy.MergeFilter(op, cls.Entity, where, a.tenantID)
	}

	expr, err := compiler{db: a.db}.compile(cls, where)
	if err != nil {
		return nil, err
	}
	if expr != nil {
		tx = tx.Where(expr)
	}
	return tx, nil
}

// classify resolves value (a model, model pointer or slice of either).
// Unclassified values fail open with a warning.
func (a *Accessor) classify(value any) (tenancy.Classification, bool) {
	entity, ok := entityOf(value)
	if !ok {
		if a.Scoped() {
			a.logger.Warnw("model has no tenant classification, query is NOT tenant scoped",
				"model", fmt.Sprintf("%T", value), "tenant_id", a.tenantID)
		}
		return tenancy.Classification{}, false
	}
	cls, ok := tenancy.Classify(entity)
	if !ok {
		if a.Scoped() {
			a.logger.Warnw("entity has no tenant classification, query is NOT tenant scoped",
				"entity", entity, "tenant_id", a.tenantID)
		}
		return tenancy.Classification{}, false
	}
	return cls, true
}

func entityOf(value any) (tenancy.Entity, bool) {
	if m, ok := value.(tenancy.Model); ok {
		return m.ScopeEntity(), true
	}
	t := reflect.TypeOf(value)
	for t != nil && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return "", false
	}
	if m, ok := reflect.New(t).Interface().(tenancy.Model); ok {
		return m.ScopeEntity(), true
	}
	return "", false
}

// injectTenant sets the tenant column on value (a model pointer or a slice of
// models) unless the tenant column or the tenant association is already set.
func (a *Accessor) injectTenant(ctx context.Context, value any) error {
	if !a.Scoped() {
		return nil
	}
	cls, ok := a.classify(value)
	if !ok || !cls.InjectsOnCreate() {
		return nil
	}

	s, err := schema.Parse(value, &schemaCache, a.db.NamingStrategy)
	if err != nil {
		return fmt.Errorf("parse schema for %s: %w", cls.Entity, err)
	}
	field := s.LookUpField(cls.TenantColumn)
	if field == nil {
		return fmt.Errorf("%s has no %s field", cls.Entity, cls.TenantColumn)
	}
	var relField *schema.Field
	if rel, ok := s.Relationships.Relations[cls.TenantRelation]; ok {
		relField = rel.Field
	}

	apply := func(rv reflect.Value) error {
		if _, zero := field.ValueOf(ctx, rv); !zero {
			return nil
		}
		if relField != nil {
			if _, zero := relField.ValueOf(ctx, rv); !zero {
				return nil
			}
		}
		if field.FieldType.Kind() == reflect.Pointer {
			tenantID := a.tenantID
			return field.Set(ctx, rv, &tenantID)
		}
		return field.Set(ctx, rv, a.tenantID)
	}

	rv := reflect.Indirect(reflect.ValueOf(value))
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			if err := apply(reflect.Indirect(rv.Index(i))); err != nil {
				return err
			}
		}
		return nil
	}
	return apply(rv)
}
