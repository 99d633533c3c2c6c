package tenantscope

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/query"
)

// compiler turns a query.Where into gorm clause expressions. Relation keys
// become "fk IN (SELECT id FROM parent WHERE ...)" subqueries.
type compiler struct {
	db *gorm.DB
}

// compile returns nil for an empty filter.
func (c compiler) compile(cls tenancy.Classification, w query.Where) (clause.Expression, error) {
	exprs := make([]clause.Expression, 0, len(w))

	for _, key := range w.SortedKeys() {
		value := w[key]

		switch key {
		case query.And, query.Or:
			parts, ok := value.([]query.Where)
			if !ok {
				return nil, fmt.Errorf("%s on %s: expected []query.Where, got %T", key, cls.Entity, value)
			}
			sub := make([]clause.Expression, 0, len(parts))
			for _, part := range parts {
				expr, err := c.compile(cls, part)
				if err != nil {
					return nil, err
				}
				if expr != nil {
					sub = append(sub, expr)
				}
			}
			if expr := combine(key, sub); expr != nil {
				exprs = append(exprs, expr)
			}
			continue
		}

		if rel, ok := cls.Relations[key]; ok {
			expr, err := c.relation(cls, rel, key, value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, expr)
			continue
		}

		column := clause.Column{Table: cls.Table, Name: key}
		switch v := value.(type) {
		case nil:
			exprs = append(exprs, clause.Expr{SQL: "? IS NULL", Vars: []any{column}})
		case query.Where:
			return nil, fmt.Errorf("%s has no relation %q", cls.Entity, key)
		default:
			if values, ok := asSlice(v); ok {
				exprs = append(exprs, clause.IN{Column: column, Values: values})
			} else {
				exprs = append(exprs, clause.Eq{Column: column, Value: v})
			}
		}
	}

	return combine(query.And, exprs), nil
}

func (c compiler) relation(cls tenancy.Classification, rel tenancy.Relation, key string, value any) (clause.Expression, error) {
	nested, ok := value.(query.Where)
	if !ok {
		return nil, fmt.Errorf("relation %s.%s: expected query.Where, got %T", cls.Entity, key, value)
	}
	target, ok := tenancy.Classify(rel.Target)
	if !ok {
		return nil, fmt.Errorf("relation %s.%s: target %s is not classified", cls.Entity, key, rel.Target)
	}

	inner, err := c.compile(target, nested)
	if err != nil {
		return nil, err
	}

	sub := c.db.Session(&gorm.Session{NewDB: true}).Table(target.Table).Select("id")
	if inner != nil {
		sub = sub.Where(inner)
	}

	return clause.Expr{
		SQL:  "? IN (?)",
		Vars: []any{clause.Column{Table: cls.Table, Name: rel.ForeignKey}, sub},
	}, nil
}

// combine avoids single-element OrConditions: gorm joins those to the
// preceding expression with OR instead of AND.
func combine(key string, exprs []clause.Expression) clause.Expression {
	switch len(exprs) {
	case 0:
		return nil
	case 1:
		return exprs[0]
	}
	if key == query.Or {
		return clause.Or(exprs...)
	}
	return clause.And(exprs...)
}

func asSlice(v any) ([]any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
