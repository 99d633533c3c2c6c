package tenancy

import "github.com/retailhub/retailhub/internal/shared/query"

// Operation names a data operation passing through the scoped accessor.
type Operation string

const (
	OpFindMany   Operation = "find_many"
	OpFindFirst  Operation = "find_first"
	OpFindUnique Operation = "find_unique"
	OpCount      Operation = "count"
	OpAggregate  Operation = "aggregate"
	OpGroupBy    Operation = "group_by"
	OpUpdateMany Operation = "update_many"
	OpDeleteMany Operation = "delete_many"
	OpCreate     Operation = "create"
	OpCreateMany Operation = "create_many"
	// OpUpdate and OpDelete act on one row by primary key and are never scoped.
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Filtered reports whether op receives tenant filter injection.
func (op Operation) Filtered() bool {
	switch op {
	case OpFindMany, OpFindFirst, OpFindUnique, OpCount, OpAggregate, OpGroupBy, OpUpdateMany, OpDeleteMany:
		return true
	}
	return false
}

// TenantFilter builds the filter confining c to tenantID. It returns nil for
// route-scoped and unclassified entities.
func TenantFilter(c Classification, tenantID string) query.Where {
	switch c.Kind {
	case KindSelfTenanted, KindAlternateKey:
		return query.Where{c.TenantColumn: tenantID}
	case KindShopOwned, KindUserOwned:
		return nest(c.TenantPath, tenantID)
	case KindTwoParty:
		return query.AnyOf(nest(c.Parties[0], tenantID), nest(c.Parties[1], tenantID))
	default:
		return nil
	}
}

// nest wraps {tenant_id: id} in one level per relation hop, innermost last.
func nest(path Path, tenantID string) query.Where {
	w := query.Where{tenantColumn: tenantID}
	for i := len(path) - 1; i >= 0; i-- {
		w = query.Where{path[i]: w}
	}
	return w
}

// MergeFilter rewrites filter for op so that it only matches rows of tenantID.
//
// Unique lookups merge by shallow spread because their filter must keep the
// unique-identifying fields at the top level. Every other filtered operation
// wraps both filters in a conjunction. Operations outside the read family and
// entities without a tenant filter get the caller's filter back unchanged.
func MergeFilter(op Operation, entity Entity, filter query.Where, tenantID string) query.Where {
	if !op.Filtered() {
		return filter
	}
	c, ok := Classify(entity)
	if !ok {
		return filter
	}
	tf := TenantFilter(c, tenantID)
	if tf == nil {
		return filter
	}
	if op == OpFindUnique {
		return filter.Spread(tf)
	}
	return query.AllOf(filter, tf)
}
