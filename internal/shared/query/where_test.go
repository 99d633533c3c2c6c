package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllOf(t *testing.T) {
	status := Where{"status": "active"}
	tenant := Where{"tenant_id": "org_1"}

	assert.Equal(t, Where{And: []Where{status, tenant}}, AllOf(status, tenant))
	assert.Equal(t, tenant, AllOf(Where{}, tenant))
	assert.Equal(t, Where{}, AllOf())
}

func TestSpread_DoesNotMutateReceiver(t *testing.T) {
	base := Where{"id": "sale_1"}
	merged := base.Spread(Where{"tenant_id": "org_1"})

	assert.Equal(t, Where{"id": "sale_1", "tenant_id": "org_1"}, merged)
	assert.Equal(t, Where{"id": "sale_1"}, base)
	assert.False(t, merged.HasCombinator())
}

func TestHasCombinator(t *testing.T) {
	assert.True(t, AnyOf(Where{"a": 1}).HasCombinator())
	assert.True(t, Where{And: []Where{}}.HasCombinator())
	assert.False(t, Where{"a": 1}.HasCombinator())
}

func TestPageFilter(t *testing.T) {
	f := PageFilter{Page: 3, PageSize: 10}
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, 10, f.Limit())
	assert.Equal(t, 100, PageFilter{PageSize: 500}.Limit())
	assert.Equal(t, 0, PageFilter{}.Offset())
}

func TestSortFilter_OrderClause(t *testing.T) {
	assert.Equal(t, "", SortFilter{}.OrderClause())
	assert.Equal(t, "created_at DESC", SortFilter{SortBy: "created_at", SortOrder: "desc"}.OrderClause())
	assert.Equal(t, "name ASC", SortFilter{SortBy: "name"}.OrderClause())
}
