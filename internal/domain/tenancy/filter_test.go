package tenancy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retailhub/retailhub/internal/shared/query"
)

func TestMergeFilter_Conjunction(t *testing.T) {
	got := MergeFilter(OpFindMany, EntityProduct, query.Where{"status": "active"}, "org_1")

	assert.Equal(t, query.Where{
		query.And: []query.Where{
			{"status": "active"},
			{"tenant_id": "org_1"},
		},
	}, got)
}

func TestMergeFilter_UniqueLookupSpreads(t *testing.T) {
	got := MergeFilter(OpFindUnique, EntityShop, query.Where{"id": "shop_1"}, "org_1")

	assert.Equal(t, query.Where{"id": "shop_1", "tenant_id": "org_1"}, got)
	assert.False(t, got.HasCombinator(), "unique lookup filter must not be wrapped in a combinator")
}

func TestMergeFilter_ByKind(t *testing.T) {
	tests := []struct {
		name   string
		entity Entity
		want   query.Where
	}{
		{
			name:   "alternate key",
			entity: EntityAuditLog,
			want:   query.Where{"organization_id": "org_1"},
		},
		{
			name:   "shop owned",
			entity: EntitySale,
			want:   query.Where{"shop": query.Where{"tenant_id": "org_1"}},
		},
		{
			name:   "shop owned two hops",
			entity: EntitySaleItem,
			want:   query.Where{"sale": query.Where{"shop": query.Where{"tenant_id": "org_1"}}},
		},
		{
			name:   "user owned",
			entity: EntityLeaveRequest,
			want:   query.Where{"user": query.Where{"tenant_id": "org_1"}},
		},
		{
			name:   "two party",
			entity: EntityMessage,
			want: query.Where{query.Or: []query.Where{
				{"sender": query.Where{"tenant_id": "org_1"}},
				{"receiver": query.Where{"tenant_id": "org_1"}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeFilter(OpCount, tt.entity, query.Where{}, "org_1"))
		})
	}
}

func TestMergeFilter_NoAutomaticFilter(t *testing.T) {
	filter := query.Where{"key": "messaging"}

	// route-scoped: the handler owns the filter
	assert.Equal(t, filter, MergeFilter(OpFindMany, EntityFeatureFlag, filter, "org_1"))

	// unclassified types fail open; this is deliberate and must stay visible
	assert.Equal(t, filter, MergeFilter(OpFindMany, Entity("invoice"), filter, "org_1"))

	// by-key mutations are never scoped here
	assert.Equal(t, filter, MergeFilter(OpUpdate, EntityProduct, filter, "org_1"))
	assert.Equal(t, filter, MergeFilter(OpDelete, EntityProduct, filter, "org_1"))
}
