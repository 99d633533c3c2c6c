package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retailhub/retailhub/internal/shared/authorization"
)

func TestIdentity_TenantInactive(t *testing.T) {
	tenant := "org_1"

	tests := []struct {
		name     string
		identity Identity
		want     bool
	}{
		{"active tenant", Identity{TenantID: &tenant, TenantStatus: TenantStatusActive}, false},
		{"suspended tenant", Identity{TenantID: &tenant, TenantStatus: TenantStatusSuspended}, true},
		{"missing status", Identity{TenantID: &tenant}, true},
		{"tenantless", Identity{Role: authorization.RoleStaff}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.identity.TenantInactive())
		})
	}
}

func TestIdentity_IsSuperAdmin(t *testing.T) {
	assert.True(t, (&Identity{Role: authorization.RoleSuperAdmin}).IsSuperAdmin())
	assert.False(t, (&Identity{Role: authorization.RoleOwner}).IsSuperAdmin())
}
