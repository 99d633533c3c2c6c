// Package identity describes the authenticated caller.
package identity

import (
	"context"

	"github.com/retailhub/retailhub/internal/shared/authorization"
)

// TenantStatus is the lifecycle state of the caller's tenant.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Session is what the session store knows about a request.
type Session struct {
	Email string
}

// Identity is rebuilt from the user store on every request and never cached.
type Identity struct {
	ID            string
	Email         string
	Role          authorization.UserRole
	TenantID      *string
	DefaultShopID *string
	// TenantStatus is empty when TenantID is nil.
	TenantStatus TenantStatus
}

func (i *Identity) IsSuperAdmin() bool {
	return i.Role.IsSuperAdmin()
}

// TenantInactive reports whether the caller belongs to a tenant that is not
// active. Tenantless callers are never inactive.
func (i *Identity) TenantInactive() bool {
	return i.TenantID != nil && i.TenantStatus != TenantStatusActive
}

// Repository loads identities from the durable user store.
type Repository interface {
	// FindByEmail returns nil, nil when no user has that email.
	FindByEmail(ctx context.Context, email string) (*Identity, error)
}

// ShopRepository resolves the tenant owning a shop.
type ShopRepository interface {
	// TenantOfShop returns "", false, nil when the shop does not exist.
	TenantOfShop(ctx context.Context, shopID string) (string, bool, error)
}
