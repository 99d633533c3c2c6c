// Package subscription models a tenant's billing state and the access
// restrictions derived from it.
package subscription

import (
	"context"
	"time"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusGrace     Status = "GRACE"
	StatusLocked    Status = "LOCKED"
	StatusCancelled Status = "CANCELLED"
)

// DefaultPlan applies when no tenant is in play.
const DefaultPlan = "Starter"

// Subscription is the most recent billing record of a tenant.
type Subscription struct {
	ID          string
	TenantID    string
	PlanName    string
	Status      Status
	GraceEndsAt *time.Time
}

// EffectiveStatus is the status as of now. A grace period that has ended
// reads as LOCKED; the instant graceEndsAt itself is still in grace.
func (s *Subscription) EffectiveStatus(now time.Time) Status {
	if s.Status == StatusGrace && s.GraceEndsAt != nil && now.After(*s.GraceEndsAt) {
		return StatusLocked
	}
	return s.Status
}

// TenantEnforcement is the access state of a tenant at one point in time.
type TenantEnforcement struct {
	TenantID           *string
	SubscriptionStatus Status
	GraceEndsAt        *time.Time
	SystemReadOnly     bool
	AuthVersion        int
	PlanName           string
}

func (e TenantEnforcement) Locked() bool {
	return e.SubscriptionStatus == StatusLocked
}

// Repository reads and corrects subscription rows.
type Repository interface {
	// LatestForTenant returns nil, nil when the tenant has no subscription.
	LatestForTenant(ctx context.Context, tenantID string) (*Subscription, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// SettingsReader exposes platform-wide switches.
type SettingsReader interface {
	SystemReadOnly(ctx context.Context) (bool, error)
}

// TenantReader exposes tenant attributes the resolver surfaces.
type TenantReader interface {
	AuthVersion(ctx context.Context, tenantID string) (int, error)
}
