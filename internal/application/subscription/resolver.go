// Package subscription resolves the access state a tenant's billing implies.
package subscription

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"

	"github.com/retailhub/retailhub/internal/domain/subscription"
	"github.com/retailhub/retailhub/internal/domain/task"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// Resolver computes TenantEnforcement from stored subscription rows and
// writes back expired grace periods as LOCKED.
type Resolver struct {
	subscriptions subscription.Repository
	settings      subscription.SettingsReader
	tenants       subscription.TenantReader
	jobs          task.Enqueuer
	clock         clock.Clock
	logger        logger.Interface
}

type Option func(*Resolver)

func WithClock(c clock.Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithEnqueuer makes every correction enqueue a billing.sync job.
func WithEnqueuer(e task.Enqueuer) Option {
	return func(r *Resolver) {
		r.jobs = e
	}
}

func NewResolver(
	subscriptions subscription.Repository,
	settings subscription.SettingsReader,
	tenants subscription.TenantReader,
	logger logger.Interface,
	opts ...Option,
) *Resolver {
	r := &Resolver{
		subscriptions: subscriptions,
		settings:      settings,
		tenants:       tenants,
		clock:         clock.New(),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve is ResolveAndCorrect without the correction report.
func (r *Resolver) Resolve(ctx context.Context, tenantID *string) (subscription.TenantEnforcement, error) {
	e, _, err := r.ResolveAndCorrect(ctx, tenantID)
	return e, err
}

// ResolveAndCorrect returns the tenant's enforcement state. corrected is true
// when the stored status was stale and has just been rewritten.
func (r *Resolver) ResolveAndCorrect(ctx context.Context, tenantID *string) (subscription.TenantEnforcement, bool, error) {
	if tenantID == nil || *tenantID == "" {
		return subscription.TenantEnforcement{
			SubscriptionStatus: subscription.StatusActive,
			PlanName:           subscription.DefaultPlan,
		}, false, nil
	}
	id := *tenantID

	readOnly, err := r.settings.SystemReadOnly(ctx)
	if err != nil {
		return subscription.TenantEnforcement{}, false, fmt.Errorf("read system read-only flag: %w", err)
	}
	authVersion, err := r.tenants.AuthVersion(ctx, id)
	if err != nil {
		return subscription.TenantEnforcement{}, false, fmt.Errorf("read auth version of tenant %s: %w", id, err)
	}

	e := subscription.TenantEnforcement{
		TenantID:       tenantID,
		SystemReadOnly: readOnly,
		AuthVersion:    authVersion,
	}

	sub, err := r.subscriptions.LatestForTenant(ctx, id)
	if err != nil {
		return subscription.TenantEnforcement{}, false, fmt.Errorf("load subscription of tenant %s: %w", id, err)
	}
	if sub == nil {
		e.SubscriptionStatus = subscription.StatusLocked
		e.PlanName = subscription.DefaultPlan
		return e, false, nil
	}

	e.PlanName = sub.PlanName
	e.GraceEndsAt = sub.GraceEndsAt
	e.SubscriptionStatus = sub.EffectiveStatus(r.clock.Now())

	if e.SubscriptionStatus == sub.Status {
		return e, false, nil
	}

	if err := r.subscriptions.UpdateStatus(ctx, sub.ID, e.SubscriptionStatus); err != nil {
		return subscription.TenantEnforcement{}, false, fmt.Errorf("correct status of subscription %s: %w", sub.ID, err)
	}
	r.logger.Infow("subscription status corrected",
		"tenant_id", id,
		"subscription_id", sub.ID,
		"from", sub.Status,
		"to", e.SubscriptionStatus,
	)

	if r.jobs != nil {
		payload := task.BillingSync{TenantID: id, Status: string(e.SubscriptionStatus)}
		if _, err := r.jobs.Enqueue(task.TypeBillingSync, payload); err != nil {
			r.logger.Warnw("failed to enqueue billing sync", "tenant_id", id, "error", err)
		}
	}

	return e, true, nil
}
