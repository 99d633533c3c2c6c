// Package feature decides whether a plan-gated capability is available.
package feature

import (
	"context"
	"fmt"

	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// Check is one feature gate question.
type Check struct {
	FeatureKey string
	TenantID   *string
	Plan       string
}

type Gate struct {
	flags  feature.Repository
	logger logger.Interface
}

func NewGate(flags feature.Repository, logger logger.Interface) *Gate {
	return &Gate{flags: flags, logger: logger}
}

// Check reports whether the feature is available. Features without a flag
// record are available to everyone.
func (g *Gate) Check(ctx context.Context, c Check) (bool, error) {
	flag, err := g.flags.Get(ctx, c.FeatureKey)
	if err != nil {
		return false, fmt.Errorf("load feature flag %s: %w", c.FeatureKey, err)
	}
	if flag == nil {
		g.logger.Debugw("feature flag not provisioned, allowing", "feature", c.FeatureKey)
		return true, nil
	}
	return flag.Allows(c.TenantID, c.Plan), nil
}
