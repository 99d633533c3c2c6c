// Package feature defines plan-gated capability flags.
package feature

import (
	"context"
	"slices"
	"strings"
)

const (
	KeyMessaging = "messaging"
	KeyLeave     = "leave"
	KeyReports   = "reports"
	KeySales     = "sales"
)

// Flag gates one capability. Empty Plans means every plan.
type Flag struct {
	Key             string
	Enabled         bool
	Plans           []string
	TenantOverrides map[string]bool
}

// Allows evaluates an existing flag. A disabled flag stays off whatever the
// overrides say; otherwise a tenant override beats the plan restriction.
func (f *Flag) Allows(tenantID *string, plan string) bool {
	if !f.Enabled {
		return false
	}
	if tenantID != nil {
		if v, ok := f.TenantOverrides[*tenantID]; ok {
			return v
		}
	}
	if len(f.Plans) > 0 && !slices.Contains(f.Plans, plan) {
		return false
	}
	return true
}

// Repository loads flags.
type Repository interface {
	// Get returns nil, nil when no flag with key exists.
	Get(ctx context.Context, key string) (*Flag, error)
}

var pathPrefixes = []struct {
	prefix string
	key    string
}{
	{"/api/messages", KeyMessaging},
	{"/api/leave-requests", KeyLeave},
	{"/api/reports", KeyReports},
	{"/api/sales", KeySales},
}

// KeyForPath returns the feature a route path belongs to, or "" for
// ungated paths.
func KeyForPath(path string) string {
	for _, p := range pathPrefixes {
		if path == p.prefix || strings.HasPrefix(path, p.prefix+"/") {
			return p.key
		}
	}
	return ""
}
