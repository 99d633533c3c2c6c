package dto

type SetReadOnlyRequest struct {
	ReadOnly *bool `json:"read_only" binding:"required"`
}

type FeatureFlagRequest struct {
	Enabled         bool            `json:"enabled"`
	Plans           []string        `json:"plans"`
	TenantOverrides map[string]bool `json:"tenant_overrides"`
}
