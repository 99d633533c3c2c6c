package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

type meResponse struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	TenantID           *string    `json:"tenant_id,omitempty"`
	ShopID             *string    `json:"shop_id,omitempty"`
	Plan               string     `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status"`
	GraceEndsAt        *time.Time `json:"grace_ends_at,omitempty"`
	SystemReadOnly     bool       `json:"system_read_only"`
}

// Me describes the caller and the restrictions currently applied to them.
// It stays reachable while the subscription is locked so clients can explain
// why.
func Me(c *gin.Context, rc *middleware.RequestContext) error {
	e := rc.Enforcement
	utils.SuccessResponse(c, http.StatusOK, meResponse{
		ID:                 rc.Identity.ID,
		Email:              rc.Identity.Email,
		Role:               rc.Identity.Role.String(),
		TenantID:           rc.TenantID,
		ShopID:             rc.ShopID,
		Plan:               e.PlanName,
		SubscriptionStatus: string(e.SubscriptionStatus),
		GraceEndsAt:        e.GraceEndsAt,
		SystemReadOnly:     e.SystemReadOnly,
	})
	return nil
}
