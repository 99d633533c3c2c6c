package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	appfeature "github.com/retailhub/retailhub/internal/application/feature"
	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/domain/identity"
	"github.com/retailhub/retailhub/internal/domain/subscription"
	"github.com/retailhub/retailhub/internal/infrastructure/ratelimit"
	"github.com/retailhub/retailhub/internal/infrastructure/tenantscope"
	"github.com/retailhub/retailhub/internal/shared/authorization"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/errors"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// DefaultRule applies to routes whose policy names no rate limit.
var DefaultRule = ratelimit.Rule{KeyPrefix: "api", Window: time.Minute, Max: 120}

// Policy is the declarative guard of one route.
type Policy struct {
	// Route is used to derive the feature key. Defaults to the matched gin route.
	Route        string
	AllowedRoles []authorization.UserRole
	// RequireShop rejects callers with neither a shopId parameter nor a
	// default shop.
	RequireShop                 bool
	RateLimit                   *ratelimit.Rule
	AllowWhenSubscriptionLocked bool
	// FeatureKey overrides the key derived from Route.
	FeatureKey string
}

// RequestContext is what a protected handler receives.
type RequestContext struct {
	RequestID   string
	ClientIP    string
	Identity    *identity.Identity
	TenantID    *string
	ShopID      *string
	Enforcement subscription.TenantEnforcement
	DB          *tenantscope.Accessor
	Logger      logger.Interface
}

// HandlerFunc is a route handler behind the protection pipeline. A returned
// error is rendered by ErrorHandler.
type HandlerFunc func(c *gin.Context, rc *RequestContext) error

// SessionSource resolves the session of a request. It returns nil, nil when
// there is none.
type SessionSource interface {
	Session(c *gin.Context) (*identity.Session, error)
}

type EnforcementResolver interface {
	Resolve(ctx context.Context, tenantID *string) (subscription.TenantEnforcement, error)
}

type FeatureChecker interface {
	Check(ctx context.Context, c appfeature.Check) (bool, error)
}

// ProtectorDeps are the collaborators of the pipeline, in the order it
// consults them.
type ProtectorDeps struct {
	Sessions    SessionSource
	Identities  identity.Repository
	Enforcement EnforcementResolver
	Features    FeatureChecker
	Limiter     ratelimit.Limiter
	Shops       identity.ShopRepository
	DB          *gorm.DB
	DefaultRule ratelimit.Rule
	Logger      logger.Interface
}

// Protector runs the request protection pipeline in front of route handlers.
type Protector struct {
	ProtectorDeps
}

func NewProtector(deps ProtectorDeps) *Protector {
	if deps.DefaultRule.KeyPrefix == "" {
		deps.DefaultRule = DefaultRule
	}
	return &Protector{ProtectorDeps: deps}
}

// Protect wraps h. Any failed step aborts with its error and skips the rest.
func (p *Protector) Protect(policy Policy, h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, err := p.authorize(c, policy)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(constants.ContextKeyRequestContext, rc)

		if err := h(c, rc); err != nil {
			_ = c.Error(err)
			c.Abort()
		}
	}
}

func (p *Protector) authorize(c *gin.Context, policy Policy) (*RequestContext, error) {
	ctx := c.Request.Context()

	// 1. correlation
	requestID := RequestIDFrom(c)
	clientIP := c.ClientIP()

	// 2. session
	session, err := p.Sessions.Session(c)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if session == nil || session.Email == "" {
		return nil, errors.NewUnauthorizedError(constants.ErrMsgUnauthorized)
	}

	// 3. identity
	ident, err := p.Identities.FindByEmail(ctx, session.Email)
	if err != nil {
		return nil, fmt.Errorf("load identity: %w", err)
	}
	if ident == nil {
		return nil, errors.NewUnauthorizedError(constants.ErrMsgUnauthorized)
	}
	c.Set(constants.ContextKeyUserID, ident.ID)
	superAdmin := ident.IsSuperAdmin()

	// 4. role
	if len(policy.AllowedRoles) > 0 && !ident.Role.In(policy.AllowedRoles...) {
		return nil, errors.NewForbiddenError("role not allowed for this route")
	}

	// 5. tenant status
	if !superAdmin && ident.TenantInactive() {
		return nil, errors.NewForbiddenError("tenant is not active")
	}

	// 6. subscription and platform switches
	enforcement, err := p.Enforcement.Resolve(ctx, ident.TenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant enforcement: %w", err)
	}
	if !superAdmin {
		if enforcement.Locked() && !policy.AllowWhenSubscriptionLocked {
			return nil, errors.NewForbiddenError("subscription is locked")
		}
		if enforcement.SystemReadOnly && !isReadMethod(c.Request.Method) {
			return nil, errors.NewForbiddenError("system is in read-only mode")
		}
	}

	// 7. feature gate
	if ident.TenantID != nil {
		key := policy.FeatureKey
		if key == "" {
			key = feature.KeyForPath(p.route(c, policy))
		}
		if key != "" {
			allowed, err := p.Features.Check(ctx, appfeature.Check{
				FeatureKey: key,
				TenantID:   ident.TenantID,
				Plan:       enforcement.PlanName,
			})
			if err != nil {
				return nil, fmt.Errorf("check feature %s: %w", key, err)
			}
			if !allowed {
				return nil, errors.NewForbiddenError(fmt.Sprintf("feature %s is not available on your plan", key))
			}
		}
	}

	// 8. rate limit
	rule := p.DefaultRule
	if policy.RateLimit != nil {
		rule = *policy.RateLimit
	}
	res, err := p.Limiter.Check(ctx, rule, ident.ID)
	if err != nil {
		// Fail open when the limiter backend errors.
		p.Logger.Warnw("rate limiter unavailable, allowing request",
			"request_id", requestID, "user_id", ident.ID, "error", err)
	} else if !res.Allowed {
		return nil, errors.NewRateLimitedError(constants.ErrMsgRateLimited, res.RetryAfter)
	}

	// 9. shop scope
	shopID := c.Query(constants.QueryParamShopID)
	if shopID == "" && ident.DefaultShopID != nil {
		shopID = *ident.DefaultShopID
	}
	if shopID == "" && policy.RequireShop {
		return nil, errors.NewForbiddenError("a shop is required for this route")
	}

	// 10. shop ownership
	if shopID != "" && !superAdmin {
		owner, found, err := p.Shops.TenantOfShop(ctx, shopID)
		if err != nil {
			return nil, fmt.Errorf("resolve shop %s: %w", shopID, err)
		}
		if !found || ident.TenantID == nil || owner != *ident.TenantID {
			return nil, errors.NewForbiddenError("shop does not belong to your tenant")
		}
	}

	// 11. context
	log := p.Logger.With(
		"request_id", requestID,
		"user_id", ident.ID,
		"tenant_id", derefOrEmpty(ident.TenantID),
	)
	rc := &RequestContext{
		RequestID:   requestID,
		ClientIP:    clientIP,
		Identity:    ident,
		TenantID:    ident.TenantID,
		Enforcement: enforcement,
		DB:          tenantscope.New(p.DB, ident.TenantID, ident.Role, log),
		Logger:      log,
	}
	if shopID != "" {
		rc.ShopID = &shopID
	}

	log.Infow("access granted",
		"method", c.Request.Method,
		"route", p.route(c, policy),
		"client_ip", clientIP,
	)
	return rc, nil
}

func (p *Protector) route(c *gin.Context, policy Policy) string {
	if policy.Route != "" {
		return policy.Route
	}
	if full := c.FullPath(); full != "" {
		return full
	}
	return c.Request.URL.Path
}

func isReadMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetRequestContext returns the context Protect stored on c.
func GetRequestContext(c *gin.Context) (*RequestContext, bool) {
	v, ok := c.Get(constants.ContextKeyRequestContext)
	if !ok {
		return nil, false
	}
	rc, ok := v.(*RequestContext)
	return rc, ok
}
