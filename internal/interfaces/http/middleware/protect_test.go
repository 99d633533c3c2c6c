package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appfeature "github.com/retailhub/retailhub/internal/application/feature"
	appsubscription "github.com/retailhub/retailhub/internal/application/subscription"
	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/domain/subscription"
	"github.com/retailhub/retailhub/internal/infrastructure/auth"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/infrastructure/ratelimit"
	"github.com/retailhub/retailhub/internal/infrastructure/repository"
	"github.com/retailhub/retailhub/internal/shared/authorization"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/logger"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Check(ctx context.Context, rule ratelimit.Rule, subject string) (ratelimit.Result, error) {
	args := m.Called(ctx, rule, subject)
	return args.Get(0).(ratelimit.Result), args.Error(1)
}

type testServer struct {
	engine   *gin.Engine
	db       *gorm.DB
	jwt      *auth.JWTService
	settings *repository.SystemSettingRepository
	flags    *repository.FeatureFlagRepository
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, db *gorm.DB) {
	rows := []any{
		&models.TenantModel{ID: "org_1", Name: "Acme", Status: models.TenantStatusActive},
		&models.TenantModel{ID: "org_2", Name: "Suspended Co", Status: models.TenantStatusSuspended},
		&models.TenantModel{ID: "org_3", Name: "Locked Co", Status: models.TenantStatusActive},
		&models.TenantModel{ID: "org_4", Name: "Unbilled Co", Status: models.TenantStatusActive},
		&models.ShopModel{ID: "shp_1", TenantID: "org_1", Name: "Acme Main"},
		&models.ShopModel{ID: "shp_2", TenantID: "org_2", Name: "Other Main"},
		&models.SubscriptionModel{ID: "sub_1", TenantID: "org_1", PlanName: "Starter", Status: string(subscription.StatusActive)},
		&models.SubscriptionModel{ID: "sub_2", TenantID: "org_2", PlanName: "Starter", Status: string(subscription.StatusActive)},
		&models.SubscriptionModel{ID: "sub_3", TenantID: "org_3", PlanName: "Pro", Status: string(subscription.StatusLocked)},
		&models.UserModel{ID: "usr_owner", TenantID: strPtr("org_1"), Email: "owner@acme.test", Role: string(authorization.RoleOwner), DefaultShopID: strPtr("shp_1")},
		&models.UserModel{ID: "usr_staff", TenantID: strPtr("org_1"), Email: "staff@acme.test", Role: string(authorization.RoleStaff)},
		&models.UserModel{ID: "usr_sus", TenantID: strPtr("org_2"), Email: "owner@suspended.test", Role: string(authorization.RoleOwner)},
		&models.UserModel{ID: "usr_locked", TenantID: strPtr("org_3"), Email: "owner@locked.test", Role: string(authorization.RoleOwner)},
		&models.UserModel{ID: "usr_unbilled", TenantID: strPtr("org_4"), Email: "owner@unbilled.test", Role: string(authorization.RoleOwner)},
		&models.UserModel{ID: "usr_root", Email: "root@platform.test", Role: string(authorization.RoleSuperAdmin)},
	}
	for _, row := range rows {
		require.NoError(t, db.Create(row).Error)
	}
}

func newTestServer(t *testing.T, limiter ratelimit.Limiter) *testServer {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	seed(t, db)

	log := logger.NewNopLogger()
	jwtService := auth.NewJWTService("test-secret", 15)
	settings := repository.NewSystemSettingRepository(db, log)
	flags := repository.NewFeatureFlagRepository(db)
	require.NoError(t, flags.Save(context.Background(), &feature.Flag{
		Key:     feature.KeyMessaging,
		Enabled: true,
		Plans:   []string{"Pro"},
	}))

	protector := NewProtector(ProtectorDeps{
		Sessions:   auth.NewSessionResolver(jwtService, "rh_session", log),
		Identities: repository.NewUserRepository(db, log),
		Enforcement: appsubscription.NewResolver(
			repository.NewSubscriptionRepository(db),
			settings,
			repository.NewTenantRepository(db),
			log,
		),
		Features: appfeature.NewGate(flags, log),
		Limiter:  limiter,
		Shops:    repository.NewShopRepository(db),
		DB:       db,
		Logger:   log,
	})

	echo := func(c *gin.Context, rc *RequestContext) error {
		body := gin.H{
			"request_id": rc.RequestID,
			"user_id":    rc.Identity.ID,
			"scoped":     rc.DB.Scoped(),
		}
		if rc.TenantID != nil {
			body["tenant_id"] = *rc.TenantID
		}
		if rc.ShopID != nil {
			body["shop_id"] = *rc.ShopID
		}
		utils.SuccessResponse(c, http.StatusOK, body)
		return nil
	}

	r := gin.New()
	r.Use(RequestID(), AccessLog(log), Recovery(log), ErrorHandler(log))
	r.GET("/api/products", protector.Protect(Policy{}, echo))
	r.POST("/api/products", protector.Protect(Policy{}, echo))
	r.GET("/api/reports/owners", protector.Protect(Policy{
		AllowedRoles: []authorization.UserRole{authorization.RoleOwner, authorization.RoleManager},
	}, echo))
	r.GET("/api/messages", protector.Protect(Policy{}, echo))
	r.GET("/api/billing", protector.Protect(Policy{AllowWhenSubscriptionLocked: true}, echo))
	r.GET("/api/sales", protector.Protect(Policy{RequireShop: true}, echo))
	r.GET("/api/limited", protector.Protect(Policy{
		RateLimit: &ratelimit.Rule{KeyPrefix: "limited", Window: time.Minute, Max: 2},
	}, echo))
	r.GET("/api/boom", protector.Protect(Policy{}, func(c *gin.Context, rc *RequestContext) error {
		return fmt.Errorf("query failed: dial tcp 10.0.0.7:3306: connection refused")
	}))
	r.GET("/api/panic", protector.Protect(Policy{}, func(c *gin.Context, rc *RequestContext) error {
		panic("handler bug")
	}))

	return &testServer{engine: r, db: db, jwt: jwtService, settings: settings, flags: flags}
}

func (s *testServer) do(t *testing.T, method, path, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if email != "" {
		token, err := s.jwt.Issue(email)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool             `json:"success"`
	Data    map[string]any   `json:"data"`
	Error   *utils.ErrorInfo `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func assertRejected(t *testing.T, w *httptest.ResponseRecorder, status int, code string) envelope {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode(t, w)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, code, body.Error.Code)
	return body
}

func TestProtect_GrantsAccess(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	w := s.do(t, http.MethodGet, "/api/products", "owner@acme.test")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.True(t, body.Success)
	assert.Equal(t, "usr_owner", body.Data["user_id"])
	assert.Equal(t, "org_1", body.Data["tenant_id"])
	assert.Equal(t, "shp_1", body.Data["shop_id"], "falls back to the default shop")
	assert.Equal(t, true, body.Data["scoped"])
	assert.Equal(t, w.Header().Get(constants.HeaderXRequestID), body.Data["request_id"])
}

func TestProtect_KeepsInboundRequestID(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	token, err := s.jwt.Issue("owner@acme.test")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(constants.HeaderXRequestID, "req-abc")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-abc", w.Header().Get(constants.HeaderXRequestID))
	assert.Equal(t, "req-abc", decode(t, w).Data["request_id"])
}

func TestProtect_SessionCookie(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	token, err := s.jwt.Issue("staff@acme.test")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: "rh_session", Value: token})
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "usr_staff", decode(t, w).Data["user_id"])
}

func TestProtect_Unauthorized(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	assertRejected(t, s.do(t, http.MethodGet, "/api/products", ""), http.StatusUnauthorized, "unauthorized")
	assertRejected(t, s.do(t, http.MethodGet, "/api/products", "ghost@acme.test"), http.StatusUnauthorized, "unauthorized")

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assertRejected(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestProtect_RoleNotAllowed(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	assertRejected(t, s.do(t, http.MethodGet, "/api/reports/owners", "staff@acme.test"), http.StatusForbidden, "forbidden")
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/reports/owners", "owner@acme.test").Code)
}

func TestProtect_TenantSuspended(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	body := assertRejected(t, s.do(t, http.MethodGet, "/api/products", "owner@suspended.test"), http.StatusForbidden, "forbidden")
	assert.Contains(t, body.Error.Message, "tenant")
}

func TestProtect_SubscriptionLocked(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	body := assertRejected(t, s.do(t, http.MethodGet, "/api/products", "owner@locked.test"), http.StatusForbidden, "forbidden")
	assert.Contains(t, body.Error.Message, "locked")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/billing", "owner@locked.test").Code,
		"policy may allow locked tenants")

	assertRejected(t, s.do(t, http.MethodGet, "/api/products", "owner@unbilled.test"), http.StatusForbidden, "forbidden")
}

func TestProtect_SystemReadOnly(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))
	require.NoError(t, s.settings.Set(context.Background(), constants.SettingSystemReadOnly, "true"))

	body := assertRejected(t, s.do(t, http.MethodPost, "/api/products", "owner@acme.test"), http.StatusForbidden, "forbidden")
	assert.Contains(t, body.Error.Message, "read-only")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/products", "owner@acme.test").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/products", "root@platform.test").Code)
}

func TestProtect_FeatureGate(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	body := assertRejected(t, s.do(t, http.MethodGet, "/api/messages", "owner@acme.test"), http.StatusForbidden, "forbidden")
	assert.Contains(t, body.Error.Message, feature.KeyMessaging)

	require.NoError(t, s.flags.Save(context.Background(), &feature.Flag{
		Key:             feature.KeyMessaging,
		Enabled:         true,
		Plans:           []string{"Pro"},
		TenantOverrides: map[string]bool{"org_1": true},
	}))
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/messages", "owner@acme.test").Code)

	// Tenantless callers skip the gate.
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/messages", "root@platform.test").Code)
}

func TestProtect_RateLimited(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/limited", "owner@acme.test").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/limited", "owner@acme.test").Code)

	w := s.do(t, http.MethodGet, "/api/limited", "owner@acme.test")
	assertRejected(t, w, http.StatusTooManyRequests, "rate_limited")
	assert.Equal(t, "60", w.Header().Get(constants.HeaderRetryAfter))

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/limited", "staff@acme.test").Code,
		"budgets are per user")
}

func TestProtect_LimiterErrorFailsOpen(t *testing.T) {
	limiter := new(mockLimiter)
	limiter.On("Check", mock.Anything, DefaultRule, "usr_owner").
		Return(ratelimit.Result{}, fmt.Errorf("redis: connection refused"))
	s := newTestServer(t, limiter)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/products", "owner@acme.test").Code)
	limiter.AssertExpectations(t)
}

func TestProtect_ShopScope(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	t.Run("required shop missing", func(t *testing.T) {
		assertRejected(t, s.do(t, http.MethodGet, "/api/sales", "staff@acme.test"), http.StatusForbidden, "forbidden")
	})

	t.Run("explicit shop of own tenant", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/sales?shopId=shp_1", "staff@acme.test")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "shp_1", decode(t, w).Data["shop_id"])
	})

	t.Run("shop of another tenant", func(t *testing.T) {
		body := assertRejected(t, s.do(t, http.MethodGet, "/api/products?shopId=shp_2", "owner@acme.test"), http.StatusForbidden, "forbidden")
		assert.Contains(t, body.Error.Message, "shop")
	})

	t.Run("unknown shop", func(t *testing.T) {
		assertRejected(t, s.do(t, http.MethodGet, "/api/products?shopId=shp_missing", "owner@acme.test"), http.StatusForbidden, "forbidden")
	})

	t.Run("super admin may name any shop", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/products?shopId=shp_2", "root@platform.test")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decode(t, w)
		assert.Equal(t, "shp_2", body.Data["shop_id"])
		assert.Equal(t, false, body.Data["scoped"])
	})
}

// A request rejected before step 8 must not spend rate-limit budget.
func TestProtect_EarlyRejectionSkipsLimiter(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		email  string
		status int
	}{
		{"no session", "/api/products", "", http.StatusUnauthorized},
		{"unknown identity", "/api/products", "ghost@acme.test", http.StatusUnauthorized},
		{"role", "/api/reports/owners", "staff@acme.test", http.StatusForbidden},
		{"tenant suspended", "/api/products", "owner@suspended.test", http.StatusForbidden},
		{"subscription locked", "/api/products", "owner@locked.test", http.StatusForbidden},
		{"feature off", "/api/messages", "owner@acme.test", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := ratelimit.NewMemoryLimiter(logger.NewNopLogger())
			s := newTestServer(t, limiter)

			w := s.do(t, http.MethodGet, tt.path, tt.email)
			assert.Equal(t, tt.status, w.Code)
			assert.Zero(t, limiter.Len())
		})
	}
}

func TestProtect_ShopRejectionAfterLimiter(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(logger.NewNopLogger())
	s := newTestServer(t, limiter)

	assertRejected(t, s.do(t, http.MethodGet, "/api/products?shopId=shp_2", "owner@acme.test"), http.StatusForbidden, "forbidden")
	assert.Equal(t, 1, limiter.Count(DefaultRule.Key("usr_owner")))
}

func TestErrorBoundary(t *testing.T) {
	s := newTestServer(t, ratelimit.NewMemoryLimiter(logger.NewNopLogger()))

	t.Run("untyped error", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/boom", "owner@acme.test")
		body := assertRejected(t, w, http.StatusInternalServerError, "internal_error")
		assert.Equal(t, constants.ErrMsgInternalServerError, body.Error.Message)
		assert.NotContains(t, w.Body.String(), "10.0.0.7")
	})

	t.Run("panic", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/panic", "owner@acme.test")
		assertRejected(t, w, http.StatusInternalServerError, "internal_error")
	})
}

func TestGetRequestContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	_, ok := GetRequestContext(c)
	assert.False(t, ok)

	rc := &RequestContext{RequestID: "req-1"}
	c.Set(constants.ContextKeyRequestContext, rc)
	got, ok := GetRequestContext(c)
	require.True(t, ok)
	assert.Same(t, rc, got)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://app.retailhub.test"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.retailhub.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.retailhub.test", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
