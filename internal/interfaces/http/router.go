package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/infrastructure/ratelimit"
	"github.com/retailhub/retailhub/internal/interfaces/http/handlers"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/authorization"
)

var (
	managers = []authorization.UserRole{authorization.RoleOwner, authorization.RoleManager}
	operator = []authorization.UserRole{authorization.RoleSuperAdmin}

	messageSendRule = ratelimit.Rule{KeyPrefix: "messages:send", Window: time.Minute, Max: 30}
)

// SetupRoutes mounts the middleware chain and every route.
func (c *Container) SetupRoutes() {
	r := c.engine
	r.Use(
		middleware.RequestID(),
		middleware.AccessLog(c.log.Named("http")),
		middleware.Recovery(c.log),
		middleware.ErrorHandler(c.log),
		middleware.CORS(c.cfg.Server.AllowedOrigins),
	)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	p := c.protector
	api := r.Group("/api")

	api.GET("/me", p.Protect(middleware.Policy{AllowWhenSubscriptionLocked: true}, handlers.Me))

	sales := api.Group("/sales")
	{
		sales.GET("", p.Protect(middleware.Policy{RequireShop: true}, c.saleHandler.List))
		sales.POST("", p.Protect(middleware.Policy{RequireShop: true}, c.saleHandler.Create))
		sales.GET("/:id", p.Protect(middleware.Policy{}, c.saleHandler.Get))
		sales.POST("/:id/void", p.Protect(middleware.Policy{AllowedRoles: managers}, c.saleHandler.Void))
	}

	api.GET("/reports/sales", p.Protect(middleware.Policy{AllowedRoles: managers}, c.saleHandler.Summary))

	messages := api.Group("/messages")
	{
		messages.GET("", p.Protect(middleware.Policy{}, c.messageHandler.List))
		messages.POST("", p.Protect(middleware.Policy{RateLimit: &messageSendRule}, c.messageHandler.Send))
	}

	leave := api.Group("/leave-requests")
	{
		leave.GET("", p.Protect(middleware.Policy{}, c.leaveHandler.List))
		leave.POST("", p.Protect(middleware.Policy{}, c.leaveHandler.Create))
		leave.PATCH("/:id", p.Protect(middleware.Policy{AllowedRoles: managers}, c.leaveHandler.Decide))
	}

	admin := api.Group("/admin")
	{
		admin.PUT("/settings/read-only", p.Protect(middleware.Policy{AllowedRoles: operator}, c.adminHandler.SetReadOnly))
		admin.PUT("/feature-flags/:key", p.Protect(middleware.Policy{AllowedRoles: operator}, c.adminHandler.SaveFeatureFlag))
		admin.GET("/jobs/dead-letter", p.Protect(middleware.Policy{AllowedRoles: operator}, c.adminHandler.DeadLetters))
	}
}

// GetEngine returns the gin engine
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}
