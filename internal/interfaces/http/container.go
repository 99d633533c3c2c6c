package http

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appfeature "github.com/retailhub/retailhub/internal/application/feature"
	appsubscription "github.com/retailhub/retailhub/internal/application/subscription"
	"github.com/retailhub/retailhub/internal/infrastructure/auth"
	"github.com/retailhub/retailhub/internal/infrastructure/config"
	"github.com/retailhub/retailhub/internal/infrastructure/email"
	"github.com/retailhub/retailhub/internal/infrastructure/jobqueue"
	"github.com/retailhub/retailhub/internal/infrastructure/jobs"
	"github.com/retailhub/retailhub/internal/infrastructure/ratelimit"
	"github.com/retailhub/retailhub/internal/infrastructure/repository"
	"github.com/retailhub/retailhub/internal/interfaces/http/handlers"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// Container owns every long-lived component of the server: the limiter and
// the job queue are fields here, never package globals.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	limiter   ratelimit.Limiter
	queue     *jobqueue.Queue
	protector *middleware.Protector

	settings *repository.SystemSettingRepository
	flags    *repository.FeatureFlagRepository

	saleHandler    *handlers.SaleHandler
	messageHandler *handlers.MessageHandler
	leaveHandler   *handlers.LeaveHandler
	adminHandler   *handlers.AdminHandler

	cancel context.CancelFunc
}

// NewContainer wires the server. Nothing runs until Start.
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	if err := c.initRateLimiter(); err != nil {
		return nil, err
	}
	c.initQueue()
	c.initProtector()
	c.initHandlers()

	return c, nil
}

func (c *Container) initRateLimiter() error {
	if c.cfg.RateLimit.Backend == ratelimit.BackendRedis {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     c.cfg.Redis.GetAddr(),
			Password: c.cfg.Redis.Password,
			DB:       c.cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.log.Infow("redis connected", "addr", c.cfg.Redis.GetAddr())
	}

	limiter, err := ratelimit.New(c.cfg.RateLimit, c.redis, c.log.Named("ratelimit"))
	if err != nil {
		return err
	}
	c.limiter = limiter
	return nil
}

func (c *Container) initQueue() {
	c.queue = jobqueue.New(c.log.Named("jobqueue"),
		jobqueue.WithTickInterval(c.cfg.Queue.TickInterval),
		jobqueue.WithMaxAttempts(c.cfg.Queue.MaxAttempts),
	)

	var mailer email.Sender
	if c.cfg.Email.SMTPHost != "" {
		mailer = email.NewSMTPSender(c.cfg.Email)
	}
	jobs.Register(c.queue, jobs.Dependencies{
		DB:      c.db,
		Mailer:  mailer,
		Billing: repository.NewTenantRepository(c.db),
		Logger:  c.log.Named("jobs"),
	})
}

func (c *Container) initProtector() {
	c.settings = repository.NewSystemSettingRepository(c.db, c.log)
	c.flags = repository.NewFeatureFlagRepository(c.db)

	resolver := appsubscription.NewResolver(
		repository.NewSubscriptionRepository(c.db),
		c.settings,
		repository.NewTenantRepository(c.db),
		c.log.Named("subscription"),
		appsubscription.WithEnqueuer(c.queue),
	)
	jwtService := auth.NewJWTService(c.cfg.Auth.JWT.Secret, c.cfg.Auth.JWT.AccessExpMinutes)

	c.protector = middleware.NewProtector(middleware.ProtectorDeps{
		Sessions:    auth.NewSessionResolver(jwtService, c.cfg.Auth.Cookie.Name, c.log.Named("auth")),
		Identities:  repository.NewUserRepository(c.db, c.log),
		Enforcement: resolver,
		Features:    appfeature.NewGate(c.flags, c.log.Named("feature")),
		Limiter:     c.limiter,
		Shops:       repository.NewShopRepository(c.db),
		DB:          c.db,
		DefaultRule: ratelimit.Rule{
			KeyPrefix: "api",
			Window:    c.cfg.RateLimit.DefaultWindow,
			Max:       c.cfg.RateLimit.DefaultMax,
		},
		Logger: c.log.Named("protect"),
	})
}

func (c *Container) initHandlers() {
	c.saleHandler = handlers.NewSaleHandler(c.queue)
	c.messageHandler = handlers.NewMessageHandler(c.queue)
	c.leaveHandler = handlers.NewLeaveHandler(c.queue)
	c.adminHandler = handlers.NewAdminHandler(c.settings, c.flags, c.queue)
}

// Start launches the job worker and, for the memory limiter, the bucket
// janitor. Both stop on Shutdown.
func (c *Container) Start(ctx context.Context) {
	if c.cancel != nil {
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.queue.Start(ctx)
	if mem, ok := c.limiter.(*ratelimit.MemoryLimiter); ok {
		mem.StartJanitor(ctx, c.cfg.RateLimit.SweepInterval)
	}
}

// Shutdown stops background work. Jobs still pending are dropped and logged.
func (c *Container) Shutdown() {
	if c.cancel != nil {
		c.cancel()
	}
	c.queue.Stop()
	if pending := c.queue.Len(); pending > 0 {
		c.log.Warnw("dropping pending jobs on shutdown", "count", pending)
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Warnw("failed to close redis", "error", err)
		}
	}
}

// Queue exposes the job queue for tests and operational tooling.
func (c *Container) Queue() *jobqueue.Queue {
	return c.queue
}
