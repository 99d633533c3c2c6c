package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/infrastructure/jobqueue"
	"github.com/retailhub/retailhub/internal/interfaces/dto"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/errors"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

type SettingsWriter interface {
	Set(ctx context.Context, key, value string) error
}

type FlagWriter interface {
	Save(ctx context.Context, flag *feature.Flag) error
}

type DeadLetterSource interface {
	DeadLetterJobs() []jobqueue.Job
}

// AdminHandler serves platform operator routes.
type AdminHandler struct {
	settings SettingsWriter
	flags    FlagWriter
	queue    DeadLetterSource
}

func NewAdminHandler(settings SettingsWriter, flags FlagWriter, queue DeadLetterSource) *AdminHandler {
	return &AdminHandler{settings: settings, flags: flags, queue: queue}
}

func (h *AdminHandler) SetReadOnly(c *gin.Context, rc *middleware.RequestContext) error {
	var req dto.SetReadOnlyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return utils.BindingError(err)
	}
	value := strconv.FormatBool(*req.ReadOnly)
	if err := h.settings.Set(c.Request.Context(), constants.SettingSystemReadOnly, value); err != nil {
		return err
	}
	rc.Logger.Infow("system read-only switched", "read_only", *req.ReadOnly)
	utils.SuccessResponse(c, http.StatusOK, gin.H{"read_only": *req.ReadOnly})
	return nil
}

func (h *AdminHandler) SaveFeatureFlag(c *gin.Context, rc *middleware.RequestContext) error {
	key := c.Param("key")
	if key == "" {
		return errors.NewValidationError("feature key is required")
	}
	var req dto.FeatureFlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return utils.BindingError(err)
	}

	flag := &feature.Flag{
		Key:             key,
		Enabled:         req.Enabled,
		Plans:           req.Plans,
		TenantOverrides: req.TenantOverrides,
	}
	if err := h.flags.Save(c.Request.Context(), flag); err != nil {
		return err
	}
	rc.Logger.Infow("feature flag saved", "feature", key, "enabled", req.Enabled)
	utils.SuccessResponse(c, http.StatusOK, gin.H{
		"key":              flag.Key,
		"enabled":          flag.Enabled,
		"plans":            flag.Plans,
		"tenant_overrides": flag.TenantOverrides,
	})
	return nil
}

type deadLetterResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	DeadAt    time.Time `json:"dead_at"`
}

// DeadLetters lists jobs the queue gave up on. Payloads are not exposed.
func (h *AdminHandler) DeadLetters(c *gin.Context, rc *middleware.RequestContext) error {
	jobs := h.queue.DeadLetterJobs()
	out := make([]deadLetterResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, deadLetterResponse{
			ID:        j.ID,
			Type:      j.Type,
			Attempts:  j.Attempts,
			LastError: j.LastError,
			DeadAt:    j.DeadAt,
		})
	}
	utils.SuccessResponse(c, http.StatusOK, out)
	return nil
}
