// Package handlers holds the route handlers mounted behind the protection
// pipeline. Every handler reads and writes through rc.DB.
package handlers

import (
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/task"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/errors"
)

// notFoundOr maps a missing row to a 404 and wraps anything else.
func notFoundOr(err error, what string) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NewNotFoundError(what + " not found")
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// enqueueAudit defers an audit entry. Tenantless callers have no tenant to
// audit under, and an enqueue failure never fails the request.
func enqueueAudit(jobs task.Enqueuer, rc *middleware.RequestContext, action, target string, metadata map[string]any) {
	if rc.TenantID == nil {
		return
	}
	_, err := jobs.Enqueue(task.TypeAuditLog, task.AuditLog{
		TenantID:  *rc.TenantID,
		ActorID:   rc.Identity.ID,
		Action:    action,
		Target:    target,
		RequestID: rc.RequestID,
		Metadata:  metadata,
	})
	if err != nil {
		rc.Logger.Warnw("failed to enqueue audit log", "action", action, "error", err)
	}
}

func enqueueEmail(jobs task.Enqueuer, rc *middleware.RequestContext, to, subject, body string) {
	if to == "" {
		return
	}
	_, err := jobs.Enqueue(task.TypeNotificationEmail, task.NotificationEmail{
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		rc.Logger.Warnw("failed to enqueue notification email", "error", err)
	}
}
