// Package jobs holds the background job handlers and registers them on the
// queue.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/task"
	"github.com/retailhub/retailhub/internal/infrastructure/email"
	"github.com/retailhub/retailhub/internal/infrastructure/jobqueue"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/infrastructure/tenantscope"
	"github.com/retailhub/retailhub/internal/shared/authorization"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// BillingSyncer records that billing has seen a tenant's new status.
type BillingSyncer interface {
	MarkBillingSynced(ctx context.Context, tenantID string, at time.Time) error
}

// Dependencies are the collaborators the handlers need. A nil Mailer
// leaves notification.email unregistered, so those jobs dead-letter.
type Dependencies struct {
	DB      *gorm.DB
	Mailer  email.Sender
	Billing BillingSyncer
	Clock   clock.Clock
	Logger  logger.Interface
}

// Register installs every handler on q.
func Register(q *jobqueue.Queue, deps Dependencies) {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	h := &handlers{deps: deps}

	q.RegisterHandler(task.TypeAuditLog, h.auditLog)
	q.RegisterHandler(task.TypeBillingSync, h.billingSync)
	if deps.Mailer != nil {
		q.RegisterHandler(task.TypeNotificationEmail, h.notificationEmail)
	} else {
		deps.Logger.Warnw("no mailer configured, notification emails will dead-letter")
	}
}

type handlers struct {
	deps Dependencies
}

func (h *handlers) auditLog(ctx context.Context, job jobqueue.Job) error {
	p, err := payloadAs[task.AuditLog](job)
	if err != nil {
		return err
	}
	if p.TenantID == "" {
		return fmt.Errorf("audit log job %s has no tenant", job.ID)
	}

	var metadata datatypes.JSON
	if len(p.Metadata) > 0 {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		metadata = raw
	}

	// The job runs outside any request, so the accessor is built for the
	// payload's tenant and fills in organization_id itself.
	tenantID := p.TenantID
	accessor := tenantscope.New(h.deps.DB, &tenantID, authorization.RoleStaff, h.deps.Logger)
	entry := &models.AuditLogModel{
		ActorID:   p.ActorID,
		Action:    p.Action,
		Target:    p.Target,
		RequestID: p.RequestID,
		Metadata:  metadata,
	}
	if err := accessor.Create(ctx, entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func (h *handlers) notificationEmail(ctx context.Context, job jobqueue.Job) error {
	p, err := payloadAs[task.NotificationEmail](job)
	if err != nil {
		return err
	}
	return h.deps.Mailer.Send(ctx, email.Message{
		To:        p.To,
		Subject:   p.Subject,
		PlainBody: p.Body,
	})
}

func (h *handlers) billingSync(ctx context.Context, job jobqueue.Job) error {
	p, err := payloadAs[task.BillingSync](job)
	if err != nil {
		return err
	}
	if err := h.deps.Billing.MarkBillingSynced(ctx, p.TenantID, h.deps.Clock.Now()); err != nil {
		return err
	}
	h.deps.Logger.Infow("billing synced", "tenant_id", p.TenantID, "status", p.Status)
	return nil
}

// payloadAs accepts T or *T.
func payloadAs[T any](job jobqueue.Job) (T, error) {
	var zero T
	switch p := job.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	}
	return zero, fmt.Errorf("job %s (%s): unexpected payload %T", job.ID, job.Type, job.Payload)
}
