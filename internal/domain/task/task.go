// Package task names the background jobs the service defers and their payloads.
package task

const (
	TypeAuditLog          = "audit.log"
	TypeNotificationEmail = "notification.email"
	TypeBillingSync       = "billing.sync"
)

// Enqueuer defers work to the background job queue. It never blocks on the
// work itself.
type Enqueuer interface {
	Enqueue(jobType string, payload any) (string, error)
}

// AuditLog records an action against a tenant.
type AuditLog struct {
	TenantID  string
	ActorID   string
	Action    string
	Target    string
	RequestID string
	Metadata  map[string]any
}

type NotificationEmail struct {
	To      string
	Subject string
	Body    string
}

// BillingSync tells billing that a tenant's subscription status changed.
type BillingSync struct {
	TenantID string
	Status   string
}
