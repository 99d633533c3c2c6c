package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/id"
)

// Leave request statuses
const (
	LeaveStatusPending  = "pending"
	LeaveStatusApproved = "approved"
	LeaveStatusRejected = "rejected"
)

type LeaveRequestModel struct {
	ID        string     `gorm:"primarykey;size:40"`
	UserID    string     `gorm:"not null;size:40;index:idx_leave_requests_user"`
	User      *UserModel `gorm:"foreignKey:UserID"`
	StartsOn  time.Time  `gorm:"not null"`
	EndsOn    time.Time  `gorm:"not null"`
	Reason    string     `gorm:"size:500"`
	Status    string     `gorm:"not null;size:20;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveRequestModel) TableName() string {
	return constants.TableLeaveRequests
}

func (LeaveRequestModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityLeaveRequest
}

func (l *LeaveRequestModel) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = id.New(id.PrefixLeaveRequest)
	}
	return nil
}

type NotificationModel struct {
	ID        string `gorm:"primarykey;size:40"`
	UserID    string `gorm:"not null;size:40;index:idx_notifications_user"`
	Title     string `gorm:"not null;size:200"`
	Body      string `gorm:"type:text"`
	ReadAt    *time.Time
	CreatedAt time.Time
}

func (NotificationModel) TableName() string {
	return constants.TableNotifications
}

func (NotificationModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityNotification
}

func (n *NotificationModel) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = id.New(id.PrefixNotification)
	}
	return nil
}

// MessageModel is visible to the tenant of either party, so a conversation
// with an external user shows up on the internal side.
type MessageModel struct {
	ID         string `gorm:"primarykey;size:40"`
	SenderID   string `gorm:"not null;size:40;index:idx_messages_sender"`
	ReceiverID string `gorm:"not null;size:40;index:idx_messages_receiver"`
	Body       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
}

func (MessageModel) TableName() string {
	return constants.TableMessages
}

func (MessageModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityMessage
}

func (m *MessageModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = id.New(id.PrefixMessage)
	}
	return nil
}
