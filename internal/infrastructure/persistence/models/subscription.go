package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/id"
)

// SubscriptionModel is one billing period record of a tenant. The most
// recently created row is the tenant's current subscription.
type SubscriptionModel struct {
	ID               string `gorm:"primarykey;size:40"`
	TenantID         string `gorm:"not null;size:40;index:idx_subscriptions_tenant"`
	PlanName         string `gorm:"not null;size:40"`
	Status           string `gorm:"not null;size:20"`
	GraceEndsAt      *time.Time
	CurrentPeriodEnd *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (SubscriptionModel) TableName() string {
	return constants.TableSubscriptions
}

func (SubscriptionModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntitySubscription
}

func (s *SubscriptionModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = id.New(id.PrefixSubscription)
	}
	return nil
}
