package mappers

import (
	"github.com/retailhub/retailhub/internal/domain/subscription"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
)

type SubscriptionMapper interface {
	ToDomain(model *models.SubscriptionModel) *subscription.Subscription
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToDomain(model *models.SubscriptionModel) *subscription.Subscription {
	if model == nil {
		return nil
	}
	return &subscription.Subscription{
		ID:          model.ID,
		TenantID:    model.TenantID,
		PlanName:    model.PlanName,
		Status:      subscription.Status(model.Status),
		GraceEndsAt: model.GraceEndsAt,
	}
}
