package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/subscription"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/mappers"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	shareddb "github.com/retailhub/retailhub/internal/shared/db"
)

// SubscriptionRepository implements subscription.Repository.
type SubscriptionRepository struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
	}
}

// LatestForTenant returns the most recently created subscription.
func (r *SubscriptionRepository) LatestForTenant(ctx context.Context, tenantID string) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := shareddb.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest subscription: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id string, status subscription.Status) error {
	res := shareddb.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("failed to update subscription status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription %s not found", id)
	}
	return nil
}
