package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	shareddb "github.com/retailhub/retailhub/internal/shared/db"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// AuthVersion returns 0 for an unknown tenant.
func (r *TenantRepository) AuthVersion(ctx context.Context, tenantID string) (int, error) {
	var model models.TenantModel
	err := shareddb.GetTxFromContext(ctx, r.db).
		Select("id", "auth_version").
		Where("id = ?", tenantID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load tenant %s: %w", tenantID, err)
	}
	return model.AuthVersion, nil
}

// MarkBillingSynced records when billing last learned the tenant's state.
func (r *TenantRepository) MarkBillingSynced(ctx context.Context, tenantID string, at time.Time) error {
	res := shareddb.GetTxFromContext(ctx, r.db).
		Model(&models.TenantModel{}).
		Where("id = ?", tenantID).
		Update("billing_synced_at", at)
	if res.Error != nil {
		return fmt.Errorf("failed to mark tenant %s billing synced: %w", tenantID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("tenant %s not found", tenantID)
	}
	return nil
}
