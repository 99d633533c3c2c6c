package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/mappers"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	shareddb "github.com/retailhub/retailhub/internal/shared/db"
)

// FeatureFlagRepository implements feature.Repository.
type FeatureFlagRepository struct {
	db     *gorm.DB
	mapper mappers.FeatureFlagMapper
}

func NewFeatureFlagRepository(db *gorm.DB) *FeatureFlagRepository {
	return &FeatureFlagRepository{
		db:     db,
		mapper: mappers.NewFeatureFlagMapper(),
	}
}

func (r *FeatureFlagRepository) Get(ctx context.Context, key string) (*feature.Flag, error) {
	var model models.FeatureFlagModel
	err := shareddb.GetTxFromContext(ctx, r.db).Where("`key` = ?", key).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feature flag %s: %w", key, err)
	}
	return r.mapper.ToDomain(&model), nil
}

// Save creates or replaces a flag.
func (r *FeatureFlagRepository) Save(ctx context.Context, flag *feature.Flag) error {
	err := shareddb.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(r.mapper.ToModel(flag)).Error
	if err != nil {
		return fmt.Errorf("failed to save feature flag %s: %w", flag.Key, err)
	}
	return nil
}
