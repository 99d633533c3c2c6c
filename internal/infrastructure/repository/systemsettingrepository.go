package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/shared/constants"
	shareddb "github.com/retailhub/retailhub/internal/shared/db"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// SystemSettingRepository stores platform-wide key/value settings.
type SystemSettingRepository struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSystemSettingRepository(db *gorm.DB, logger logger.Interface) *SystemSettingRepository {
	return &SystemSettingRepository{db: db, logger: logger}
}

// Get returns "", false, nil for a missing key.
func (r *SystemSettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var model models.SystemSettingModel
	err := shareddb.GetTxFromContext(ctx, r.db).Where("`key` = ?", key).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return model.Value, true, nil
}

func (r *SystemSettingRepository) Set(ctx context.Context, key, value string) error {
	err := shareddb.GetTxFromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.SystemSettingModel{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// SystemReadOnly reports the global kill-switch. A missing or unparsable
// value means writable.
func (r *SystemSettingRepository) SystemReadOnly(ctx context.Context) (bool, error) {
	value, ok, err := r.Get(ctx, constants.SettingSystemReadOnly)
	if err != nil || !ok {
		return false, err
	}
	readOnly, err := strconv.ParseBool(value)
	if err != nil {
		r.logger.Warnw("ignoring malformed system setting", "key", constants.SettingSystemReadOnly, "value", value)
		return false, nil
	}
	return readOnly, nil
}
