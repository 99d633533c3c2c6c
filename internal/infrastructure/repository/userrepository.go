package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/identity"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/mappers"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	shareddb "github.com/retailhub/retailhub/internal/shared/db"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

// UserRepository implements identity.Repository.
type UserRepository struct {
	db     *gorm.DB
	mapper mappers.IdentityMapper
	logger logger.Interface
}

func NewUserRepository(db *gorm.DB, logger logger.Interface) *UserRepository {
	return &UserRepository{
		db:     db,
		mapper: mappers.NewIdentityMapper(),
		logger: logger,
	}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	var model models.UserModel
	err := shareddb.GetTxFromContext(ctx, r.db).
		Preload("Tenant").
		Where("email = ?", email).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to find user by email", "error", err)
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return r.mapper.ToDomain(&model), nil
}

// ShopRepository implements identity.ShopRepository.
type ShopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

func (r *ShopRepository) TenantOfShop(ctx context.Context, shopID string) (string, bool, error) {
	var model models.ShopModel
	err := shareddb.GetTxFromContext(ctx, r.db).
		Select("id", "tenant_id").
		Where("id = ?", shopID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to load shop %s: %w", shopID, err)
	}
	return model.TenantID, true, nil
}
