package repository

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appsubscription "github.com/retailhub/retailhub/internal/application/subscription"
	"github.com/retailhub/retailhub/internal/domain/feature"
	"github.com/retailhub/retailhub/internal/domain/identity"
	"github.com/retailhub/retailhub/internal/domain/subscription"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/shared/authorization"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func strPtr(s string) *string { return &s }

func TestUserRepository_FindByEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.TenantModel{ID: "org_1", Name: "Acme", Status: models.TenantStatusSuspended}).Error)
	require.NoError(t, db.Create(&models.UserModel{
		ID: "usr_1", TenantID: strPtr("org_1"), Email: "owner@acme.test",
		Role: string(authorization.RoleOwner), DefaultShopID: strPtr("shp_1"),
	}).Error)
	require.NoError(t, db.Create(&models.UserModel{
		ID: "usr_root", Email: "root@platform.test", Role: string(authorization.RoleSuperAdmin),
	}).Error)

	repo := NewUserRepository(db, logger.NewNopLogger())

	t.Run("tenant member", func(t *testing.T) {
		ident, err := repo.FindByEmail(ctx, "owner@acme.test")
		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Equal(t, "usr_1", ident.ID)
		assert.Equal(t, authorization.RoleOwner, ident.Role)
		require.NotNil(t, ident.TenantID)
		assert.Equal(t, "org_1", *ident.TenantID)
		assert.Equal(t, identity.TenantStatusSuspended, ident.TenantStatus)
		assert.True(t, ident.TenantInactive())
	})

	t.Run("super admin", func(t *testing.T) {
		ident, err := repo.FindByEmail(ctx, "root@platform.test")
		require.NoError(t, err)
		require.NotNil(t, ident)
		assert.Nil(t, ident.TenantID)
		assert.True(t, ident.IsSuperAdmin())
		assert.False(t, ident.TenantInactive())
	})

	t.Run("unknown email", func(t *testing.T) {
		ident, err := repo.FindByEmail(ctx, "ghost@acme.test")
		require.NoError(t, err)
		assert.Nil(t, ident)
	})
}

func TestShopRepository_TenantOfShop(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.ShopModel{ID: "shp_1", TenantID: "org_1", Name: "Main"}).Error)

	repo := NewShopRepository(db)

	tenantID, ok, err := repo.TenantOfShop(ctx, "shp_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "org_1", tenantID)

	_, ok, err = repo.TenantOfShop(ctx, "shp_missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubscriptionRepository_LatestForTenant(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Create(&models.SubscriptionModel{
		ID: "sub_old", TenantID: "org_1", PlanName: "Starter",
		Status: string(subscription.StatusCancelled), CreatedAt: base,
	}).Error)
	require.NoError(t, db.Create(&models.SubscriptionModel{
		ID: "sub_new", TenantID: "org_1", PlanName: "Pro",
		Status: string(subscription.StatusActive), CreatedAt: base.Add(24 * time.Hour),
	}).Error)

	repo := NewSubscriptionRepository(db)

	sub, err := repo.LatestForTenant(ctx, "org_1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "sub_new", sub.ID)
	assert.Equal(t, "Pro", sub.PlanName)
	assert.Equal(t, subscription.StatusActive, sub.Status)

	sub, err = repo.LatestForTenant(ctx, "org_2")
	require.NoError(t, err)
	assert.Nil(t, sub)

	require.NoError(t, repo.UpdateStatus(ctx, "sub_new", subscription.StatusLocked))
	sub, err = repo.LatestForTenant(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusLocked, sub.Status)

	assert.Error(t, repo.UpdateStatus(ctx, "sub_missing", subscription.StatusLocked))
}

func TestTenantRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.TenantModel{ID: "org_1", Name: "Acme", AuthVersion: 4}).Error)

	repo := NewTenantRepository(db)

	version, err := repo.AuthVersion(ctx, "org_1")
	require.NoError(t, err)
	assert.Equal(t, 4, version)

	version, err = repo.AuthVersion(ctx, "org_missing")
	require.NoError(t, err)
	assert.Zero(t, version)

	at := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkBillingSynced(ctx, "org_1", at))

	var tenant models.TenantModel
	require.NoError(t, db.First(&tenant, "id = ?", "org_1").Error)
	require.NotNil(t, tenant.BillingSyncedAt)
	assert.True(t, at.Equal(*tenant.BillingSyncedAt))

	assert.Error(t, repo.MarkBillingSynced(ctx, "org_missing", at))
}

func TestSystemSettingRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewSystemSettingRepository(db, logger.NewNopLogger())

	readOnly, err := repo.SystemReadOnly(ctx)
	require.NoError(t, err)
	assert.False(t, readOnly, "missing setting means writable")

	require.NoError(t, repo.Set(ctx, constants.SettingSystemReadOnly, "true"))
	readOnly, err = repo.SystemReadOnly(ctx)
	require.NoError(t, err)
	assert.True(t, readOnly)

	require.NoError(t, repo.Set(ctx, constants.SettingSystemReadOnly, "false"))
	readOnly, err = repo.SystemReadOnly(ctx)
	require.NoError(t, err)
	assert.False(t, readOnly)

	require.NoError(t, repo.Set(ctx, constants.SettingSystemReadOnly, "maybe"))
	readOnly, err = repo.SystemReadOnly(ctx)
	require.NoError(t, err)
	assert.False(t, readOnly)

	var count int64
	require.NoError(t, db.Model(&models.SystemSettingModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFeatureFlagRepository(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewFeatureFlagRepository(db)

	flag, err := repo.Get(ctx, feature.KeyMessaging)
	require.NoError(t, err)
	assert.Nil(t, flag)

	require.NoError(t, repo.Save(ctx, &feature.Flag{
		Key:             feature.KeyMessaging,
		Enabled:         true,
		Plans:           []string{"Pro"},
		TenantOverrides: map[string]bool{"org_1": true},
	}))

	flag, err = repo.Get(ctx, feature.KeyMessaging)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.True(t, flag.Enabled)
	assert.Equal(t, []string{"Pro"}, flag.Plans)
	assert.Equal(t, map[string]bool{"org_1": true}, flag.TenantOverrides)
	assert.True(t, flag.Allows(strPtr("org_1"), "Starter"))
	assert.False(t, flag.Allows(strPtr("org_2"), "Starter"))

	require.NoError(t, repo.Save(ctx, &feature.Flag{Key: feature.KeyMessaging, Enabled: false}))
	flag, err = repo.Get(ctx, feature.KeyMessaging)
	require.NoError(t, err)
	assert.False(t, flag.Enabled)
}

func TestResolver_SelfHealsExpiredGrace(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	graceEnds := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&models.TenantModel{ID: "org_1", Name: "Acme", AuthVersion: 2}).Error)
	require.NoError(t, db.Create(&models.SubscriptionModel{
		ID: "sub_1", TenantID: "org_1", PlanName: "Pro",
		Status: string(subscription.StatusGrace), GraceEndsAt: &graceEnds,
	}).Error)

	mc := clock.NewMock()
	mc.Set(graceEnds.Add(time.Minute))

	resolver := appsubscription.NewResolver(
		NewSubscriptionRepository(db),
		NewSystemSettingRepository(db, logger.NewNopLogger()),
		NewTenantRepository(db),
		logger.NewNopLogger(),
		appsubscription.WithClock(mc),
	)

	tenantID := "org_1"
	enforcement, corrected, err := resolver.ResolveAndCorrect(ctx, &tenantID)
	require.NoError(t, err)
	assert.True(t, corrected)
	assert.True(t, enforcement.Locked())
	assert.Equal(t, 2, enforcement.AuthVersion)
	assert.Equal(t, "Pro", enforcement.PlanName)

	var stored models.SubscriptionModel
	require.NoError(t, db.First(&stored, "id = ?", "sub_1").Error)
	assert.Equal(t, string(subscription.StatusLocked), stored.Status)

	_, corrected, err = resolver.ResolveAndCorrect(ctx, &tenantID)
	require.NoError(t, err)
	assert.False(t, corrected)
}
