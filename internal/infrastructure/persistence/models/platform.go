package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/id"
)

// AuditLogModel stores its tenant under organization_id.
type AuditLogModel struct {
	ID             string         `gorm:"primarykey;size:40"`
	OrganizationID string         `gorm:"not null;size:40;index:idx_audit_logs_org"`
	Organization   *TenantModel   `gorm:"foreignKey:OrganizationID"`
	ActorID        string         `gorm:"size:40"`
	Action         string         `gorm:"not null;size:80"`
	Target         string         `gorm:"size:120"`
	RequestID      string         `gorm:"size:64"`
	Metadata       datatypes.JSON `gorm:"type:json"`
	CreatedAt      time.Time
}

func (AuditLogModel) TableName() string {
	return constants.TableAuditLogs
}

func (AuditLogModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityAuditLog
}

func (a *AuditLogModel) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = id.New(id.PrefixAuditLog)
	}
	return nil
}

// FeatureFlagModel is platform-global. An empty Plans list means every plan.
type FeatureFlagModel struct {
	Key             string                              `gorm:"primarykey;size:80"`
	Enabled         bool                                `gorm:"not null;default:false"`
	Plans           datatypes.JSONSlice[string]         `gorm:"type:json"`
	TenantOverrides datatypes.JSONType[map[string]bool] `gorm:"type:json"`
	Description     string                              `gorm:"size:255"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (FeatureFlagModel) TableName() string {
	return constants.TableFeatureFlags
}

func (FeatureFlagModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityFeatureFlag
}

type SystemSettingModel struct {
	Key       string `gorm:"primarykey;size:80"`
	Value     string `gorm:"size:500"`
	UpdatedAt time.Time
}

func (SystemSettingModel) TableName() string {
	return constants.TableSystemSettings
}

func (SystemSettingModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntitySystemSetting
}

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&TenantModel{},
		&UserModel{},
		&ShopModel{},
		&ProductModel{},
		&CustomerModel{},
		&SubscriptionModel{},
		&AuditLogModel{},
		&SaleModel{},
		&SaleItemModel{},
		&LeaveRequestModel{},
		&NotificationModel{},
		&MessageModel{},
		&FeatureFlagModel{},
		&SystemSettingModel{},
	}
}
