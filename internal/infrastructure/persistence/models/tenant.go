package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/id"
)

// Tenant statuses
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)

// TenantModel is the top-level organizational boundary.
type TenantModel struct {
	ID              string `gorm:"primarykey;size:40"`
	Name            string `gorm:"not null;size:120"`
	Status          string `gorm:"not null;size:20;default:active"`
	AuthVersion     int    `gorm:"not null;default:1"`
	BillingSyncedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (TenantModel) TableName() string {
	return constants.TableTenants
}

func (TenantModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityTenant
}

func (t *TenantModel) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = id.New(id.PrefixTenant)
	}
	if t.AuthVersion == 0 {
		t.AuthVersion = 1
	}
	return nil
}

// UserModel is a caller account. TenantID is nil for platform operators.
type UserModel struct {
	ID            string       `gorm:"primarykey;size:40"`
	TenantID      *string      `gorm:"size:40;index:idx_users_tenant"`
	Tenant        *TenantModel `gorm:"foreignKey:TenantID"`
	Email         string       `gorm:"uniqueIndex;not null;size:255"`
	Name          string       `gorm:"size:100"`
	Role          string       `gorm:"not null;size:20"`
	DefaultShopID *string      `gorm:"size:40"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserModel) TableName() string {
	return constants.TableUsers
}

func (UserModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityUser
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = id.New(id.PrefixUser)
	}
	return nil
}
