package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/retailhub/retailhub/internal/domain/tenancy"
	"github.com/retailhub/retailhub/internal/shared/constants"
	"github.com/retailhub/retailhub/internal/shared/id"
)

type ShopModel struct {
	ID        string       `gorm:"primarykey;size:40"`
	TenantID  string       `gorm:"not null;size:40;index:idx_shops_tenant"`
	Tenant    *TenantModel `gorm:"foreignKey:TenantID"`
	Name      string       `gorm:"not null;size:120"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ShopModel) TableName() string {
	return constants.TableShops
}

func (ShopModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityShop
}

func (s *ShopModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = id.New(id.PrefixShop)
	}
	return nil
}

type ProductModel struct {
	ID         string `gorm:"primarykey;size:40"`
	TenantID   string `gorm:"not null;size:40;index:idx_products_tenant"`
	Name       string `gorm:"not null;size:120"`
	Status     string `gorm:"not null;size:20;default:active"`
	PriceCents int64  `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (ProductModel) TableName() string {
	return constants.TableProducts
}

func (ProductModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityProduct
}

func (p *ProductModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = id.New(id.PrefixProduct)
	}
	return nil
}

type CustomerModel struct {
	ID        string `gorm:"primarykey;size:40"`
	TenantID  string `gorm:"not null;size:40;index:idx_customers_tenant"`
	Name      string `gorm:"not null;size:120"`
	Email     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CustomerModel) TableName() string {
	return constants.TableCustomers
}

func (CustomerModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntityCustomer
}

func (c *CustomerModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = id.New(id.PrefixCustomer)
	}
	return nil
}

// SaleModel belongs to a shop; its tenant is the shop's tenant.
type SaleModel struct {
	ID         string     `gorm:"primarykey;size:40"`
	ShopID     string     `gorm:"not null;size:40;index:idx_sales_shop"`
	Shop       *ShopModel `gorm:"foreignKey:ShopID"`
	CustomerID *string    `gorm:"size:40"`
	Status     string     `gorm:"not null;size:20;default:open"`
	TotalCents int64      `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (SaleModel) TableName() string {
	return constants.TableSales
}

func (SaleModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntitySale
}

func (s *SaleModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = id.New(id.PrefixSale)
	}
	return nil
}

// SaleItemModel is two hops from its tenant: item -> sale -> shop.
type SaleItemModel struct {
	ID        string     `gorm:"primarykey;size:40"`
	SaleID    string     `gorm:"not null;size:40;index:idx_sale_items_sale"`
	Sale      *SaleModel `gorm:"foreignKey:SaleID"`
	ProductID string     `gorm:"not null;size:40"`
	Quantity  int        `gorm:"not null;default:1"`
	UnitCents int64      `gorm:"not null;default:0"`
	CreatedAt time.Time
}

func (SaleItemModel) TableName() string {
	return constants.TableSaleItems
}

func (SaleItemModel) ScopeEntity() tenancy.Entity {
	return tenancy.EntitySaleItem
}

func (s *SaleItemModel) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = id.New(id.PrefixSaleItem)
	}
	return nil
}
