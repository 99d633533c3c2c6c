package dto

import (
	"time"

	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
)

type SaleItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type CreateSaleRequest struct {
	CustomerID *string           `json:"customer_id"`
	Items      []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SaleItemResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitCents int64  `json:"unit_cents"`
}

type SaleResponse struct {
	ID         string             `json:"id"`
	ShopID     string             `json:"shop_id"`
	CustomerID *string            `json:"customer_id,omitempty"`
	Status     string             `json:"status"`
	TotalCents int64              `json:"total_cents"`
	Items      []SaleItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

func ToSaleResponse(m *models.SaleModel, items []models.SaleItemModel) SaleResponse {
	resp := SaleResponse{
		ID:         m.ID,
		ShopID:     m.ShopID,
		CustomerID: m.CustomerID,
		Status:     m.Status,
		TotalCents: m.TotalCents,
		CreatedAt:  m.CreatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, SaleItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitCents: item.UnitCents,
		})
	}
	return resp
}

// ShopSalesSummary is one row of the per-shop sales report.
type ShopSalesSummary struct {
	ShopID     string `json:"shop_id"`
	SaleCount  int64  `json:"sale_count"`
	TotalCents int64  `json:"total_cents"`
}
