package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/domain/task"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/interfaces/dto"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/errors"
	"github.com/retailhub/retailhub/internal/shared/query"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

// Sale statuses
const (
	SaleStatusCompleted = "completed"
	SaleStatusVoid      = "void"
)

type SaleHandler struct {
	jobs task.Enqueuer
}

func NewSaleHandler(jobs task.Enqueuer) *SaleHandler {
	return &SaleHandler{jobs: jobs}
}

// List returns the sales of the resolved shop, newest first.
func (h *SaleHandler) List(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()
	page := utils.ParsePagination(c)
	where := query.Where{"shop_id": *rc.ShopID}
	if status := c.Query("status"); status != "" {
		where["status"] = status
	}

	var sales []models.SaleModel
	err := rc.DB.FindMany(ctx, &sales, where,
		query.WithPage(page.Page, page.PageSize),
		query.WithSort("created_at", "desc"),
	)
	if err != nil {
		return err
	}
	total, err := rc.DB.Count(ctx, &models.SaleModel{}, where)
	if err != nil {
		return err
	}

	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, dto.ToSaleResponse(&sales[i], nil))
	}
	utils.ListSuccessResponse(c, items, total, page.Page, page.PageSize)
	return nil
}

func (h *SaleHandler) Get(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()

	var sale models.SaleModel
	if err := rc.DB.FindUnique(ctx, &sale, query.Where{"id": c.Param("id")}); err != nil {
		return notFoundOr(err, "sale")
	}
	var items []models.SaleItemModel
	if err := rc.DB.FindMany(ctx, &items, query.Where{"sale_id": sale.ID}); err != nil {
		return err
	}

	utils.SuccessResponse(c, http.StatusOK, dto.ToSaleResponse(&sale, items))
	return nil
}

// Create records a sale in the resolved shop. Unit prices come from the
// tenant's product catalogue, never from the request.
func (h *SaleHandler) Create(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()

	var req dto.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return utils.BindingError(err)
	}

	prices, err := h.productPrices(ctx, rc, req.Items)
	if err != nil {
		return err
	}

	sale := &models.SaleModel{
		ShopID:     *rc.ShopID,
		CustomerID: req.CustomerID,
		Status:     SaleStatusCompleted,
	}
	items := make([]models.SaleItemModel, 0, len(req.Items))
	for _, it := range req.Items {
		unit := prices[it.ProductID]
		sale.TotalCents += unit * int64(it.Quantity)
		items = append(items, models.SaleItemModel{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCents: unit,
		})
	}

	err = rc.DB.Transaction(ctx, func(ctx context.Context) error {
		if err := rc.DB.Create(ctx, sale); err != nil {
			return err
		}
		for i := range items {
			items[i].SaleID = sale.ID
		}
		return rc.DB.CreateMany(ctx, &items)
	})
	if err != nil {
		return err
	}

	enqueueAudit(h.jobs, rc, "sale.create", sale.ID, map[string]any{
		"shop_id":     sale.ShopID,
		"total_cents": sale.TotalCents,
	})
	utils.CreatedResponse(c, dto.ToSaleResponse(sale, items))
	return nil
}

func (h *SaleHandler) productPrices(ctx context.Context, rc *middleware.RequestContext, lines []dto.SaleItemRequest) (map[string]int64, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, it := range lines {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	var products []models.ProductModel
	if err := rc.DB.FindMany(ctx, &products, query.Where{"id": ids, "status": "active"}); err != nil {
		return nil, err
	}
	prices := make(map[string]int64, len(products))
	for _, p := range products {
		prices[p.ID] = p.PriceCents
	}
	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, errors.NewValidationError("unknown product " + id)
		}
	}
	return prices, nil
}

// Void marks a sale void. The scoped lookup proves ownership before the
// unscoped by-id update.
func (h *SaleHandler) Void(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()

	var sale models.SaleModel
	if err := rc.DB.FindUnique(ctx, &sale, query.Where{"id": c.Param("id")}); err != nil {
		return notFoundOr(err, "sale")
	}
	if sale.Status == SaleStatusVoid {
		return errors.NewConflictError("sale is already void")
	}

	if _, err := rc.DB.Update(ctx, &models.SaleModel{}, sale.ID, map[string]any{"status": SaleStatusVoid}); err != nil {
		return err
	}
	sale.Status = SaleStatusVoid

	enqueueAudit(h.jobs, rc, "sale.void", sale.ID, nil)
	utils.SuccessResponse(c, http.StatusOK, dto.ToSaleResponse(&sale, nil))
	return nil
}

// Summary reports completed sales per shop across the caller's tenant.
func (h *SaleHandler) Summary(c *gin.Context, rc *middleware.RequestContext) error {
	rows := []dto.ShopSalesSummary{}
	err := rc.DB.GroupBy(c.Request.Context(), &models.SaleModel{},
		query.Where{"status": SaleStatusCompleted},
		[]string{"shop_id"},
		"shop_id, COUNT(*) AS sale_count, COALESCE(SUM(total_cents), 0) AS total_cents",
		&rows,
	)
	if err != nil {
		return err
	}
	utils.SuccessResponse(c, http.StatusOK, rows)
	return nil
}
