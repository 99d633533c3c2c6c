package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/domain/task"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/interfaces/dto"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/authorization"
	"github.com/retailhub/retailhub/internal/shared/errors"
	"github.com/retailhub/retailhub/internal/shared/query"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

type LeaveHandler struct {
	jobs task.Enqueuer
}

func NewLeaveHandler(jobs task.Enqueuer) *LeaveHandler {
	return &LeaveHandler{jobs: jobs}
}

func (h *LeaveHandler) Create(c *gin.Context, rc *middleware.RequestContext) error {
	var req dto.CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return utils.BindingError(err)
	}

	leave := &models.LeaveRequestModel{
		UserID:   rc.Identity.ID,
		StartsOn: req.StartsOn,
		EndsOn:   req.EndsOn,
		Reason:   req.Reason,
		Status:   models.LeaveStatusPending,
	}
	if err := rc.DB.Create(c.Request.Context(), leave); err != nil {
		return err
	}

	enqueueAudit(h.jobs, rc, "leave.request", leave.ID, nil)
	utils.CreatedResponse(c, dto.ToLeaveRequestResponse(leave))
	return nil
}

// List shows staff their own requests and managers every request of the
// tenant.
func (h *LeaveHandler) List(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()
	page := utils.ParsePagination(c)

	where := query.Where{}
	if rc.Identity.Role == authorization.RoleStaff {
		where["user_id"] = rc.Identity.ID
	}
	if status := c.Query("status"); status != "" {
		where["status"] = status
	}

	var leaves []models.LeaveRequestModel
	err := rc.DB.FindMany(ctx, &leaves, where,
		query.WithPage(page.Page, page.PageSize),
		query.WithSort("starts_on", "asc"),
	)
	if err != nil {
		return err
	}
	total, err := rc.DB.Count(ctx, &models.LeaveRequestModel{}, where)
	if err != nil {
		return err
	}

	items := make([]dto.LeaveRequestResponse, 0, len(leaves))
	for i := range leaves {
		items = append(items, dto.ToLeaveRequestResponse(&leaves[i]))
	}
	utils.ListSuccessResponse(c, items, total, page.Page, page.PageSize)
	return nil
}

// Decide approves or rejects a pending request and notifies its author.
func (h *LeaveHandler) Decide(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()

	var req dto.DecideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return utils.BindingError(err)
	}

	var leave models.LeaveRequestModel
	if err := rc.DB.FindUnique(ctx, &leave, query.Where{"id": c.Param("id")}); err != nil {
		return notFoundOr(err, "leave request")
	}
	if leave.Status != models.LeaveStatusPending {
		return errors.NewConflictError("leave request is already " + leave.Status)
	}
	if leave.UserID == rc.Identity.ID {
		return errors.NewForbiddenError("cannot decide your own leave request")
	}

	if _, err := rc.DB.Update(ctx, &models.LeaveRequestModel{}, leave.ID, map[string]any{"status": req.Status}); err != nil {
		return err
	}
	leave.Status = req.Status

	enqueueAudit(h.jobs, rc, "leave."+req.Status, leave.ID, map[string]any{"user_id": leave.UserID})

	var author models.UserModel
	if err := rc.DB.FindUnique(ctx, &author, query.Where{"id": leave.UserID}); err == nil {
		enqueueEmail(h.jobs, rc, author.Email,
			"Leave request "+req.Status,
			fmt.Sprintf("Your leave from %s to %s was %s.",
				leave.StartsOn.Format("2006-01-02"), leave.EndsOn.Format("2006-01-02"), req.Status))
	} else {
		rc.Logger.Warnw("leave author not found, skipping notification", "user_id", leave.UserID, "error", err)
	}

	utils.SuccessResponse(c, http.StatusOK, dto.ToLeaveRequestResponse(&leave))
	return nil
}
