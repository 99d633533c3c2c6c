package dto

import (
	"time"

	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
)

type CreateLeaveRequest struct {
	StartsOn time.Time `json:"starts_on" binding:"required"`
	EndsOn   time.Time `json:"ends_on" binding:"required,gtefield=StartsOn"`
	Reason   string    `json:"reason" binding:"max=500"`
}

type DecideLeaveRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

type LeaveRequestResponse struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	StartsOn time.Time `json:"starts_on"`
	EndsOn   time.Time `json:"ends_on"`
	Reason   string    `json:"reason,omitempty"`
	Status   string    `json:"status"`
}

func ToLeaveRequestResponse(m *models.LeaveRequestModel) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		StartsOn: m.StartsOn,
		EndsOn:   m.EndsOn,
		Reason:   m.Reason,
		Status:   m.Status,
	}
}
