package dto

import (
	"time"

	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
)

type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" binding:"required"`
	Body       string `json:"body" binding:"required,max=4000"`
}

type MessageResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

func ToMessageResponse(m *models.MessageModel) MessageResponse {
	return MessageResponse{
		ID:         m.ID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}
