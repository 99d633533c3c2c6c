package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/retailhub/retailhub/internal/domain/task"
	"github.com/retailhub/retailhub/internal/infrastructure/persistence/models"
	"github.com/retailhub/retailhub/internal/interfaces/dto"
	"github.com/retailhub/retailhub/internal/interfaces/http/middleware"
	"github.com/retailhub/retailhub/internal/shared/errors"
	"github.com/retailhub/retailhub/internal/shared/query"
	"github.com/retailhub/retailhub/internal/shared/utils"
)

type MessageHandler struct {
	jobs task.Enqueuer
}

func NewMessageHandler(jobs task.Enqueuer) *MessageHandler {
	return &MessageHandler{jobs: jobs}
}

// List returns the caller's conversation history, newest first.
func (h *MessageHandler) List(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()
	page := utils.ParsePagination(c)
	me := rc.Identity.ID
	where := query.AnyOf(
		query.Where{"sender_id": me},
		query.Where{"receiver_id": me},
	)

	var messages []models.MessageModel
	err := rc.DB.FindMany(ctx, &messages, where,
		query.WithPage(page.Page, page.PageSize),
		query.WithSort("created_at", "desc"),
	)
	if err != nil {
		return err
	}
	total, err := rc.DB.Count(ctx, &models.MessageModel{}, where)
	if err != nil {
		return err
	}

	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, dto.ToMessageResponse(&messages[i]))
	}
	utils.ListSuccessResponse(c, items, total, page.Page, page.PageSize)
	return nil
}

// Send delivers a message to a user of the caller's tenant and mails them a
// notification.
func (h *MessageHandler) Send(c *gin.Context, rc *middleware.RequestContext) error {
	ctx := c.Request.Context()

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return utils.BindingError(err)
	}
	if req.ReceiverID == rc.Identity.ID {
		return errors.NewValidationError("cannot message yourself")
	}

	var receiver models.UserModel
	if err := rc.DB.FindUnique(ctx, &receiver, query.Where{"id": req.ReceiverID}); err != nil {
		return notFoundOr(err, "receiver")
	}

	msg := &models.MessageModel{
		SenderID:   rc.Identity.ID,
		ReceiverID: receiver.ID,
		Body:       req.Body,
	}
	if err := rc.DB.Create(ctx, msg); err != nil {
		return err
	}

	enqueueEmail(h.jobs, rc, receiver.Email,
		"New message",
		fmt.Sprintf("%s sent you a message:\n\n%s", rc.Identity.Email, msg.Body))
	utils.CreatedResponse(c, dto.ToMessageResponse(msg))
	return nil
}
