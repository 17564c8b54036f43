package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/usecase"
	"lapakchat/pkg/response"
	"lapakchat/pkg/utils"

	apperrors "lapakchat/pkg/errors"
)

type MessagingHandler struct {
	messagingUseCase *usecase.MessagingUseCase
}

func NewMessagingHandler(messagingUseCase *usecase.MessagingUseCase) *MessagingHandler {
	return &MessagingHandler{
		messagingUseCase: messagingUseCase,
	}
}

type startConversationRequest struct {
	CounterpartyID   string `json:"counterparty_id" validate:"required"`
	CounterpartyKind string `json:"counterparty_kind" validate:"omitempty,oneof=buyer shop"`
	ContextKey       string `json:"context_key"`
	Title            string `json:"title"`
	InitialMessage   string `json:"initial_message"`
}

type sendMessageRequest struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments,omitempty"`
}

type markReadRequest struct {
	UpTo string `json:"up_to" validate:"omitempty"`
}

// participant resolves the authenticated principal into a typed reference.
func (h *MessagingHandler) participant(c echo.Context) (entity.ParticipantRef, error) {
	uid, _ := c.Get("uid").(string)
	return h.messagingUseCase.ResolveParticipant(c.Request().Context(), uid)
}

// StartConversation opens (or finds) the thread between the caller and a
// counterparty, optionally scoped to a context key such as a product id.
func (h *MessagingHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()

	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	var counterparty entity.ParticipantRef
	if req.CounterpartyKind != "" {
		counterparty = entity.ParticipantRef{
			Kind: entity.ParticipantKind(req.CounterpartyKind),
			ID:   req.CounterpartyID,
		}
	} else {
		counterparty, err = h.messagingUseCase.ResolveParticipant(ctx, req.CounterpartyID)
		if err != nil {
			return response.Error(c, err)
		}
	}

	result, err := h.messagingUseCase.LookupOrCreateConversation(
		ctx,
		[]entity.ParticipantRef{self, counterparty},
		req.ContextKey,
		req.Title,
	)
	if err != nil {
		return response.Error(c, err)
	}

	if req.InitialMessage != "" {
		if _, err := h.messagingUseCase.SendMessage(ctx, self, usecase.SendMessageInput{
			ConversationID: result.Conversation.ID,
			Text:           req.InitialMessage,
		}); err != nil {
			return response.Error(c, err)
		}
	}

	if result.Created {
		return response.Created(c, result)
	}
	return response.Success(c, result)
}

// ListConversations returns the caller's threads, most recent activity first.
func (h *MessagingHandler) ListConversations(c echo.Context) error {
	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	activeOnly := c.QueryParam("active_only") == "true"
	page := utils.GetPaginationParams(c)

	conversations, total, err := h.messagingUseCase.ListConversations(
		c.Request().Context(), self, activeOnly, page.PageSize, page.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, page.Page, page.PageSize)
}

func (h *MessagingHandler) GetConversation(c echo.Context) error {
	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	conv, err := h.messagingUseCase.GetConversation(c.Request().Context(), self, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conv)
}

func (h *MessagingHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	message, err := h.messagingUseCase.SendMessage(c.Request().Context(), self, usecase.SendMessageInput{
		ConversationID: c.Param("id"),
		Text:           req.Text,
		Attachments:    req.Attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// ListMessages returns a page of a conversation's messages, oldest first.
func (h *MessagingHandler) ListMessages(c echo.Context) error {
	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	page := utils.GetPaginationParams(c)

	messages, total, err := h.messagingUseCase.ListMessages(
		c.Request().Context(), self, c.Param("id"), page.PageSize, page.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, page.Page, page.PageSize)
}

// MarkRead flips unread messages addressed to the caller up to the supplied
// bound (defaults to now) and reports how many changed.
func (h *MessagingHandler) MarkRead(c echo.Context) error {
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	var upTo time.Time
	if req.UpTo != "" {
		parsed, err := time.Parse(time.RFC3339, req.UpTo)
		if err != nil {
			return response.Error(c, apperrors.BadRequest("up_to must be RFC3339", err))
		}
		upTo = parsed
	}

	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	count, err := h.messagingUseCase.MarkRead(c.Request().Context(), self, c.Param("id"), upTo)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"marked_read": count})
}

// UnreadCount returns the caller's unread total for one conversation.
func (h *MessagingHandler) UnreadCount(c echo.Context) error {
	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	count, err := h.messagingUseCase.UnreadCount(c.Request().Context(), self, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]int{"unread": count})
}

// UnreadCounts returns unread totals per conversation for listing views.
func (h *MessagingHandler) UnreadCounts(c echo.Context) error {
	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	counts, err := h.messagingUseCase.UnreadCounts(c.Request().Context(), self)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, counts)
}

// DeactivateConversation closes a thread; history stays queryable.
func (h *MessagingHandler) DeactivateConversation(c echo.Context) error {
	self, err := h.participant(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.messagingUseCase.DeactivateConversation(c.Request().Context(), self, c.Param("id")); err != nil {
		return response.Error(c, err)
	}

	return c.NoContent(http.StatusOK)
}
