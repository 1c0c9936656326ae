package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// MessageHandler handles HTTP requests related to direct messages
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// RegisterMessageRoutes registers messaging routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.PUT("/conversations/:id/read", h.MarkConversationRead)
	g.GET("/messages/unread-count", h.GetUnreadCount)
	g.POST("/messages/:userId", h.SendMessage)
}

// GetConversations lists the user's conversations, most recent first
func (h *MessageHandler) GetConversations(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	conversations, err := h.messages.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, conversations)
}

func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	q, err := pageQuery(c)
	if err != nil {
		return err
	}

	messages, pagination, err := h.messages.GetMessages(c.Request().Context(), userID, id, q)
	if err != nil {
		return serviceError(err)
	}
	return response.Paginated(c, messages, pagination)
}

// SendMessage delivers a direct message. Both parties also receive it over
// the socket as a new-message event.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	recipientID, err := idParam(c, "userId")
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.messages.Send(c.Request().Context(), userID, recipientID, req.Content)
	if err != nil {
		return serviceError(err)
	}
	return response.Created(c, msg)
}

func (h *MessageHandler) MarkConversationRead(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.messages.MarkRead(c.Request().Context(), userID, id); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Conversation marked as read")
}

func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	count, err := h.messages.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, echo.Map{"count": count})
}
