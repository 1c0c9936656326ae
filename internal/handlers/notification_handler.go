package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// NotificationHandler handles HTTP requests related to notifications
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification-related routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGrouped)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.DELETE("/notifications/:id", h.DeleteNotification)
}

// GetNotifications retrieves the authenticated user's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	q, err := pageQuery(c)
	if err != nil {
		return err
	}

	notifications, pagination, err := h.notifications.List(c.Request().Context(), userID, q)
	if err != nil {
		return serviceError(err)
	}
	return response.Paginated(c, notifications, pagination)
}

// GetGrouped buckets notifications into today, yesterday, this week and older
func (h *NotificationHandler) GetGrouped(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	grouped, err := h.notifications.Grouped(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, grouped)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, echo.Map{"count": count})
}

// MarkAsRead marks a single notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(c.Request().Context(), userID, id); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Notification marked as read")
}

// MarkAllAsRead marks every unread notification of the user as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	updated, err := h.notifications.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, echo.Map{"updated": updated})
}

func (h *NotificationHandler) DeleteNotification(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.Delete(c.Request().Context(), userID, id); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Notification deleted successfully")
}
