package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// ShareHandler handles HTTP requests related to shares
type ShareHandler struct {
	shares *services.ShareService
}

// NewShareHandler creates a new ShareHandler
func NewShareHandler(shares *services.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

// RegisterShareRoutes registers share-related routes
func (h *ShareHandler) RegisterShareRoutes(g *echo.Group) {
	g.POST("/posts/:id/share", h.SharePost)
	g.GET("/shares/:id", h.GetShare)
	g.PUT("/shares/:id", h.UpdateShare)
	g.DELETE("/shares/:id", h.DeleteShare)
}

// SharePost re-posts a post with an optional caption
func (h *ShareHandler) SharePost(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreateShareRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	share, err := h.shares.Create(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return serviceError(err)
	}
	return response.Created(c, share)
}

func (h *ShareHandler) GetShare(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	share, err := h.shares.Get(c.Request().Context(), userID, id)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, share)
}

// UpdateShare changes the caption or audience of the caller's own share
func (h *ShareHandler) UpdateShare(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateShareRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	share, err := h.shares.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, share)
}

func (h *ShareHandler) DeleteShare(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.shares.Delete(c.Request().Context(), userID, id); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Share deleted successfully")
}
