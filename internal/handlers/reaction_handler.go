package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// ReactionHandler handles HTTP requests related to reactions on posts and shares
type ReactionHandler struct {
	reactions *services.ReactionService
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// RegisterReactionRoutes registers reaction-related routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.POST("/posts/:id/react", h.react(models.SubjectPost))
	g.GET("/posts/:id/reactions", h.summary(models.SubjectPost))
	g.POST("/shares/:id/react", h.react(models.SubjectShare))
	g.GET("/shares/:id/reactions", h.summary(models.SubjectShare))
}

// react toggles the caller's reaction. Sending the current type removes it,
// any other type replaces it.
func (h *ReactionHandler) react(subject models.SubjectType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := middleware.UserIDFromContext(c)
		if err != nil {
			return err
		}

		var req models.ReactRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		res, err := h.reactions.React(c.Request().Context(), userID, subject, c.Param("id"), req.Type)
		if err != nil {
			return serviceError(err)
		}
		return response.Success(c, res)
	}
}

func (h *ReactionHandler) summary(subject models.SubjectType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := middleware.UserIDFromContext(c)
		if err != nil {
			return err
		}

		res, err := h.reactions.Summary(c.Request().Context(), userID, subject, c.Param("id"))
		if err != nil {
			return serviceError(err)
		}
		return response.Success(c, res)
	}
}
