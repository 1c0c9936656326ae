package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.create(models.SubjectPost))
	g.GET("/posts/:id/comments", h.list(models.SubjectPost))
	g.POST("/shares/:id/comments", h.create(models.SubjectShare))
	g.GET("/shares/:id/comments", h.list(models.SubjectShare))
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

func (h *CommentHandler) create(subject models.SubjectType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := middleware.UserIDFromContext(c)
		if err != nil {
			return err
		}

		var req models.CreateCommentRequest
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}

		comment, err := h.comments.Add(c.Request().Context(), userID, subject, c.Param("id"), req.Content)
		if err != nil {
			return serviceError(err)
		}
		return response.Created(c, comment)
	}
}

func (h *CommentHandler) list(subject models.SubjectType) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := middleware.UserIDFromContext(c)
		if err != nil {
			return err
		}
		q, err := pageQuery(c)
		if err != nil {
			return err
		}

		comments, pagination, err := h.comments.List(c.Request().Context(), userID, subject, c.Param("id"), q)
		if err != nil {
			return serviceError(err)
		}
		return response.Paginated(c, comments, pagination)
	}
}

// UpdateComment edits the caller's own comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.comments.Update(c.Request().Context(), userID, id, req.Content)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, comment)
}

// DeleteComment deletes the caller's own comment
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.Request().Context(), userID, id); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Comment deleted successfully")
}
