package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// FollowHandler handles HTTP requests related to following users
type FollowHandler struct {
	follows *services.FollowService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(follows *services.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
}

// FollowUser makes the authenticated user follow another user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.follows.Follow(c.Request().Context(), userID, targetID); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Followed successfully")
}

// UnfollowUser removes the follow edge, if any
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.follows.Unfollow(c.Request().Context(), userID, targetID); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Unfollowed successfully")
}

func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	targetID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	status, err := h.follows.Status(c.Request().Context(), userID, targetID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, status)
}

// GetFollowers lists users following the given user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	q, err := pageQuery(c)
	if err != nil {
		return err
	}

	users, pagination, err := h.follows.Followers(c.Request().Context(), id, q)
	if err != nil {
		return serviceError(err)
	}
	return response.Paginated(c, users, pagination)
}

// GetFollowing lists users the given user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	q, err := pageQuery(c)
	if err != nil {
		return err
	}

	users, pagination, err := h.follows.Following(c.Request().Context(), id, q)
	if err != nil {
		return serviceError(err)
	}
	return response.Paginated(c, users, pagination)
}
