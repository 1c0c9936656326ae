package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	users *services.UserService
	posts *services.PostService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService, posts *services.PostService) *UserHandler {
	return &UserHandler{users: users, posts: posts}
}

// RegisterUserRoutes registers user-related routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
	g.GET("/users/:id/status", h.GetStatus)
	g.GET("/users/:id/posts", h.GetUserPosts)
}

// GetProfile returns the authenticated user
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, user)
}

// UpdateProfile updates name, username and bio of the authenticated user
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.users.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, user)
}

// GetUser returns another user's profile with follow counts
func (h *UserHandler) GetUser(c echo.Context) error {
	viewerID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	profile, err := h.users.GetUserProfile(c.Request().Context(), viewerID, id)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, profile)
}

func (h *UserHandler) SearchUsers(c echo.Context) error {
	users, err := h.users.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, users)
}

func (h *UserHandler) GetStatus(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	online, err := h.users.Status(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, echo.Map{"userId": id, "online": online})
}

// GetUserPosts lists an author's posts the viewer may see
func (h *UserHandler) GetUserPosts(c echo.Context) error {
	viewerID, err := middleware.UserIDFromContext(c)
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

	posts, pagination, err := h.posts.ListByUser(c.Request().Context(), viewerID, id, q)
	if err != nil {
		return serviceError(err)
	}
	return response.Paginated(c, posts, pagination)
}
