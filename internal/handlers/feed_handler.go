package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// FeedHandler handles HTTP requests related to the user's feed
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the authenticated user's merged feed of posts and shares
func (h *FeedHandler) GetFeed(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}
	q, err := pageQuery(c)
	if err != nil {
		return err
	}

	page, err := h.feed.GetFeed(c.Request().Context(), userID, q)
	if err != nil {
		return serviceError(err)
	}
	return response.Paginated(c, page.Items, page.Pagination)
}
