package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/middleware"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
	"github.com/mattkerbyy/bubbly/backend/pkg/response"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post from JSON or a multipart form with files
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var (
		req     models.CreatePostRequest
		uploads []services.Upload
	)
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
		}
		if v := form.Value["content"]; len(v) > 0 {
			req.Content = &v[0]
		}
		if v := form.Value["audience"]; len(v) > 0 {
			req.Audience = models.Audience(v[0])
		}
		files := form.File["files"]
		if len(files) > models.MaxPostFiles {
			return echo.NewHTTPError(http.StatusBadRequest, "A post can have at most 10 files")
		}
		opened, err := openAll(files)
		defer closeAll(opened)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Could not read uploaded file")
		}
		for i, f := range opened {
			uploads = append(uploads, services.Upload{Filename: files[i].Filename, Content: f})
		}
	} else if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	post, err := h.posts.Create(c.Request().Context(), userID, req, uploads)
	if err != nil {
		return serviceError(err)
	}
	return response.Created(c, post)
}

func openAll(headers []*multipart.FileHeader) ([]multipart.File, error) {
	files := make([]multipart.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return files, err
		}
		files = append(files, f)
	}
	return files, nil
}

func closeAll(files []multipart.File) {
	for _, f := range files {
		f.Close()
	}
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, post)
}

// UpdatePost updates an existing post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.posts.Update(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return serviceError(err)
	}
	return response.Success(c, post)
}

// DeletePost deletes a post and everything attached to it
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), userID, c.Param("id")); err != nil {
		return serviceError(err)
	}
	return response.Message(c, "Post deleted successfully")
}
