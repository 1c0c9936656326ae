package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/services"
)

// serviceError translates a service error into an HTTP error. Anything
// without a kind is an internal failure; its detail is logged, not returned.
func serviceError(err error) error {
	var se *services.Error
	if !errors.As(err, &se) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
	}

	status := http.StatusInternalServerError
	switch se.Kind {
	case services.ErrValidation:
		status = http.StatusBadRequest
	case services.ErrUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrForbidden:
		status = http.StatusForbidden
	case services.ErrNotFound:
		status = http.StatusNotFound
	case services.ErrConflict:
		status = http.StatusConflict
	case services.ErrUnavailable:
		status = http.StatusServiceUnavailable
	}
	return echo.NewHTTPError(status, se.Message)
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// pageQuery parses ?page&limit. Missing values take the defaults; anything
// non-numeric or out of range is a 400.
func pageQuery(c echo.Context) (models.PageQuery, error) {
	q := models.NewPageQuery()
	if err := echo.QueryParamsBinder(c).Int("page", &q.Page).Int("limit", &q.Limit).BindError(); err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	if err := c.Validate(&q); err != nil {
		return q, err
	}
	return q, nil
}
