package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, Body) {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.GET("/", h)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body Body
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandler_HTTPError(t *testing.T) {
	rec, body := serve(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusForbidden, "You cannot view this post")
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "You cannot view this post", body.Error)
}

func TestErrorHandler_UnexpectedErrorIsHidden(t *testing.T) {
	rec, body := serve(t, func(c echo.Context) error {
		return errors.New("pq: relation \"users\" does not exist")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalErrorMessage, body.Error)
}

func TestErrorHandler_InternalHTTPErrorIsHidden(t *testing.T) {
	rec, body := serve(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusInternalServerError, "db exploded").SetInternal(errors.New("boom"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalErrorMessage, body.Error)
}

func TestPaginated(t *testing.T) {
	rec, body := serve(t, func(c echo.Context) error {
		return Paginated(c, []int{1, 2}, map[string]int{"currentPage": 1})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body.Success)
	assert.NotNil(t, body.Pagination)
}
