// Package response renders the uniform {success, data|error} JSON envelope.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

const internalErrorMessage = "Internal server error"

type Body struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Pagination interface{} `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Body{Success: true, Message: msg})
}

func Paginated(c echo.Context, data, pagination interface{}) error {
	return c.JSON(http.StatusOK, Body{Success: true, Data: data, Pagination: pagination})
}

// ErrorHandler is the top-level fallback for every error a handler returns.
// HTTP errors keep their status and message; anything else is logged and
// reported as a generic 500.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := internalErrorMessage

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if he.Internal != nil {
			logger.Error("handler error",
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(he.Internal))
		}
		if status < http.StatusInternalServerError {
			msg = fmt.Sprint(he.Message)
		}
	} else {
		logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}

	body := Body{Success: false, Error: msg}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		logger.Error("failed to write error response", zap.Error(err))
	}
}
