package api

import (
	"errors"
	"net/http"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/labstack/echo/v4"
)

// APIResponse wraps every JSON body served by the API.
type APIResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func successResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    data,
	})
}

// errorHandler renders errors returned by handlers in the APIResponse shape.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if m, ok := httpErr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		s.log.Error("Request failed", logField(c), logger.Err(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, APIResponse{Status: code, Message: message})
}
