package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"salesInsight/domain"
	"salesInsight/pkg/logger"
)

type errorResponse struct {
	Message string `json:"message"`
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFeature), errors.Is(err, domain.ErrInvalidTrainOptions):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyInput),
		errors.Is(err, domain.ErrInsufficientPopulation),
		errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrModelFit):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrCorruptArtifact):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler renders any error that reaches echo as {"message": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, errorResponse{Message: msg})
	}
	if werr != nil {
		logger.Error("failed to write error response", "error", werr)
	}
}
