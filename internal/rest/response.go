package rest

import (
	"github.com/labstack/echo/v4"

	"salesInsight/internal/middleware"
)

// ResponseError represent the response error struct
type ResponseError struct {
	Message string `json:"message"`
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(middleware.StatusFor(err), ResponseError{Message: err.Error()})
}
