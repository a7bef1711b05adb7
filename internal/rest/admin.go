package rest

import (
	"context"
	"net/http"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"

	"salesInsight/business/refresh"
	"salesInsight/pkg/logger"
)

type (
	AdminHandler struct {
		reloaders map[string]Reloader
		refresher Refresher
	}

	Reloader interface {
		Reload(ctx context.Context) error
		Loaded() bool
	}

	Refresher interface {
		Run(ctx context.Context) (refresh.Result, error)
	}

	ReloadResponse struct {
		Loaded map[string]bool   `json:"loaded"`
		Errors map[string]string `json:"errors,omitempty"`
	}

	RefreshResponse struct {
		Customers    int    `json:"customers"`
		ModelVersion string `json:"model_version"`
		DurationMS   int64  `json:"duration_ms"`
	}
)

// NewAdminHandler takes the serving handles keyed by name; refresher may be nil.
func NewAdminHandler(reloaders map[string]Reloader, refresher Refresher) *AdminHandler {
	return &AdminHandler{
		reloaders: reloaders,
		refresher: refresher,
	}
}

// POST /api/v1/admin/reload
func (h *AdminHandler) Reload(c echo.Context) error {
	ctx := c.Request().Context()
	resp := ReloadResponse{Loaded: make(map[string]bool, len(h.reloaders))}

	for name, r := range h.reloaders {
		if err := r.Reload(ctx); err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[name] = err.Error()
		}
		resp.Loaded[name] = r.Loaded()
	}

	status := http.StatusOK
	if len(resp.Errors) > 0 {
		status = http.StatusInternalServerError
		logger.Warn("admin reload finished with errors", "errors", resp.Errors)
	}
	return c.JSON(status, resp)
}

// POST /api/v1/admin/refresh
func (h *AdminHandler) Refresh(c echo.Context) error {
	if h.refresher == nil {
		return c.JSON(http.StatusNotImplemented, ResponseError{Message: "refresh is not configured"})
	}

	res, err := h.refresher.Run(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(RefreshResponse{
		Customers:    res.Customers,
		ModelVersion: res.ModelVersion,
		DurationMS:   res.Duration.Milliseconds(),
	}))
}
