package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"

	"salesInsight/domain"
)

type (
	StatsHandler struct {
		statsService StatsService
		timeout      time.Duration
	}

	StatsService interface {
		Summary(ctx context.Context) (domain.SalesSummary, error)
	}
)

func NewStatsHandler(svc StatsService, timeout time.Duration) *StatsHandler {
	return &StatsHandler{
		statsService: svc,
		timeout:      timeout,
	}
}

// GET /api/v1/stats/summary
func (h *StatsHandler) Summary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	summary, err := h.statsService.Summary(ctx)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(summary))
}
