package rest

import (
	"context"
	"net/http"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"salesInsight/domain"
)

type (
	RFMHandler struct {
		validate   *validator.Validate
		rfmService RFMService
	}

	RFMService interface {
		ListSegments(ctx context.Context) ([]domain.RFMSegmentView, error)
		GetCustomer(ctx context.Context, customerID int64) (domain.RFMRecord, error)
		SegmentCounts(ctx context.Context) (map[domain.Segment]int, error)
	}

	CustomerParam struct {
		CustomerID int64 `param:"customer_id" validate:"required,gt=0"`
	}

	SegmentListQuery struct {
		Segment string `query:"segment" validate:"omitempty,oneof=VIP Loyal Regular At_Risk"`
	}
)

func NewRFMHandler(svc RFMService) *RFMHandler {
	return &RFMHandler{
		validate:   validator.New(),
		rfmService: svc,
	}
}

// GET /api/v1/rfm/segments?segment=VIP
func (h *RFMHandler) ListSegments(c echo.Context) error {
	var q SegmentListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	views, err := h.rfmService.ListSegments(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	if q.Segment != "" {
		filtered := make([]domain.RFMSegmentView, 0, len(views))
		for _, v := range views {
			if v.Segment == domain.Segment(q.Segment) {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(views))
}

// GET /api/v1/rfm/segments/:customer_id
func (h *RFMHandler) GetCustomer(c echo.Context) error {
	var p CustomerParam
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&p); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	rec, err := h.rfmService.GetCustomer(c.Request().Context(), p.CustomerID)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rec))
}

// GET /api/v1/rfm/segments/summary
func (h *RFMHandler) SegmentSummary(c echo.Context) error {
	counts, err := h.rfmService.SegmentCounts(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(counts))
}
