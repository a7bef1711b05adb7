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
	CLVHandler struct {
		validate     *validator.Validate
		predictor    CLVPredictor
		modelService ModelService
	}

	CLVPredictor interface {
		Predict(recency, frequency float64) (domain.CLVPrediction, error)
	}

	ModelService interface {
		ModelInfo(ctx context.Context) (domain.ModelInfo, error)
	}

	// Pointers make an omitted field fail "required" while still allowing 0.
	PredictCLVRequest struct {
		Recency   *float64 `json:"recency" validate:"required,gte=0"`
		Frequency *float64 `json:"frequency" validate:"required,gte=0"`
	}
)

func NewCLVHandler(predictor CLVPredictor, modelService ModelService) *CLVHandler {
	return &CLVHandler{
		validate:     validator.New(),
		predictor:    predictor,
		modelService: modelService,
	}
}

// POST /api/v1/predict/clv
func (h *CLVHandler) Predict(c echo.Context) error {
	var req PredictCLVRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	pred, err := h.predictor.Predict(*req.Recency, *req.Frequency)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, pred)
}

// GET /api/v1/model
func (h *CLVHandler) ModelInfo(c echo.Context) error {
	info, err := h.modelService.ModelInfo(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(info))
}
