package router

import (
	"github.com/labstack/echo/v4"

	"salesInsight/internal/rest"
)

func SetHealthRoutes(api *echo.Group, handler *rest.HealthHandler) {
	api.GET("/health", handler.Health)
}

func SetRFMRoutes(api *echo.Group, handler *rest.RFMHandler) {
	rfm := api.Group("/rfm")
	rfm.GET("/segments", handler.ListSegments)
	rfm.GET("/segments/summary", handler.SegmentSummary)
	rfm.GET("/segments/:customer_id", handler.GetCustomer)
}

func SetCLVRoutes(api *echo.Group, handler *rest.CLVHandler) {
	api.POST("/predict/clv", handler.Predict)
	api.GET("/model", handler.ModelInfo)
}

func SetStatsRoutes(api *echo.Group, handler *rest.StatsHandler) {
	stats := api.Group("/stats")
	stats.GET("/summary", handler.Summary)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler) {
	admin := api.Group("/admin")
	admin.POST("/reload", handler.Reload)
	admin.POST("/refresh", handler.Refresh)
}
