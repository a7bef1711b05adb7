package domain

type SalesSummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	TotalCustomers int     `json:"total_customers"`
	TopTerritory   *string `json:"top_territory"`
	TopProduct     *int64  `json:"top_product"`
}
