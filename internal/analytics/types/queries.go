package types

import "time"

// DashboardQueryRequest carries the reporting window for dashboard queries.
type DashboardQueryRequest struct {
	Start time.Time
	End   time.Time
}

// RevenuePoint is one day of sales performance. Margin is pre-formatted
// with one decimal place.
type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Margin  string  `json:"margin"`
}

// TopProduct ranks a product by revenue over the window.
type TopProduct struct {
	ProductID string  `json:"product_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// SupplierSpend aggregates submitted purchase orders per supplier in base
// currency.
type SupplierSpend struct {
	SupplierID string  `json:"supplier_id"`
	Orders     int64   `json:"orders"`
	Spend      float64 `json:"spend"`
}

// DashboardQueryResponse wraps the dashboard KPI sets.
type DashboardQueryResponse struct {
	Revenue       []RevenuePoint  `json:"revenue"`
	TopProducts   []TopProduct    `json:"top_products"`
	SupplierSpend []SupplierSpend `json:"supplier_spend"`
}
