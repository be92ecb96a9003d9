package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"

	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	"github.com/jasirilabs/lats-backend/pkg/bigquery"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/money"
)

const (
	revenueSeriesSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(sold_at, DAY)) AS day,
  SUM(COALESCE(revenue, 0)) AS revenue,
  SUM(COALESCE(cost, 0)) AS cost
FROM %s
WHERE sold_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topProductsSQL = `
SELECT
  product_id,
  ANY_VALUE(sku) AS sku,
  ANY_VALUE(name) AS name,
  SUM(quantity) AS quantity,
  SUM(COALESCE(revenue, 0)) AS revenue
FROM %s
WHERE sold_at BETWEEN @start AND @end
GROUP BY product_id
ORDER BY revenue DESC
LIMIT %d
`

	supplierSpendSQL = `
SELECT
  supplier_id,
  COUNT(DISTINCT order_id) AS orders,
  SUM(COALESCE(total_base_amount, 0)) AS spend
FROM %s
WHERE supplier_id IS NOT NULL
  AND submitted_at BETWEEN @start AND @end
GROUP BY supplier_id
ORDER BY spend DESC
`
)

const topProductsLimit = 5

// DashboardService provides dashboard KPIs from the BigQuery fact tables.
type DashboardService interface {
	Query(ctx context.Context, req types.DashboardQueryRequest) (*types.DashboardQueryResponse, error)
}

type dashboardService struct {
	client *bigquery.Client
}

// NewDashboardService builds a dashboard query service backed by BigQuery.
func NewDashboardService(client *bigquery.Client) (DashboardService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	return &dashboardService{client: client}, nil
}

func (s *dashboardService) Query(ctx context.Context, req types.DashboardQueryRequest) (*types.DashboardQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}

	salesRef := s.client.TableRef(s.client.SalesFactsTable())
	purchaseRef := s.client.TableRef(s.client.PurchaseFactsTable())

	revenue, err := s.queryRevenueSeries(ctx, fmt.Sprintf(revenueSeriesSQL, salesRef), params)
	if err != nil {
		return nil, err
	}
	topProducts, err := s.queryTopProducts(ctx, fmt.Sprintf(topProductsSQL, salesRef, topProductsLimit), params)
	if err != nil {
		return nil, err
	}
	supplierSpend, err := s.querySupplierSpend(ctx, fmt.Sprintf(supplierSpendSQL, purchaseRef), params)
	if err != nil {
		return nil, err
	}

	return &types.DashboardQueryResponse{
		Revenue:       revenue,
		TopProducts:   topProducts,
		SupplierSpend: supplierSpend,
	}, nil
}

func validateRequest(req types.DashboardQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *dashboardService) queryRevenueSeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.RevenuePoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query revenue series: %w", err)
	}

	var points []types.RevenuePoint
	for {
		var row struct {
			Day     string  `bigquery:"day"`
			Revenue float64 `bigquery:"revenue"`
			Cost    float64 `bigquery:"cost"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading revenue row: %w", err)
		}
		points = append(points, types.RevenuePoint{
			Date:    row.Day,
			Revenue: row.Revenue,
			Cost:    row.Cost,
			Margin:  marginFor(row.Revenue, row.Cost),
		})
	}
	return points, nil
}

func (s *dashboardService) queryTopProducts(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TopProduct, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}

	var result []types.TopProduct
	for {
		var row struct {
			ProductID string  `bigquery:"product_id"`
			SKU       string  `bigquery:"sku"`
			Name      string  `bigquery:"name"`
			Quantity  int64   `bigquery:"quantity"`
			Revenue   float64 `bigquery:"revenue"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top product row: %w", err)
		}
		result = append(result, types.TopProduct{
			ProductID: row.ProductID,
			SKU:       row.SKU,
			Name:      row.Name,
			Quantity:  row.Quantity,
			Revenue:   row.Revenue,
		})
	}
	return result, nil
}

func (s *dashboardService) querySupplierSpend(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.SupplierSpend, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query supplier spend: %w", err)
	}

	var result []types.SupplierSpend
	for {
		var row struct {
			SupplierID cloudbigquery.NullString `bigquery:"supplier_id"`
			Orders     int64                    `bigquery:"orders"`
			Spend      float64                  `bigquery:"spend"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading supplier spend row: %w", err)
		}
		result = append(result, types.SupplierSpend{
			SupplierID: row.SupplierID.StringVal,
			Orders:     row.Orders,
			Spend:      row.Spend,
		})
	}
	return result, nil
}

// marginFor renders (revenue - cost) / revenue as a percentage with one
// decimal place. Zero revenue reports a 0.0% margin.
func marginFor(revenue, cost float64) string {
	if revenue == 0 {
		return money.FormatMargin(decimal.Zero)
	}
	rev := decimal.NewFromFloat(revenue)
	profit := rev.Sub(decimal.NewFromFloat(cost))
	return money.FormatMargin(profit.Div(rev).Mul(decimal.NewFromInt(100)))
}
