package analytics

import (
	"context"
	"fmt"

	"github.com/jasirilabs/lats-backend/internal/analytics/query"
	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	"github.com/jasirilabs/lats-backend/pkg/bigquery"
)

// Service provides dashboard reports built from the BigQuery fact tables.
type Service interface {
	// Query returns dashboard KPIs for the provided reporting window.
	Query(ctx context.Context, req types.DashboardQueryRequest) (*types.DashboardQueryResponse, error)
}

type service struct {
	dashboard query.DashboardService
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client *bigquery.Client) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}

	dashboard, err := query.NewDashboardService(client)
	if err != nil {
		return nil, err
	}

	return &service{dashboard: dashboard}, nil
}

func (s *service) Query(ctx context.Context, req types.DashboardQueryRequest) (*types.DashboardQueryResponse, error) {
	return s.dashboard.Query(ctx, req)
}
