package controllers

import (
	"net/http"
	"time"

	"github.com/jasirilabs/lats-backend/api/responses"
	"github.com/jasirilabs/lats-backend/api/validators"
	analyticssvc "github.com/jasirilabs/lats-backend/internal/analytics"
	"github.com/jasirilabs/lats-backend/internal/analytics/types"
	pkgerrors "github.com/jasirilabs/lats-backend/pkg/errors"
	"github.com/jasirilabs/lats-backend/pkg/logger"
)

const defaultDashboardWindow = 30 * 24 * time.Hour

// AnalyticsDashboard serves the aggregated revenue, top-product and
// supplier-spend views. The window defaults to the trailing 30 days.
func AnalyticsDashboard(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeDependency, "analytics is not configured"))
			return
		}
		end, err := validators.ParseQueryTime(r, "end")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		start, err := validators.ParseQueryTime(r, "start")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		endAt := time.Now().UTC()
		if end != nil {
			endAt = end.UTC()
		}
		startAt := endAt.Add(-defaultDashboardWindow)
		if start != nil {
			startAt = start.UTC()
		}
		if !startAt.Before(endAt) {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "start must be before end"))
			return
		}

		dashboard, err := svc.Query(r.Context(), types.DashboardQueryRequest{
			Start: startAt,
			End:   endAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dashboard)
	}
}
