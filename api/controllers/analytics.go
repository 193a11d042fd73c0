package controllers

import (
	"net/http"

	"github.com/jortegadev/ims-backend/api/responses"
	analyticssvc "github.com/jortegadev/ims-backend/internal/analytics"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/logger"
)

func AnalyticsDashboard(svc analyticssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		stats, err := svc.Dashboard(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
