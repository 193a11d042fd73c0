package controllers

import (
	"net/http"

	"github.com/jortegadev/ims-backend/api/responses"
	"github.com/jortegadev/ims-backend/api/validators"
	pricingsvc "github.com/jortegadev/ims-backend/internal/pricing"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/logger"
)

// PricingQuote answers "what would this quantity cost right now" using the
// product's active promotion.
func PricingQuote(svc pricingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pricing service unavailable"))
			return
		}

		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), pricingsvc.QuoteRequest{
			ProductID: productID,
			Quantity:  quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
