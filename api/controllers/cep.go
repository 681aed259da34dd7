package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/construpro/construpro-backend/api/responses"
	cepsvc "github.com/construpro/construpro-backend/internal/cep"
	"github.com/construpro/construpro-backend/pkg/logger"
)

// CepLookup resolves a postal code through the provider chain.
func CepLookup(svc cepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Lookup(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CepDiagnostic queries every provider for one code and reports each source
// verdict side by side. Support tooling only; not part of the buyer flow.
func CepDiagnostic(svc cepsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		diagnostic, err := svc.RunDiagnostic(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, diagnostic)
	}
}
