package controllers

import (
	"net/http"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

// Me returns the caller's profile including the current coin balance.
func Me(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
