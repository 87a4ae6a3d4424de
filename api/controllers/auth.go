package controllers

import (
	"context"
	"net/http"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/api/validators"
	"github.com/shiksha-labs/prashnagen/internal/auth"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

// AuthLogin wires the user login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return login(svc, logg, auth.Service.Login)
}

// AdminAuthLogin only issues tokens to admin accounts.
func AdminAuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return login(svc, logg, auth.Service.AdminLogin)
}

type loginFunc func(auth.Service, context.Context, auth.LoginRequest) (*auth.LoginResponse, error)

func login(svc auth.Service, logg *logger.Logger, do loginFunc) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := do(svc, r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
