package controllers

import (
	"context"
	"net/http"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/api/validators"
	"github.com/shiksha-labs/prashnagen/internal/auth"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

// AuthRegister opens an account, credits the signup bonus and logs the new user in.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if reg == nil {
		return unavailableHandler("registration", logg)
	}
	credentials := func(req auth.RegisterRequest) auth.LoginRequest {
		return auth.LoginRequest{Email: req.Email, Password: req.Password}
	}
	return registerThenLogin(reg.Register, credentials, auth.Service.Login, svc, logg)
}

// AdminAuthRegister creates an admin account; the router only mounts it when the feature flag is on.
func AdminAuthRegister(reg auth.AdminRegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if reg == nil {
		return unavailableHandler("admin registration", logg)
	}
	credentials := func(req auth.AdminRegisterRequest) auth.LoginRequest {
		return auth.LoginRequest{Email: req.Email, Password: req.Password}
	}
	return registerThenLogin(reg.Register, credentials, auth.Service.AdminLogin, svc, logg)
}

func registerThenLogin[T any](
	register func(context.Context, T) (*users.UserDTO, error),
	credentials func(T) auth.LoginRequest,
	login loginFunc,
	svc auth.Service,
	logg *logger.Logger,
) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := register(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := login(svc, r.Context(), credentials(body))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func unavailableHandler(name string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, unavailable(name))
	}
}
