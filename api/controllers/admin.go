package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/api/responses"
	"github.com/shiksha-labs/prashnagen/api/validators"
	"github.com/shiksha-labs/prashnagen/internal/admin"
	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

// AdminListUsers supports q (email or name search), is_active and role filters.
func AdminListUsers(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("admin"))
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var filter users.ListFilter
		if q := validators.ParseQueryString(r, "q", 120); q != nil {
			filter.Search = *q
		}
		if filter.IsActive, err = validators.ParseQueryBool(r, "is_active"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := validators.ParseQueryString(r, "role", 16); raw != nil {
			role, parseErr := enums.ParseSystemRole(*raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInvalidEnum, parseErr, "invalid role"))
				return
			}
			filter.Role = &role
		}
		page, err := svc.ListUsers(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func AdminGetUser(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return idHandler("userId", logg, func(r *http.Request, id uuid.UUID) (*users.UserDTO, error) {
		return svc.GetUser(r.Context(), id)
	})
}

// AdminSetUserActive activates or deactivates an account on behalf of the calling admin.
func AdminSetUserActive(svc admin.Service, active bool, logg *logger.Logger) http.HandlerFunc {
	return idHandler("userId", logg, func(r *http.Request, id uuid.UUID) (*users.UserDTO, error) {
		actorID, err := currentUser(r)
		if err != nil {
			return nil, err
		}
		return svc.SetActive(r.Context(), actorID, id, active)
	})
}

// AdminOverrideBalance sets an absolute balance through an admin_override ledger entry.
func AdminOverrideBalance(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return updateHandler("userId", logg, func(r *http.Request, id uuid.UUID, req admin.BalanceOverrideRequest) (*admin.BalanceOverrideResult, error) {
		actorID, err := currentUser(r)
		if err != nil {
			return nil, err
		}
		return svc.OverrideBalance(r.Context(), actorID, id, req)
	})
}

func AdminUserLedger(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("admin"))
			return
		}
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.Ledger(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminLedgerAudit replays the user's ledger and compares it with the stored balance.
func AdminLedgerAudit(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return idHandler("userId", logg, func(r *http.Request, id uuid.UUID) (*ledger.ReplayReport, error) {
		return svc.Audit(r.Context(), id)
	})
}
