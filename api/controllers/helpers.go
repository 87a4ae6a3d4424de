package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/api/middleware"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

func currentUser(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}
