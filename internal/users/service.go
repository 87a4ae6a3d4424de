package users

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

// Service resolves accounts for request handlers and domain services.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	// RequireActive resolves the principal, failing with UNAUTHORIZED or ACCOUNT_INACTIVE.
	RequireActive(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, errors.New("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	return FromModel(user), nil
}

func (s *service) RequireActive(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load account")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountInactive, "account is inactive")
	}
	return user, nil
}
