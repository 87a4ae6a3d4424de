package auth

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
)

// AdminRegisterRequest contains the credentials for the dev-only admin registration flow.
type AdminRegisterRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// AdminRegisterService handles creating dev admin users.
type AdminRegisterService interface {
	Register(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error)
}

// AdminRegisterServiceParams names the dependencies for the admin register flow.
type AdminRegisterServiceParams struct {
	DB        db.TxRunner
	Passwords passwordHasher
}

type adminRegisterService struct {
	db        db.TxRunner
	passwords passwordHasher
}

// NewAdminRegisterService builds a dev admin registration service.
func NewAdminRegisterService(params AdminRegisterServiceParams) (AdminRegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Passwords == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	return &adminRegisterService{db: params.DB, passwords: params.Passwords}, nil
}

func (s *adminRegisterService) Register(ctx context.Context, req AdminRegisterRequest) (*users.UserDTO, error) {
	passwordHash, err := hashForSignup(s.passwords, req.Password)
	if err != nil {
		return nil, err
	}

	var created *users.UserDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := createAccount(ctx, tx, users.CreateUserDTO{
			Email:        req.Email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			SystemRole:   enums.SystemRoleAdmin,
		})
		if err != nil {
			return err
		}
		created = users.FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
