package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/mailer"
	"github.com/shiksha-labs/prashnagen/pkg/security"
)

// RegisterRequest contains the payload required to open an account.
type RegisterRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error)
}

type passwordHasher interface {
	CheckStrength(password string) error
	Hash(password string) (string, error)
}

type ledgerCreditor interface {
	Credit(ctx context.Context, tx *gorm.DB, input ledger.EntryInput) (*models.LedgerEntry, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB          db.TxRunner
	Passwords   passwordHasher
	Ledger      ledgerCreditor
	Mailer      mailer.Mailer
	Logger      *logger.Logger
	AppName     string
	SignupBonus int64
}

type registerService struct {
	db          db.TxRunner
	passwords   passwordHasher
	ledger      ledgerCreditor
	mail        mailer.Mailer
	logg        *logger.Logger
	appName     string
	signupBonus int64
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Passwords == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "password hasher required")
	}
	if params.SignupBonus > 0 && params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "ledger required for signup bonus")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &registerService{
		db:          params.DB,
		passwords:   params.Passwords,
		ledger:      params.Ledger,
		mail:        params.Mailer,
		logg:        logg,
		appName:     params.AppName,
		signupBonus: params.SignupBonus,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*users.UserDTO, error) {
	passwordHash, err := hashForSignup(s.passwords, req.Password)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		user, err := createAccount(ctx, tx, users.CreateUserDTO{
			Email:        req.Email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        req.Phone,
			SystemRole:   enums.SystemRoleUser,
		})
		if err != nil {
			return err
		}

		if s.signupBonus > 0 {
			ref := user.ID.String()
			entry, err := s.ledger.Credit(ctx, tx, ledger.EntryInput{
				UserID:        user.ID,
				Amount:        s.signupBonus,
				Reason:        enums.LedgerReasonSignupBonus,
				ReferenceType: models.ReferenceTypeSignup,
				ReferenceID:   &ref,
			})
			if err != nil {
				return err
			}
			user.CoinBalance = entry.ResultingBalance
		}
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, created)
	return users.FromModel(created), nil
}

func (s *registerService) sendWelcome(ctx context.Context, user *models.User) {
	if s.mail == nil {
		return
	}
	msg, err := mailer.Welcome(s.appName, user.Email, user.FirstName, user.CoinBalance)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "welcome email failed", err)
	}
}

func hashForSignup(passwords passwordHasher, password string) (string, error) {
	if err := passwords.CheckStrength(password); err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "weak password")
	}
	hash, err := passwords.Hash(password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return hash, nil
}

func createAccount(ctx context.Context, tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error) {
	if users.NormalizeEmail(dto.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if dto.FirstName == "" || dto.LastName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first_name and last_name are required")
	}
	user, err := users.NewRepository(tx).Create(ctx, dto)
	if err != nil {
		if db.IsUniqueViolation(err, "users_email_key") || db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return user, nil
}
