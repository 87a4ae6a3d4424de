package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Service is the admin view over accounts and their ledgers.
type Service interface {
	ListUsers(ctx context.Context, filter users.ListFilter, params pagination.Params) (pagination.Page[users.UserDTO], error)
	GetUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*users.UserDTO, error)
	OverrideBalance(ctx context.Context, actorID, userID uuid.UUID, req BalanceOverrideRequest) (*BalanceOverrideResult, error)
	Ledger(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ledger.EntryDTO], error)
	Audit(ctx context.Context, userID uuid.UUID) (*ledger.ReplayReport, error)
}

type service struct {
	users  *users.Repository
	ledger ledger.Service
	logg   *logger.Logger
}

func NewService(usersRepo *users.Repository, ledgerSvc ledger.Service, logg *logger.Logger) (Service, error) {
	if usersRepo == nil {
		return nil, errors.New("users repository required")
	}
	if ledgerSvc == nil {
		return nil, errors.New("ledger service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{users: usersRepo, ledger: ledgerSvc, logg: logg}, nil
}

func (s *service) ListUsers(ctx context.Context, filter users.ListFilter, params pagination.Params) (pagination.Page[users.UserDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[users.UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if filter.Role != nil && !filter.Role.IsValid() {
		return pagination.Page[users.UserDTO]{}, pkgerrors.New(pkgerrors.CodeInvalidEnum, "invalid role")
	}
	rows, err := s.users.List(ctx, filter, cursor, params.Limit)
	if err != nil {
		return pagination.Page[users.UserDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	page := pagination.BuildPage(rows, params.Limit, func(u models.User) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	items := make([]users.UserDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *users.FromModel(&page.Items[i]))
	}
	return pagination.Page[users.UserDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) GetUser(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return users.FromModel(user), nil
}

func (s *service) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) (*users.UserDTO, error) {
	if !active && actorID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admins cannot deactivate their own account")
	}
	found, err := s.users.SetActive(ctx, userID, active)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user status")
	}
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"actor_user_id":  actorID.String(),
		"target_user_id": userID.String(),
		"active":         active,
	}), "user status changed")
	return s.GetUser(ctx, userID)
}

func (s *service) OverrideBalance(ctx context.Context, actorID, userID uuid.UUID, req BalanceOverrideRequest) (*BalanceOverrideResult, error) {
	if req.Balance == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "balance is required")
	}
	entry, err := s.ledger.Adjust(ctx, ledger.AdjustInput{
		ActorUserID: actorID,
		UserID:      userID,
		NewBalance:  *req.Balance,
		Note:        req.Note,
	})
	if err != nil {
		return nil, err
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &BalanceOverrideResult{User: user}
	if entry != nil {
		dto := ledger.FromModel(*entry)
		out.Entry = &dto
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"actor_user_id":  actorID.String(),
			"target_user_id": userID.String(),
			"new_balance":    *req.Balance,
		}), "balance overridden")
	}
	return out, nil
}

func (s *service) Ledger(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ledger.EntryDTO], error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return pagination.Page[ledger.EntryDTO]{}, err
	}
	return s.ledger.List(ctx, userID, params)
}

func (s *service) Audit(ctx context.Context, userID uuid.UUID) (*ledger.ReplayReport, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.ledger.Replay(ctx, userID)
}
