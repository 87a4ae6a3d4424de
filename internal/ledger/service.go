package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Service is the only writer of users.coin_balance. Every mutation appends an
// entry carrying the balance it produced, in the caller's transaction.
type Service interface {
	Debit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.LedgerEntry, error)
	Credit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.LedgerEntry, error)
	Adjust(ctx context.Context, input AdjustInput) (*models.LedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[EntryDTO], error)
	Replay(ctx context.Context, userID uuid.UUID) (*ReplayReport, error)
}

type service struct {
	repo Repository
	tx   db.TxRunner
}

// NewService wires a ledger service with its repository and transaction runner.
func NewService(repo Repository, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Debit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.LedgerEntry, error) {
	if err := validateEntry(input); err != nil {
		return nil, err
	}
	r := s.repo.WithTx(tx)

	ok, err := r.Decrement(ctx, input.UserID, input.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "debit balance")
	}
	if !ok {
		return nil, s.explainMissedDebit(ctx, r, input)
	}
	return s.append(ctx, r, input, enums.LedgerDirectionDebit)
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.LedgerEntry, error) {
	if err := validateEntry(input); err != nil {
		return nil, err
	}
	r := s.repo.WithTx(tx)

	ok, err := r.Increment(ctx, input.UserID, input.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "credit balance")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return s.append(ctx, r, input, enums.LedgerDirectionCredit)
}

// Adjust routes an admin "set balance" through a credit or debit entry. A
// target equal to the current balance writes nothing and returns nil.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.LedgerEntry, error) {
	if input.UserID == uuid.Nil || input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user and actor are required")
	}
	if input.NewBalance < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "balance cannot be negative")
	}

	var entry *models.LedgerEntry
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.WithTx(tx).LockBalance(ctx, input.UserID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return err
		}
		delta := input.NewBalance - current
		if delta == 0 {
			return nil
		}

		actor := input.ActorUserID
		ref := input.UserID.String()
		entryInput := EntryInput{
			UserID:        input.UserID,
			Amount:        abs(delta),
			Reason:        enums.LedgerReasonAdminOverride,
			ReferenceType: models.ReferenceTypeAdminOverride,
			ReferenceID:   &ref,
			ActorUserID:   &actor,
			Metadata: map[string]any{
				"previous_balance": current,
				"target_balance":   input.NewBalance,
				"note":             input.Note,
			},
		}
		if delta > 0 {
			entry, err = s.Credit(ctx, tx, entryInput)
		} else {
			entry, err = s.Debit(ctx, tx, entryInput)
		}
		return err
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistenceFailure, err, "adjust balance")
	}
	return entry, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read balance")
	}
	return balance, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[EntryDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[EntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, userID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[EntryDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list ledger entries")
	}
	page := pagination.BuildPage(rows, params.Limit, func(e models.LedgerEntry) pagination.Cursor {
		return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
	})
	out := pagination.Page[EntryDTO]{Items: make([]EntryDTO, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, e := range page.Items {
		out.Items = append(out.Items, FromModel(e))
	}
	return out, nil
}

func (s *service) Replay(ctx context.Context, userID uuid.UUID) (*ReplayReport, error) {
	report := &ReplayReport{UserID: userID}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		r := s.repo.WithTx(tx)
		stored, err := r.LockBalance(ctx, userID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
			}
			return err
		}
		entries, err := r.ListForReplay(ctx, userID)
		if err != nil {
			return err
		}
		derived, consistent, firstBad := Fold(entries)
		report.EntryCount = len(entries)
		report.StoredBalance = stored
		report.DerivedBalance = derived
		report.BalanceMatches = stored == derived
		report.ChainConsistent = consistent
		if !consistent {
			report.FirstBadSeq = &firstBad
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Ensure(pkgerrors.CodeInternal, err, "replay ledger")
	}
	return report, nil
}

func (s *service) append(ctx context.Context, r Repository, input EntryInput, direction enums.LedgerDirection) (*models.LedgerEntry, error) {
	balance, err := r.Balance(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "read resulting balance")
	}
	seq, err := r.NextSeq(ctx, input.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "allocate ledger sequence")
	}
	entry := &models.LedgerEntry{
		UserID:           input.UserID,
		Seq:              seq,
		Direction:        direction,
		Amount:           input.Amount,
		ResultingBalance: balance,
		Reason:           input.Reason,
		ReferenceType:    input.ReferenceType,
		ReferenceID:      input.ReferenceID,
		ActorUserID:      input.ActorUserID,
		Metadata:         input.Metadata,
	}
	if err := r.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "insert ledger entry")
	}
	return entry, nil
}

func (s *service) explainMissedDebit(ctx context.Context, r Repository, input EntryInput) error {
	balance, err := r.Balance(ctx, input.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "read balance")
	}
	return InsufficientFunds(balance, input.Amount)
}

// InsufficientFunds builds the client-facing error with the shortfall in details.
func InsufficientFunds(balance, required int64) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient coin balance").WithDetails(map[string]any{
		"balance":  balance,
		"required": required,
	})
}

func validateEntry(input EntryInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeInvalidEnum, fmt.Sprintf("invalid ledger reason %q", input.Reason))
	}
	if input.ReferenceType == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reference type is required")
	}
	return nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
