package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shiksha-labs/prashnagen/internal/repo"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

// Repository manages the users.coin_balance column and the ledger_entries table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Decrement subtracts amount only when the balance covers it and reports whether a row changed.
	Decrement(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	Increment(ctx context.Context, userID uuid.UUID, amount int64) (bool, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	LockBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	NextSeq(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, entry *models.LedgerEntry) error
	List(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LedgerEntry, error)
	ListForReplay(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Decrement(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND coin_balance >= ?", userID, amount).
		UpdateColumn("coin_balance", gorm.Expr("coin_balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Increment(ctx context.Context, userID uuid.UUID, amount int64) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("coin_balance", gorm.Expr("coin_balance + ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var user models.User
	if err := r.base.DB(ctx).
		Select("coin_balance").
		Where("id = ?", userID).
		Take(&user).Error; err != nil {
		return 0, err
	}
	return user.CoinBalance, nil
}

func (r *repository) LockBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var user models.User
	if err := r.base.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("coin_balance").
		Where("id = ?", userID).
		Take(&user).Error; err != nil {
		return 0, err
	}
	return user.CoinBalance, nil
}

// NextSeq must run after the user row is locked by an update or LockBalance.
func (r *repository) NextSeq(ctx context.Context, userID uuid.UUID) (int64, error) {
	var last int64
	if err := r.base.DB(ctx).
		Model(&models.LedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error; err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *repository) Create(ctx context.Context, entry *models.LedgerEntry) error {
	return r.base.DB(ctx).Create(entry).Error
}

func (r *repository) List(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	q := r.base.DB(ctx).Where("user_id = ?", userID)
	if err := repo.Keyset(q, "", cursor, limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListForReplay(ctx context.Context, userID uuid.UUID) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	if err := r.base.DB(ctx).
		Where("user_id = ?", userID).
		Order("seq ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
