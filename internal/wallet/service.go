package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/mailer"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

const (
	currencyINR = "INR"

	outcomeSuccess    = "success"
	outcomeOutOfRange = "out_of_range"
	outcomeDeclined   = "declined"
	outcomeFailed     = "persistence_failure"
	outcomeRejected   = "rejected"
)

// Service is the credit side of the wallet.
type Service interface {
	TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*TopUpResult, error)
	Balance(ctx context.Context, userID uuid.UUID) (*BalanceDTO, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ledger.EntryDTO], error)
	Limits() Limits
}

type accountChecker interface {
	RequireActive(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type book interface {
	Credit(ctx context.Context, tx *gorm.DB, input ledger.EntryInput) (*models.LedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ledger.EntryDTO], error)
}

type ServiceParams struct {
	DB            db.TxRunner
	Accounts      accountChecker
	Ledger        book
	Gateway       PaymentGateway
	Mailer        mailer.Mailer
	Metrics       *metrics.WalletMetrics
	Logger        *logger.Logger
	MinTopUp      decimal.Decimal
	MaxTopUp      decimal.Decimal
	CoinsPerRupee decimal.Decimal
}

type service struct {
	db       db.TxRunner
	accounts accountChecker
	ledger   book
	gateway  PaymentGateway
	mail     mailer.Mailer
	metrics  *metrics.WalletMetrics
	logg     *logger.Logger
	limits   Limits
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, errors.New("transaction runner required")
	case params.Accounts == nil:
		return nil, errors.New("account checker required")
	case params.Ledger == nil:
		return nil, errors.New("ledger required")
	case params.Gateway == nil:
		return nil, errors.New("payment gateway required")
	case !params.MinTopUp.IsPositive() || params.MaxTopUp.LessThan(params.MinTopUp):
		return nil, errors.New("invalid top-up range")
	case !params.CoinsPerRupee.IsPositive():
		return nil, errors.New("coins per rupee must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		db:       params.DB,
		accounts: params.Accounts,
		ledger:   params.Ledger,
		gateway:  params.Gateway,
		mail:     params.Mailer,
		metrics:  params.Metrics,
		logg:     logg,
		limits: Limits{
			MinTopUp:      params.MinTopUp,
			MaxTopUp:      params.MaxTopUp,
			CoinsPerRupee: params.CoinsPerRupee,
		},
	}, nil
}

func (s *service) Limits() Limits { return s.limits }

func (s *service) TopUp(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*TopUpResult, error) {
	ctx = s.logg.WithUserID(ctx, userID.String())
	user, err := s.accounts.RequireActive(ctx, userID)
	if err != nil {
		s.metrics.IncTopUp(outcomeRejected)
		return nil, err
	}

	coins, err := s.coinsFor(amount)
	if err != nil {
		s.metrics.IncTopUp(outcomeOutOfRange)
		return nil, err
	}

	confirmation, err := s.gateway.Confirm(ctx, Payment{UserID: userID, Amount: amount, Currency: currencyINR})
	if err != nil {
		if errors.Is(err, ErrPaymentDeclined) {
			s.metrics.IncTopUp(outcomeDeclined)
			return nil, pkgerrors.Wrap(pkgerrors.CodePaymentDeclined, err, "payment declined")
		}
		s.metrics.IncTopUp(outcomeFailed)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
	}
	ctx = s.logg.WithField(ctx, "payment_reference", confirmation.Reference)

	// the payment is confirmed; the credit must not be abandoned with the request
	var entry *models.LedgerEntry
	txCtx := context.WithoutCancel(ctx)
	err = s.db.WithTx(txCtx, func(tx *gorm.DB) error {
		ref := confirmation.Reference
		var err error
		entry, err = s.ledger.Credit(txCtx, tx, ledger.EntryInput{
			UserID:        userID,
			Amount:        coins,
			Reason:        enums.LedgerReasonTopUp,
			ReferenceType: models.ReferenceTypeTopUp,
			ReferenceID:   &ref,
			Metadata: map[string]any{
				"amount":          amount.StringFixed(2),
				"currency":        currencyINR,
				"coins_per_rupee": s.limits.CoinsPerRupee.String(),
			},
		})
		return err
	})
	if err != nil {
		s.logg.Error(ctx, "credit top-up", err)
		s.metrics.IncTopUp(outcomeFailed)
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistenceFailure, err, "could not credit top-up")
	}

	s.metrics.IncTopUp(outcomeSuccess)
	s.metrics.AddCredited(coins)
	s.logg.Info(s.logg.WithField(ctx, "coins", coins), "wallet topped up")
	s.sendReceipt(ctx, user, amount, confirmation.Reference, coins, entry.ResultingBalance)

	return &TopUpResult{
		Reference:     confirmation.Reference,
		Amount:        amount,
		CoinsCredited: coins,
		Balance:       entry.ResultingBalance,
		EntryID:       entry.ID,
		ConfirmedAt:   confirmation.ConfirmedAt,
	}, nil
}

// coinsFor checks the rupee amount and converts it, rounding down.
func (s *service) coinsFor(amount decimal.Decimal) (int64, error) {
	outOfRange := func(msg string) error {
		return pkgerrors.New(pkgerrors.CodeAmountOutOfRange, msg).WithDetails(map[string]any{
			"min": s.limits.MinTopUp.String(),
			"max": s.limits.MaxTopUp.String(),
		})
	}
	if amount.LessThan(s.limits.MinTopUp) || amount.GreaterThan(s.limits.MaxTopUp) {
		return 0, outOfRange("amount out of range")
	}
	if !amount.Equal(amount.Round(2)) {
		return 0, outOfRange("amount has more than two decimal places")
	}
	coins := amount.Mul(s.limits.CoinsPerRupee).Floor().IntPart()
	if coins <= 0 {
		return 0, outOfRange("amount buys no coins")
	}
	return coins, nil
}

func (s *service) sendReceipt(ctx context.Context, user *models.User, amount decimal.Decimal, reference string, coins, balance int64) {
	if s.mail == nil {
		return
	}
	msg, err := mailer.TopUpReceipt(user.Email, user.FirstName, amount.StringFixed(2), reference, coins, balance)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.logg.Error(ctx, "top-up receipt email failed", err)
	}
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (*BalanceDTO, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &BalanceDTO{UserID: userID, Balance: balance}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[ledger.EntryDTO], error) {
	return s.ledger.List(ctx, userID, params)
}
