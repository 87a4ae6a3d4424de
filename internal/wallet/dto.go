package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopUpRequest is the body of POST /api/v1/wallet/top-up. Amount is in rupees.
type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type TopUpResult struct {
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	CoinsCredited int64           `json:"coins_credited"`
	Balance       int64           `json:"balance"`
	EntryID       uuid.UUID       `json:"ledger_entry_id"`
	ConfirmedAt   time.Time       `json:"confirmed_at"`
}

type BalanceDTO struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance int64     `json:"balance"`
}

// Limits describes the accepted top-up range and the coin rate.
type Limits struct {
	MinTopUp      decimal.Decimal `json:"min_top_up"`
	MaxTopUp      decimal.Decimal `json:"max_top_up"`
	CoinsPerRupee decimal.Decimal `json:"coins_per_rupee"`
}
