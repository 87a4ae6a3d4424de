package admin

import (
	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/users"
)

// BalanceOverrideRequest sets a user's balance to an absolute value.
type BalanceOverrideRequest struct {
	Balance *int64 `json:"balance" validate:"required"`
	Note    string `json:"note" validate:"max=500"`
}

// BalanceOverrideResult reports the account after an override. Entry is nil
// when the requested balance equalled the current one.
type BalanceOverrideResult struct {
	User  *users.UserDTO   `json:"user"`
	Entry *ledger.EntryDTO `json:"entry,omitempty"`
}
