package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// EntryInput describes one balance mutation.
type EntryInput struct {
	UserID        uuid.UUID
	Amount        int64
	Reason        enums.LedgerReason
	ReferenceType string
	ReferenceID   *string
	ActorUserID   *uuid.UUID
	Metadata      map[string]any
}

// AdjustInput is an admin override that sets a balance to an absolute value.
type AdjustInput struct {
	ActorUserID uuid.UUID
	UserID      uuid.UUID
	NewBalance  int64
	Note        string
}

// EntryDTO is the API shape of a ledger entry.
type EntryDTO struct {
	ID               uuid.UUID             `json:"id"`
	Seq              int64                 `json:"seq"`
	Direction        enums.LedgerDirection `json:"direction"`
	Amount           int64                 `json:"amount"`
	ResultingBalance int64                 `json:"resulting_balance"`
	Reason           enums.LedgerReason    `json:"reason"`
	ReferenceType    string                `json:"reference_type"`
	ReferenceID      *string               `json:"reference_id,omitempty"`
	ActorUserID      *uuid.UUID            `json:"actor_user_id,omitempty"`
	Metadata         map[string]any        `json:"metadata,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

// ReplayReport compares the folded ledger against the stored balance.
type ReplayReport struct {
	UserID          uuid.UUID `json:"user_id"`
	EntryCount      int       `json:"entry_count"`
	DerivedBalance  int64     `json:"derived_balance"`
	StoredBalance   int64     `json:"stored_balance"`
	BalanceMatches  bool      `json:"balance_matches"`
	ChainConsistent bool      `json:"chain_consistent"`
	FirstBadSeq     *int64    `json:"first_bad_seq,omitempty"`
}

// FromModel converts a persisted entry to its DTO.
func FromModel(e models.LedgerEntry) EntryDTO {
	return EntryDTO{
		ID:               e.ID,
		Seq:              e.Seq,
		Direction:        e.Direction,
		Amount:           e.Amount,
		ResultingBalance: e.ResultingBalance,
		Reason:           e.Reason,
		ReferenceType:    e.ReferenceType,
		ReferenceID:      e.ReferenceID,
		ActorUserID:      e.ActorUserID,
		Metadata:         e.Metadata,
		CreatedAt:        e.CreatedAt,
	}
}
