package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/shiksha-labs/prashnagen/pkg/db/types"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// Reference types recorded on ledger entries.
const (
	ReferenceTypeGenerationRequest = "generation_request"
	ReferenceTypeTopUp             = "top_up"
	ReferenceTypeSignup            = "signup"
	ReferenceTypeAdminOverride     = "admin_override"
)

// LedgerEntry is an append-only record of one coin balance mutation. Seq is
// dense per user and gives replay a total order independent of timestamps.
type LedgerEntry struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Seq              int64                 `gorm:"column:seq;not null"`
	Direction        enums.LedgerDirection `gorm:"column:direction;type:ledger_direction;not null"`
	Amount           int64                 `gorm:"column:amount;not null"`
	ResultingBalance int64                 `gorm:"column:resulting_balance;not null"`
	Reason           enums.LedgerReason    `gorm:"column:reason;type:ledger_reason;not null"`
	ReferenceType    string                `gorm:"column:reference_type;not null"`
	ReferenceID      *string               `gorm:"column:reference_id"`
	ActorUserID      *uuid.UUID            `gorm:"column:actor_user_id;type:uuid"`
	Metadata         dbtypes.JSONMap       `gorm:"column:metadata;type:jsonb"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// Delta returns the signed balance change the entry represents.
func (e LedgerEntry) Delta() int64 {
	return e.Direction.Sign() * e.Amount
}
