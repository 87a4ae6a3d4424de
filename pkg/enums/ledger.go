package enums

import "fmt"

// LedgerDirection maps to the ledger_direction enum in Postgres.
type LedgerDirection string

const (
	LedgerDirectionCredit LedgerDirection = "credit"
	LedgerDirectionDebit  LedgerDirection = "debit"
)

var validLedgerDirections = []LedgerDirection{
	LedgerDirectionCredit,
	LedgerDirectionDebit,
}

// String implements fmt.Stringer.
func (d LedgerDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known LedgerDirection.
func (d LedgerDirection) IsValid() bool {
	for _, candidate := range validLedgerDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// Sign returns +1 for credits and -1 for debits.
func (d LedgerDirection) Sign() int64 {
	if d == LedgerDirectionDebit {
		return -1
	}
	return 1
}

// ParseLedgerDirection converts raw input into a LedgerDirection.
func ParseLedgerDirection(value string) (LedgerDirection, error) {
	for _, candidate := range validLedgerDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger direction %q", value)
}

// LedgerReason maps to the ledger_reason enum in Postgres.
type LedgerReason string

const (
	LedgerReasonQuestionGeneration LedgerReason = "question_generation"
	LedgerReasonTopUp              LedgerReason = "top_up"
	LedgerReasonSignupBonus        LedgerReason = "signup_bonus"
	LedgerReasonAdminOverride      LedgerReason = "admin_override"
)

var validLedgerReasons = []LedgerReason{
	LedgerReasonQuestionGeneration,
	LedgerReasonTopUp,
	LedgerReasonSignupBonus,
	LedgerReasonAdminOverride,
}

// String implements fmt.Stringer.
func (r LedgerReason) String() string {
	return string(r)
}

// IsValid reports whether the value is a known LedgerReason.
func (r LedgerReason) IsValid() bool {
	for _, candidate := range validLedgerReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseLedgerReason converts raw input into a LedgerReason.
func ParseLedgerReason(value string) (LedgerReason, error) {
	for _, candidate := range validLedgerReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger reason %q", value)
}
