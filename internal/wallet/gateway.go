package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrPaymentDeclined = errors.New("payment declined")

// Payment is a request to collect money for coins.
type Payment struct {
	UserID   uuid.UUID
	Amount   decimal.Decimal
	Currency string
}

// Confirmation is the gateway's receipt for a collected payment.
type Confirmation struct {
	Reference   string
	Amount      decimal.Decimal
	ConfirmedAt time.Time
}

// PaymentGateway confirms payments before coins are credited.
type PaymentGateway interface {
	Confirm(ctx context.Context, payment Payment) (*Confirmation, error)
}

// SimulatedGateway approves every payment up to an optional ceiling.
type SimulatedGateway struct {
	declineAbove decimal.Decimal
	now          func() time.Time
}

// NewSimulatedGateway declines amounts above declineAbove; zero approves everything.
func NewSimulatedGateway(declineAbove decimal.Decimal) *SimulatedGateway {
	return &SimulatedGateway{declineAbove: declineAbove, now: time.Now}
}

func (g *SimulatedGateway) Confirm(ctx context.Context, payment Payment) (*Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.declineAbove.IsPositive() && payment.Amount.GreaterThan(g.declineAbove) {
		return nil, ErrPaymentDeclined
	}
	return &Confirmation{
		Reference:   "sim_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		Amount:      payment.Amount,
		ConfirmedAt: g.now().UTC(),
	}, nil
}
