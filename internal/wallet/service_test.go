package wallet

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/dbtest"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/mailer"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type failingCredit struct {
	ledger.Service
}

func (failingCredit) Credit(context.Context, *gorm.DB, ledger.EntryInput) (*models.LedgerEntry, error) {
	return nil, errors.New("connection reset")
}

type fixture struct {
	conn   *gorm.DB
	ledger ledger.Service
	mail   *recordingMailer
	svc    Service
}

func newFixture(t *testing.T, mutate ...func(*ServiceParams)) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	client := db.FromConn(conn)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client)
	require.NoError(t, err)
	usersSvc, err := users.NewService(users.NewRepository(conn))
	require.NoError(t, err)

	mail := &recordingMailer{}
	params := ServiceParams{
		DB:            client,
		Accounts:      usersSvc,
		Ledger:        ledgerSvc,
		Gateway:       NewSimulatedGateway(decimal.NewFromInt(20000)),
		Mailer:        mail,
		Metrics:       metrics.NewWalletMetrics(prometheus.NewRegistry()),
		MinTopUp:      decimal.NewFromInt(10),
		MaxTopUp:      decimal.NewFromInt(50000),
		CoinsPerRupee: decimal.NewFromInt(1),
	}
	for _, fn := range mutate {
		fn(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return &fixture{conn: conn, ledger: ledgerSvc, mail: mail, svc: svc}
}

func (f *fixture) seedUser(t *testing.T, active bool) uuid.UUID {
	t.Helper()
	user := &models.User{
		Email:        uuid.NewString() + "@school.in",
		PasswordHash: "x",
		FirstName:    "Kavya",
		LastName:     "Nair",
		IsActive:     active,
		SystemRole:   enums.SystemRoleUser,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user.ID
}

func (f *fixture) entries(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(&models.LedgerEntry{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

func TestTopUpCreditsThroughLedger(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, true)

	res, err := f.svc.TopUp(context.Background(), userID, decimal.RequireFromString("250.75"))
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.CoinsCredited)
	assert.Equal(t, int64(250), res.Balance)
	assert.True(t, strings.HasPrefix(res.Reference, "sim_"))

	var entry models.LedgerEntry
	require.NoError(t, f.conn.Take(&entry, "id = ?", res.EntryID).Error)
	assert.Equal(t, enums.LedgerDirectionCredit, entry.Direction)
	assert.Equal(t, enums.LedgerReasonTopUp, entry.Reason)
	assert.Equal(t, models.ReferenceTypeTopUp, entry.ReferenceType)
	require.NotNil(t, entry.ReferenceID)
	assert.Equal(t, res.Reference, *entry.ReferenceID)
	assert.Equal(t, int64(250), entry.ResultingBalance)

	bal, err := f.svc.Balance(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), bal.Balance)

	require.Len(t, f.mail.sent, 1)
	assert.Contains(t, f.mail.sent[0].Text, "250.75")
	assert.Contains(t, f.mail.sent[0].Text, res.Reference)
}

func TestTopUpBoundaries(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Gateway = NewSimulatedGateway(decimal.Zero)
	})
	userID := f.seedUser(t, true)
	ctx := context.Background()

	for _, ok := range []string{"10", "50000"} {
		_, err := f.svc.TopUp(ctx, userID, decimal.RequireFromString(ok))
		require.NoError(t, err, ok)
	}
	for _, bad := range []string{"9.99", "50000.01", "0", "-100", "10.001"} {
		_, err := f.svc.TopUp(ctx, userID, decimal.RequireFromString(bad))
		require.Error(t, err, bad)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAmountOutOfRange), "%s: %v", bad, err)
	}
	bal, err := f.svc.Balance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50010), bal.Balance)
	assert.Equal(t, int64(2), f.entries(t, userID))
}

func TestTopUpAppliesCoinRate(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.CoinsPerRupee = decimal.RequireFromString("1.5")
	})
	userID := f.seedUser(t, true)

	res, err := f.svc.TopUp(context.Background(), userID, decimal.RequireFromString("15.50"))
	require.NoError(t, err)
	// 23.25 rounds down
	assert.Equal(t, int64(23), res.CoinsCredited)
}

func TestTopUpDeclined(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, true)

	_, err := f.svc.TopUp(context.Background(), userID, decimal.NewFromInt(20001))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaymentDeclined))
	assert.Zero(t, f.entries(t, userID))
	assert.Empty(t, f.mail.sent)
}

func TestTopUpPersistenceFailure(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Ledger = failingCredit{Service: p.Ledger.(ledger.Service)}
	})
	userID := f.seedUser(t, true)

	_, err := f.svc.TopUp(context.Background(), userID, decimal.NewFromInt(100))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePersistenceFailure))
	assert.Zero(t, f.entries(t, userID))
	assert.Empty(t, f.mail.sent)
}

func TestTopUpRejectsInactiveAccount(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, false)

	_, err := f.svc.TopUp(context.Background(), userID, decimal.NewFromInt(100))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAccountInactive))
	assert.Zero(t, f.entries(t, userID))
}

func TestTopUpMailFailureKeepsCredit(t *testing.T) {
	f := newFixture(t)
	f.mail.err = errors.New("smtp down")
	userID := f.seedUser(t, true)

	res, err := f.svc.TopUp(context.Background(), userID, decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.Balance)
}

func TestHistoryAndReplay(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, true)
	ctx := context.Background()
	for _, amt := range []int64{10, 20, 30} {
		_, err := f.svc.TopUp(ctx, userID, decimal.NewFromInt(amt))
		require.NoError(t, err)
	}

	page, err := f.svc.History(ctx, userID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	var credited int64
	for _, e := range page.Items {
		credited += e.Amount
	}
	assert.Equal(t, int64(60), credited)

	report, err := f.ledger.Replay(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(60), report.DerivedBalance)
	assert.True(t, report.BalanceMatches)
}

func TestSimulatedGatewayHonoursContext(t *testing.T) {
	gw := NewSimulatedGateway(decimal.Zero)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.Confirm(ctx, Payment{Amount: decimal.NewFromInt(10)})
	assert.ErrorIs(t, err, context.Canceled)
}
