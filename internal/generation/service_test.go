package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/questions"
	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/dbtest"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/llm"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

type fakeGenerator struct {
	mu      sync.Mutex
	output  string
	err     error
	calls   int
	prompts []string
	wait    func()
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ int) (string, error) {
	g.mu.Lock()
	g.calls++
	g.prompts = append(g.prompts, prompt)
	wait := g.wait
	g.mu.Unlock()
	if wait != nil {
		wait()
	}
	return g.output, g.err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type stubRules struct {
	rules []string
	err   error
}

func (s stubRules) ActiveFor(context.Context, enums.QuestionType) ([]string, error) {
	return s.rules, s.err
}

type stubSamples struct {
	samples []string
}

func (s stubSamples) Examples(context.Context, enums.BloomLevel, enums.QuestionType, int) ([]string, error) {
	return s.samples, nil
}

// debitThenFail performs the real debit and then fails, as a crash between
// the ledger write and commit would.
type debitThenFail struct {
	inner debiter
}

func (d debitThenFail) Debit(ctx context.Context, tx *gorm.DB, input ledger.EntryInput) (*models.LedgerEntry, error) {
	if _, err := d.inner.Debit(ctx, tx, input); err != nil {
		return nil, err
	}
	return nil, errors.New("disk full")
}

type fixture struct {
	conn    *gorm.DB
	client  *db.Client
	ledger  ledger.Service
	gen     *fakeGenerator
	svc     Service
	topicID uuid.UUID
}

func newFixture(t *testing.T, mutate ...func(*ServiceParams)) *fixture {
	t.Helper()
	ctx := context.Background()
	conn := dbtest.Open(t)
	client := db.FromConn(conn)

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client)
	require.NoError(t, err)
	usersSvc, err := users.NewService(users.NewRepository(conn))
	require.NoError(t, err)
	taxSvc, err := taxonomy.NewService(taxonomy.NewRepository(conn))
	require.NoError(t, err)

	board, err := taxSvc.CreateBoard(ctx, taxonomy.CreateBoardRequest{Name: "CBSE", Code: "cbse"})
	require.NoError(t, err)
	subject, err := taxSvc.CreateSubject(ctx, taxonomy.CreateSubjectRequest{BoardID: board.ID, Name: "Science", Grade: 7})
	require.NoError(t, err)
	topic, err := taxSvc.CreateTopic(ctx, taxonomy.CreateTopicRequest{SubjectID: subject.ID, Name: "Nutrition in Plants"})
	require.NoError(t, err)

	gen := &fakeGenerator{}
	params := ServiceParams{
		DB:          client,
		Requests:    NewRepository(conn),
		Questions:   questions.NewRepository(conn),
		Accounts:    usersSvc,
		Taxonomy:    taxSvc,
		Rules:       stubRules{},
		Samples:     stubSamples{},
		Ledger:      ledgerSvc,
		Generator:   gen,
		Metrics:     metrics.NewGenerationMetrics(prometheus.NewRegistry()),
		Model:       "test-model",
		MaxCount:    20,
		MaxTokens:   1024,
		SampleLimit: 3,
	}
	for _, fn := range mutate {
		fn(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return &fixture{conn: conn, client: client, ledger: ledgerSvc, gen: gen, svc: svc, topicID: topic.ID}
}

func (f *fixture) seedUser(t *testing.T, balance int64, active bool) uuid.UUID {
	t.Helper()
	user := &models.User{
		Email:        uuid.NewString() + "@school.in",
		PasswordHash: "x",
		FirstName:    "Meera",
		LastName:     "Iyer",
		IsActive:     active,
		SystemRole:   enums.SystemRoleUser,
	}
	require.NoError(t, f.conn.Create(user).Error)
	if balance > 0 {
		require.NoError(t, f.client.WithTx(context.Background(), func(tx *gorm.DB) error {
			_, err := f.ledger.Credit(context.Background(), tx, ledger.EntryInput{
				UserID:        user.ID,
				Amount:        balance,
				Reason:        enums.LedgerReasonTopUp,
				ReferenceType: models.ReferenceTypeTopUp,
			})
			return err
		}))
	}
	return user.ID
}

func (f *fixture) request(count int, level enums.BloomLevel) Request {
	return Request{
		TopicID:      f.topicID,
		QuestionType: string(enums.QuestionTypeSingleChoice),
		BloomLevel:   string(level),
		Count:        count,
	}
}

func (f *fixture) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (f *fixture) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func (f *fixture) assertUntouched(t *testing.T, userID uuid.UUID, balance int64, entries int64) {
	t.Helper()
	assert.Equal(t, balance, f.balance(t, userID))
	assert.Zero(t, f.count(t, &models.Question{}, "owner_user_id = ?", userID))
	assert.Zero(t, f.count(t, &models.GenerationRequest{}, "user_id = ?", userID))
	assert.Equal(t, entries, f.count(t, &models.LedgerEntry{}, "user_id = ?", userID))
}

func questionsJSON(n int) string {
	items := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, map[string]any{
			"question":       fmt.Sprintf("Which part of the leaf makes food? (%d)", i+1),
			"options":        []string{"Stomata", "Chlorophyll", "Xylem", "Root hair"},
			"correct_answer": "Chlorophyll",
			"explanation":    "Chlorophyll absorbs light for photosynthesis.",
			"marks":          1,
		})
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func TestGenerateChargesForEveryQuestion(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(5)

	res, err := f.svc.Generate(context.Background(), userID, f.request(5, enums.BloomLevelUnderstanding))
	require.NoError(t, err)

	assert.Equal(t, 5, res.ActualCount)
	assert.Equal(t, int64(7), res.UnitCost)
	assert.Equal(t, int64(35), res.CoinsCharged)
	assert.Equal(t, int64(65), res.Balance)
	assert.Equal(t, StrategyDirect, res.ParseStrategy)
	require.Len(t, res.Questions, 5)
	assert.Equal(t, enums.QuestionStatusPendingReview, res.Questions[0].Status)

	assert.Equal(t, int64(65), f.balance(t, userID))
	assert.Equal(t, int64(5), f.count(t, &models.Question{}, "generation_id = ?", res.GenerationID))

	var debit models.LedgerEntry
	require.NoError(t, f.conn.Where("user_id = ? AND direction = ?", userID, enums.LedgerDirectionDebit).Take(&debit).Error)
	assert.Equal(t, int64(35), debit.Amount)
	assert.Equal(t, int64(65), debit.ResultingBalance)
	assert.Equal(t, enums.LedgerReasonQuestionGeneration, debit.Reason)
	assert.Equal(t, models.ReferenceTypeGenerationRequest, debit.ReferenceType)
	require.NotNil(t, debit.ReferenceID)
	assert.Equal(t, res.GenerationID.String(), *debit.ReferenceID)

	gen, err := NewRepository(f.conn).FindByID(context.Background(), res.GenerationID)
	require.NoError(t, err)
	assert.Equal(t, 5, gen.RequestedCount)
	assert.Equal(t, "test-model", gen.Model)
}

func TestGenerateBillsActualCount(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(3)

	res, err := f.svc.Generate(context.Background(), userID, f.request(5, enums.BloomLevelUnderstanding))
	require.NoError(t, err)

	assert.Equal(t, 5, res.RequestedCount)
	assert.Equal(t, 3, res.ActualCount)
	assert.Equal(t, int64(21), res.CoinsCharged)
	assert.Equal(t, int64(79), res.Balance)
	assert.Equal(t, int64(79), f.balance(t, userID))
	assert.Equal(t, int64(3), f.count(t, &models.Question{}, "owner_user_id = ?", userID))
}

func TestGenerateTruncatesExtraQuestions(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(8)

	res, err := f.svc.Generate(context.Background(), userID, f.request(5, enums.BloomLevelRemembering))
	require.NoError(t, err)
	assert.Equal(t, 5, res.ActualCount)
	assert.Equal(t, int64(25), res.CoinsCharged)
	assert.Equal(t, int64(75), f.balance(t, userID))
}

func TestGenerateInsufficientFundsSkipsGenerator(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 10, true)
	f.gen.output = questionsJSON(5)

	_, err := f.svc.Generate(context.Background(), userID, f.request(5, enums.BloomLevelUnderstanding))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(35), details["required"])

	assert.Zero(t, f.gen.callCount())
	f.assertUntouched(t, userID, 10, 1)
}

func TestGenerateEmbeddedJSON(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 100, true)
	f.gen.output = "Here are your questions:\n" + questionsJSON(2) + "\nGood luck!"

	res, err := f.svc.Generate(context.Background(), userID, f.request(2, enums.BloomLevelApplying))
	require.NoError(t, err)
	assert.Equal(t, StrategyBracketExtraction, res.ParseStrategy)
	assert.Equal(t, 2, res.ActualCount)
	assert.Equal(t, int64(80), f.balance(t, userID))
}

func TestGenerateFailuresLeaveNoTrace(t *testing.T) {
	cases := []struct {
		name   string
		output string
		err    error
		code   pkgerrors.Code
	}{
		{name: "garbage", output: "Sorry, I can't do that.", code: pkgerrors.CodeGenerationParseError},
		{name: "empty array", output: "[]", code: pkgerrors.CodeEmptyGeneration},
		{name: "all malformed", output: `[{"question":""},{"correct_answer":"x"}]`, code: pkgerrors.CodeEmptyGeneration},
		{name: "timeout", err: llm.ErrTimeout, code: pkgerrors.CodeGenerationTimeout},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), code: pkgerrors.CodeGenerationTimeout},
		{name: "empty completion", err: llm.ErrEmptyCompletion, code: pkgerrors.CodeEmptyGeneration},
		{name: "upstream", err: errors.New("503 from upstream"), code: pkgerrors.CodeDependency},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			userID := f.seedUser(t, 100, true)
			f.gen.output = tc.output
			f.gen.err = tc.err

			_, err := f.svc.Generate(context.Background(), userID, f.request(5, enums.BloomLevelUnderstanding))
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
			assert.Equal(t, 1, f.gen.callCount())
			f.assertUntouched(t, userID, 100, 1)
		})
	}
}

func TestGenerateRollsBackWhenCommitFails(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Ledger = debitThenFail{inner: p.Ledger}
	})
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(5)

	_, err := f.svc.Generate(context.Background(), userID, f.request(5, enums.BloomLevelUnderstanding))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePersistenceFailure), "got %v", err)
	f.assertUntouched(t, userID, 100, 1)
}

func TestGenerateConcurrentRequestsCannotOverdraw(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(10)

	// both callers pass the balance pre-check before either reaches the debit
	var arrived sync.WaitGroup
	arrived.Add(2)
	f.gen.wait = func() {
		arrived.Done()
		arrived.Wait()
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Generate(context.Background(), userID, f.request(10, enums.BloomLevelUnderstanding))
		}(i)
	}
	wg.Wait()

	succeeded, insufficient := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, int64(30), f.balance(t, userID))
	assert.Equal(t, int64(10), f.count(t, &models.Question{}, "owner_user_id = ?", userID))
	assert.Equal(t, int64(1), f.count(t, &models.GenerationRequest{}, "user_id = ?", userID))

	report, err := f.ledger.Replay(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, report.BalanceMatches)
	assert.True(t, report.ChainConsistent)
}

func TestGenerateValidation(t *testing.T) {
	f := newFixture(t)
	active := f.seedUser(t, 100, true)
	inactive := f.seedUser(t, 100, false)
	ctx := context.Background()

	cases := []struct {
		name   string
		userID uuid.UUID
		mutate func(*Request)
		code   pkgerrors.Code
	}{
		{name: "anonymous", userID: uuid.Nil, code: pkgerrors.CodeUnauthorized},
		{name: "unknown account", userID: uuid.New(), code: pkgerrors.CodeUnauthorized},
		{name: "inactive account", userID: inactive, code: pkgerrors.CodeAccountInactive},
		{name: "unknown topic", userID: active, mutate: func(r *Request) { r.TopicID = uuid.New() }, code: pkgerrors.CodeInvalidReference},
		{name: "bad type", userID: active, mutate: func(r *Request) { r.QuestionType = "essay" }, code: pkgerrors.CodeInvalidEnum},
		{name: "bad level", userID: active, mutate: func(r *Request) { r.BloomLevel = "memorizing" }, code: pkgerrors.CodeInvalidEnum},
		{name: "zero count", userID: active, mutate: func(r *Request) { r.Count = 0 }, code: pkgerrors.CodeInvalidCount},
		{name: "count above max", userID: active, mutate: func(r *Request) { r.Count = 21 }, code: pkgerrors.CodeInvalidCount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request(5, enums.BloomLevelRemembering)
			if tc.mutate != nil {
				tc.mutate(&req)
			}
			_, err := f.svc.Generate(ctx, tc.userID, req)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
	assert.Zero(t, f.gen.callCount())
	assert.Equal(t, int64(100), f.balance(t, active))
}

func TestGeneratePromptCarriesContextRulesAndSamples(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Rules = stubRules{rules: []string{"Use metric units."}}
		p.Samples = stubSamples{samples: []string{"Why do leaves look green?"}}
	})
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(1)

	_, err := f.svc.Generate(context.Background(), userID, f.request(1, enums.BloomLevelAnalyzing))
	require.NoError(t, err)
	require.Len(t, f.gen.prompts, 1)
	prompt := f.gen.prompts[0]
	for _, want := range []string{"CBSE", "Science", "grade 7", "Nutrition in Plants", "analyzing", "Use metric units.", "Why do leaves look green?", "single choice"} {
		assert.True(t, strings.Contains(prompt, want), "prompt missing %q", want)
	}
}

func TestGenerateIgnoresRuleLookupFailure(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Rules = stubRules{err: errors.New("rules table locked")}
	})
	userID := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(1)

	_, err := f.svc.Generate(context.Background(), userID, f.request(1, enums.BloomLevelRemembering))
	require.NoError(t, err)
	assert.Equal(t, int64(95), f.balance(t, userID))
}

func TestHistoryListsOwnGenerations(t *testing.T) {
	f := newFixture(t)
	userID := f.seedUser(t, 100, true)
	other := f.seedUser(t, 100, true)
	f.gen.output = questionsJSON(1)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Generate(context.Background(), userID, f.request(1, enums.BloomLevelRemembering))
		require.NoError(t, err)
	}
	_, err := f.svc.Generate(context.Background(), other, f.request(1, enums.BloomLevelRemembering))
	require.NoError(t, err)

	page, err := f.svc.History(context.Background(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.NotEmpty(t, page.NextCursor)

	next, err := f.svc.History(context.Background(), userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, next.Items, 1)
	assert.Empty(t, next.NextCursor)
}
