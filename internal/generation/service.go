package generation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/questions"
	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/db/models"
	dbtypes "github.com/shiksha-labs/prashnagen/pkg/db/types"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	pkgerrors "github.com/shiksha-labs/prashnagen/pkg/errors"
	"github.com/shiksha-labs/prashnagen/pkg/llm"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	"github.com/shiksha-labs/prashnagen/pkg/pagination"
)

const defaultMaxCount = 20

// Service turns a paid request into persisted questions and exactly one debit.
type Service interface {
	Generate(ctx context.Context, userID uuid.UUID, req Request) (*Result, error)
	History(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[RequestDTO], error)
}

type accountChecker interface {
	RequireActive(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type topicResolver interface {
	ResolveTopic(ctx context.Context, topicID uuid.UUID) (*taxonomy.Chain, error)
}

type ruleSource interface {
	ActiveFor(ctx context.Context, qt enums.QuestionType) ([]string, error)
}

type sampleSource interface {
	Examples(ctx context.Context, level enums.BloomLevel, qt enums.QuestionType, limit int) ([]string, error)
}

type debiter interface {
	Debit(ctx context.Context, tx *gorm.DB, input ledger.EntryInput) (*models.LedgerEntry, error)
}

type ServiceParams struct {
	DB          db.TxRunner
	Requests    *Repository
	Questions   *questions.Repository
	Accounts    accountChecker
	Taxonomy    topicResolver
	Rules       ruleSource
	Samples     sampleSource
	Ledger      debiter
	Generator   llm.Generator
	Metrics     *metrics.GenerationMetrics
	Logger      *logger.Logger
	Model       string
	MaxCount    int
	MaxTokens   int
	SampleLimit int
}

type service struct {
	db          db.TxRunner
	requests    *Repository
	questions   *questions.Repository
	accounts    accountChecker
	taxonomy    topicResolver
	rules       ruleSource
	samples     sampleSource
	ledger      debiter
	generator   llm.Generator
	metrics     *metrics.GenerationMetrics
	logg        *logger.Logger
	model       string
	maxCount    int
	maxTokens   int
	sampleLimit int
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, errors.New("transaction runner required")
	case params.Requests == nil:
		return nil, errors.New("generation repository required")
	case params.Questions == nil:
		return nil, errors.New("questions repository required")
	case params.Accounts == nil:
		return nil, errors.New("account checker required")
	case params.Taxonomy == nil:
		return nil, errors.New("taxonomy resolver required")
	case params.Ledger == nil:
		return nil, errors.New("ledger required")
	case params.Generator == nil:
		return nil, errors.New("generator required")
	}
	maxCount := params.MaxCount
	if maxCount <= 0 {
		maxCount = defaultMaxCount
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		db:          params.DB,
		requests:    params.Requests,
		questions:   params.Questions,
		accounts:    params.Accounts,
		taxonomy:    params.Taxonomy,
		rules:       params.Rules,
		samples:     params.Samples,
		ledger:      params.Ledger,
		generator:   params.Generator,
		metrics:     params.Metrics,
		logg:        logg,
		model:       params.Model,
		maxCount:    maxCount,
		maxTokens:   params.MaxTokens,
		sampleLimit: params.SampleLimit,
	}, nil
}

// validated is a request that passed every check before the generator call.
type validated struct {
	user     *models.User
	chain    *taxonomy.Chain
	qt       enums.QuestionType
	level    enums.BloomLevel
	count    int
	unitCost int64
}

func (s *service) Generate(ctx context.Context, userID uuid.UUID, req Request) (*Result, error) {
	started := time.Now()
	ctx = s.logg.WithUserID(ctx, userID.String())

	in, err := s.validate(ctx, userID, req)
	if err != nil {
		s.observe(metrics.OutcomeRejected, started)
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"topic_id":      in.chain.Topic.ID.String(),
		"question_type": string(in.qt),
		"bloom_level":   string(in.level),
		"count":         in.count,
	})

	total := in.unitCost * int64(in.count)
	if in.user.CoinBalance < total {
		s.observe(metrics.OutcomeInsufficientFunds, started)
		return nil, ledger.InsufficientFunds(in.user.CoinBalance, total)
	}

	prompt := BuildPrompt(PromptInput{
		Chain:        *in.chain,
		QuestionType: in.qt,
		BloomLevel:   in.level,
		Count:        in.count,
		Rules:        s.loadRules(ctx, in.qt),
		Samples:      s.loadSamples(ctx, in.level, in.qt),
	})

	text, err := s.generator.Generate(ctx, prompt, s.maxTokens)
	if err != nil {
		outcome, mapped := mapGeneratorError(err)
		s.logg.Error(ctx, "question generation call failed", err)
		s.observe(outcome, started)
		return nil, mapped
	}

	parsed := Parse(text)
	if !parsed.OK() {
		s.logg.Warn(s.logg.WithField(ctx, "output_length", len(text)), "generator output could not be parsed")
		s.observe(metrics.OutcomeParseError, started)
		return nil, pkgerrors.Wrap(pkgerrors.CodeGenerationParseError, parsed.Err, "generated output could not be parsed")
	}
	items, dropped := Normalize(parsed.Items, in.qt, in.count)
	if dropped+parsed.Skipped > 0 {
		s.logg.Warn(s.logg.WithField(ctx, "dropped", dropped+parsed.Skipped), "dropped malformed generated questions")
	}
	if len(items) == 0 {
		s.observe(metrics.OutcomeEmpty, started)
		return nil, pkgerrors.New(pkgerrors.CodeEmptyGeneration, "no questions were generated")
	}

	// the generator has returned; the write commits or rolls back even if the caller goes away
	result, err := s.persist(context.WithoutCancel(ctx), in, items, parsed.Strategy)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientFunds) {
			s.observe(metrics.OutcomeInsufficientFunds, started)
			return nil, err
		}
		s.logg.Error(ctx, "persist generated questions", err)
		s.observe(metrics.OutcomePersistenceFailure, started)
		return nil, pkgerrors.Ensure(pkgerrors.CodePersistenceFailure, err, "could not save generated questions")
	}

	s.observe(metrics.OutcomeSuccess, started)
	if s.metrics != nil {
		s.metrics.AddCommitted(string(in.level), result.ActualCount, result.CoinsCharged)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"generation_id": result.GenerationID.String(),
		"actual_count":  result.ActualCount,
		"coins_charged": result.CoinsCharged,
	}), "questions generated")
	return result, nil
}

func (s *service) validate(ctx context.Context, userID uuid.UUID, req Request) (*validated, error) {
	user, err := s.accounts.RequireActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	chain, err := s.taxonomy.ResolveTopic(ctx, req.TopicID)
	if err != nil {
		return nil, err
	}
	qt, err := enums.ParseQuestionType(req.QuestionType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidEnum, err, "invalid question_type")
	}
	level, err := enums.ParseBloomLevel(req.BloomLevel)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidEnum, err, "invalid bloom_level")
	}
	unitCost, ok := UnitCost(level)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidEnum, "bloom_level has no price")
	}
	if req.Count < 1 || req.Count > s.maxCount {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCount, "count out of range").WithDetails(map[string]any{
			"min": 1,
			"max": s.maxCount,
		})
	}
	return &validated{user: user, chain: chain, qt: qt, level: level, count: req.Count, unitCost: unitCost}, nil
}

func (s *service) persist(ctx context.Context, in *validated, items []Item, strategy Strategy) (*Result, error) {
	actual := len(items)
	cost := in.unitCost * int64(actual)
	gen := &models.GenerationRequest{
		ID:             uuid.New(),
		UserID:         in.user.ID,
		BoardID:        in.chain.Board.ID,
		SubjectID:      in.chain.Subject.ID,
		TopicID:        in.chain.Topic.ID,
		QuestionType:   in.qt,
		BloomLevel:     in.level,
		RequestedCount: in.count,
		ActualCount:    actual,
		UnitCost:       in.unitCost,
		TotalCost:      cost,
		ParseStrategy:  string(strategy),
		Model:          s.model,
	}
	rows := make([]models.Question, 0, actual)
	for _, item := range items {
		rows = append(rows, models.Question{
			ID:             uuid.New(),
			OwnerUserID:    in.user.ID,
			GenerationID:   gen.ID,
			BoardID:        gen.BoardID,
			SubjectID:      gen.SubjectID,
			TopicID:        gen.TopicID,
			QuestionType:   in.qt,
			BloomLevel:     in.level,
			Text:           item.Question,
			Options:        dbtypes.StringList(item.Options),
			CorrectAnswer:  item.CorrectAnswer,
			Explanation:    item.Explanation,
			Marks:          item.Marks,
			CognitiveLevel: item.CognitiveLevel,
			Status:         enums.QuestionStatusPendingReview,
		})
	}

	var entry *models.LedgerEntry
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.requests.WithTx(tx).Create(ctx, gen); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "insert generation request")
		}
		if err := s.questions.WithTx(tx).CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "insert questions")
		}
		ref := gen.ID.String()
		var err error
		entry, err = s.ledger.Debit(ctx, tx, ledger.EntryInput{
			UserID:        in.user.ID,
			Amount:        cost,
			Reason:        enums.LedgerReasonQuestionGeneration,
			ReferenceType: models.ReferenceTypeGenerationRequest,
			ReferenceID:   &ref,
			Metadata: map[string]any{
				"bloom_level":     string(in.level),
				"question_type":   string(in.qt),
				"requested_count": in.count,
				"actual_count":    actual,
				"unit_cost":       in.unitCost,
			},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		GenerationID:   gen.ID,
		Questions:      questions.FromModels(rows),
		RequestedCount: in.count,
		ActualCount:    actual,
		UnitCost:       in.unitCost,
		CoinsCharged:   cost,
		Balance:        entry.ResultingBalance,
		ParseStrategy:  strategy,
	}, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[RequestDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.requests.ListByUser(ctx, userID, cursor, params.Limit)
	if err != nil {
		return pagination.Page[RequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list generations")
	}
	page := pagination.BuildPage(rows, params.Limit, func(r models.GenerationRequest) pagination.Cursor {
		return pagination.Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
	})
	items := make([]RequestDTO, 0, len(page.Items))
	for _, r := range page.Items {
		items = append(items, RequestFromModel(r))
	}
	return pagination.Page[RequestDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// Rules and samples only shape the prompt; a failed lookup generates without them.
func (s *service) loadRules(ctx context.Context, qt enums.QuestionType) []string {
	if s.rules == nil {
		return nil
	}
	rules, err := s.rules.ActiveFor(ctx, qt)
	if err != nil {
		s.logg.Error(ctx, "load ai rules", err)
		return nil
	}
	return rules
}

func (s *service) loadSamples(ctx context.Context, level enums.BloomLevel, qt enums.QuestionType) []string {
	if s.samples == nil || s.sampleLimit <= 0 {
		return nil
	}
	samples, err := s.samples.Examples(ctx, level, qt, s.sampleLimit)
	if err != nil {
		s.logg.Error(ctx, "load bloom samples", err)
		return nil
	}
	return samples
}

func (s *service) observe(outcome string, started time.Time) {
	if s.metrics != nil {
		s.metrics.Observe(outcome, time.Since(started))
	}
}

func mapGeneratorError(err error) (string, error) {
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout, pkgerrors.Wrap(pkgerrors.CodeGenerationTimeout, err, "question generation timed out")
	case errors.Is(err, llm.ErrEmptyCompletion):
		return metrics.OutcomeEmpty, pkgerrors.Wrap(pkgerrors.CodeEmptyGeneration, err, "no questions were generated")
	default:
		return metrics.OutcomeDependencyError, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "question generator unavailable")
	}
}
