package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiksha-labs/prashnagen/api/controllers"
	"github.com/shiksha-labs/prashnagen/api/middleware"
	"github.com/shiksha-labs/prashnagen/internal/admin"
	"github.com/shiksha-labs/prashnagen/internal/airules"
	"github.com/shiksha-labs/prashnagen/internal/auth"
	"github.com/shiksha-labs/prashnagen/internal/bloomsamples"
	"github.com/shiksha-labs/prashnagen/internal/generation"
	"github.com/shiksha-labs/prashnagen/internal/questions"
	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/internal/wallet"
	"github.com/shiksha-labs/prashnagen/pkg/auth/session"
	"github.com/shiksha-labs/prashnagen/pkg/config"
	"github.com/shiksha-labs/prashnagen/pkg/enums"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	pkgredis "github.com/shiksha-labs/prashnagen/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// cacheStore is the redis surface the HTTP layer needs for throttling and idempotency.
type cacheStore interface {
	pkgredis.IdempotencyStore
	controllers.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the router mounts.
type Dependencies struct {
	DB          controllers.Pinger
	Cache       cacheStore
	Sessions    sessionManager
	Metrics     prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth          auth.Service
	Register      auth.RegisterService
	AdminRegister auth.AdminRegisterService
	Users         users.Service
	Wallet        wallet.Service
	Generation    generation.Service
	Questions     questions.Service
	Taxonomy      taxonomy.Service
	AIRules       airules.Service
	BloomSamples  bloomsamples.Service
	Admin         admin.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.AuthRateLimitPolicy{
		Name:     "login",
		Window:   cfg.AuthRateLimit.LoginWindow,
		PerIP:    cfg.AuthRateLimit.LoginIPLimit,
		PerEmail: cfg.AuthRateLimit.LoginEmailLimit,
	}
	registerPolicy := middleware.AuthRateLimitPolicy{
		Name:     "register",
		Window:   cfg.AuthRateLimit.RegisterWindow,
		PerIP:    cfg.AuthRateLimit.RegisterIPLimit,
		PerEmail: cfg.AuthRateLimit.RegisterEmailLimit,
	}

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["database"] = deps.DB
	}
	if deps.Cache != nil {
		pingers["redis"] = deps.Cache
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, pingers, logg))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public/taxonomy", func(r chi.Router) {
		r.Get("/boards", controllers.ListBoards(deps.Taxonomy, false, logg))
		r.Get("/boards/{boardId}/subjects", controllers.ListSubjects(deps.Taxonomy, false, logg))
		r.Get("/subjects/{subjectId}/topics", controllers.ListTopics(deps.Taxonomy, false, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Cache, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Cache, logg)).Post("/register", controllers.AuthRegister(deps.Register, deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Sessions, cfg.JWT, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Sessions, deps.Users, cfg.JWT, logg))
		})

		// inline groups so the idempotency rules see the full route pattern
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.Idempotency(deps.Cache, logg))

			r.Get("/me", controllers.Me(deps.Users, logg))
			r.Get("/pricing", controllers.Pricing())

			r.Get("/wallet", controllers.WalletBalance(deps.Wallet, logg))
			r.Get("/wallet/limits", controllers.WalletLimits(deps.Wallet, logg))
			r.Get("/wallet/transactions", controllers.WalletTransactions(deps.Wallet, logg))
			r.Post("/wallet/top-up", controllers.WalletTopUp(deps.Wallet, logg))

			r.With(middleware.UserRateLimit(
				"generate",
				cfg.Generation.RateLimit,
				cfg.Generation.RateLimitWindow,
				deps.Cache,
				logg,
			)).Post("/questions/generate", controllers.GenerateQuestions(deps.Generation, logg))
			r.Get("/questions", controllers.ListQuestions(deps.Questions, logg))
			r.Get("/questions/{questionId}", controllers.GetQuestion(deps.Questions, logg))
			r.Get("/generations", controllers.GenerationHistory(deps.Generation, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if cfg.FeatureFlags.AdminRegister && !cfg.App.IsProd() {
				r.Post("/register", controllers.AdminAuthRegister(deps.AdminRegister, deps.Auth, logg))
			}
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Cache, logg)).Post("/login", controllers.AdminAuthLogin(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			r.Use(middleware.RequireRole(enums.SystemRoleAdmin, logg))
			r.Use(middleware.Idempotency(deps.Cache, logg))

			r.Get("/users", controllers.AdminListUsers(deps.Admin, logg))
			r.Get("/users/{userId}", controllers.AdminGetUser(deps.Admin, logg))
			r.Post("/users/{userId}/activate", controllers.AdminSetUserActive(deps.Admin, true, logg))
			r.Post("/users/{userId}/deactivate", controllers.AdminSetUserActive(deps.Admin, false, logg))
			r.Put("/users/{userId}/balance", controllers.AdminOverrideBalance(deps.Admin, logg))
			r.Get("/users/{userId}/ledger", controllers.AdminUserLedger(deps.Admin, logg))
			r.Get("/users/{userId}/ledger/audit", controllers.AdminLedgerAudit(deps.Admin, logg))

			r.Get("/taxonomy/boards", controllers.ListBoards(deps.Taxonomy, true, logg))
			r.Post("/taxonomy/boards", controllers.CreateBoard(deps.Taxonomy, logg))
			r.Patch("/taxonomy/boards/{boardId}", controllers.UpdateBoard(deps.Taxonomy, logg))
			r.Post("/taxonomy/boards/{boardId}/activate", controllers.SetBoardActive(deps.Taxonomy, true, logg))
			r.Post("/taxonomy/boards/{boardId}/deactivate", controllers.SetBoardActive(deps.Taxonomy, false, logg))
			r.Get("/taxonomy/boards/{boardId}/subjects", controllers.ListSubjects(deps.Taxonomy, true, logg))
			r.Post("/taxonomy/subjects", controllers.CreateSubject(deps.Taxonomy, logg))
			r.Patch("/taxonomy/subjects/{subjectId}", controllers.UpdateSubject(deps.Taxonomy, logg))
			r.Post("/taxonomy/subjects/{subjectId}/activate", controllers.SetSubjectActive(deps.Taxonomy, true, logg))
			r.Post("/taxonomy/subjects/{subjectId}/deactivate", controllers.SetSubjectActive(deps.Taxonomy, false, logg))
			r.Get("/taxonomy/subjects/{subjectId}/topics", controllers.ListTopics(deps.Taxonomy, true, logg))
			r.Post("/taxonomy/topics", controllers.CreateTopic(deps.Taxonomy, logg))
			r.Patch("/taxonomy/topics/{topicId}", controllers.UpdateTopic(deps.Taxonomy, logg))
			r.Post("/taxonomy/topics/{topicId}/activate", controllers.SetTopicActive(deps.Taxonomy, true, logg))
			r.Post("/taxonomy/topics/{topicId}/deactivate", controllers.SetTopicActive(deps.Taxonomy, false, logg))

			r.Get("/ai-rules", controllers.ListAIRules(deps.AIRules, logg))
			r.Post("/ai-rules", controllers.CreateAIRule(deps.AIRules, logg))
			r.Patch("/ai-rules/{ruleId}", controllers.UpdateAIRule(deps.AIRules, logg))
			r.Delete("/ai-rules/{ruleId}", controllers.DeleteAIRule(deps.AIRules, logg))

			r.Get("/bloom-samples", controllers.ListBloomSamples(deps.BloomSamples, logg))
			r.Post("/bloom-samples", controllers.CreateBloomSample(deps.BloomSamples, logg))
			r.Patch("/bloom-samples/{sampleId}", controllers.UpdateBloomSample(deps.BloomSamples, logg))
			r.Delete("/bloom-samples/{sampleId}", controllers.DeleteBloomSample(deps.BloomSamples, logg))

			r.Get("/questions", controllers.AdminListQuestions(deps.Questions, logg))
			r.Post("/questions/{questionId}/review", controllers.AdminReviewQuestion(deps.Questions, logg))
		})
	})

	return r
}
