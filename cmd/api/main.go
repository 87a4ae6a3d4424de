package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/shiksha-labs/prashnagen/api/routes"
	"github.com/shiksha-labs/prashnagen/internal/admin"
	"github.com/shiksha-labs/prashnagen/internal/airules"
	"github.com/shiksha-labs/prashnagen/internal/auth"
	"github.com/shiksha-labs/prashnagen/internal/bloomsamples"
	"github.com/shiksha-labs/prashnagen/internal/generation"
	"github.com/shiksha-labs/prashnagen/internal/ledger"
	"github.com/shiksha-labs/prashnagen/internal/questions"
	"github.com/shiksha-labs/prashnagen/internal/taxonomy"
	"github.com/shiksha-labs/prashnagen/internal/users"
	"github.com/shiksha-labs/prashnagen/internal/wallet"
	"github.com/shiksha-labs/prashnagen/pkg/auth/session"
	"github.com/shiksha-labs/prashnagen/pkg/config"
	"github.com/shiksha-labs/prashnagen/pkg/db"
	"github.com/shiksha-labs/prashnagen/pkg/llm"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
	"github.com/shiksha-labs/prashnagen/pkg/mailer"
	"github.com/shiksha-labs/prashnagen/pkg/metrics"
	"github.com/shiksha-labs/prashnagen/pkg/migrate"
	"github.com/shiksha-labs/prashnagen/pkg/redis"
	"github.com/shiksha-labs/prashnagen/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(logg, "redis", err)

	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing resources", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	requireResource(logg, "session manager", err)

	generator, err := llm.NewOpenAIClient(cfg.OpenAI)
	requireResource(logg, "llm client", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gormDB := dbClient.DB()
	passwords := security.NewHasher(cfg.Password)
	mail := mailer.New(cfg.Sendgrid, logg)

	usersRepo := users.NewRepository(gormDB)
	usersService, err := users.NewService(usersRepo)
	requireResource(logg, "users service", err)

	ledgerService, err := ledger.NewService(ledger.NewRepository(gormDB), dbClient)
	requireResource(logg, "ledger service", err)

	taxonomyService, err := taxonomy.NewService(taxonomy.NewRepository(gormDB))
	requireResource(logg, "taxonomy service", err)

	rulesService, err := airules.NewService(airules.NewRepository(gormDB))
	requireResource(logg, "ai rules service", err)

	samplesService, err := bloomsamples.NewService(bloomsamples.NewRepository(gormDB))
	requireResource(logg, "bloom samples service", err)

	questionsRepo := questions.NewRepository(gormDB)
	questionsService, err := questions.NewService(questionsRepo)
	requireResource(logg, "questions service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Passwords:      passwords,
		JWTConfig:      cfg.JWT,
	})
	requireResource(logg, "auth service", err)

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:          dbClient,
		Passwords:   passwords,
		Ledger:      ledgerService,
		Mailer:      mail,
		Logger:      logg,
		AppName:     cfg.Sendgrid.AppName,
		SignupBonus: cfg.Wallet.SignupBonusCoins,
	})
	requireResource(logg, "register service", err)

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		DB:        dbClient,
		Passwords: passwords,
	})
	requireResource(logg, "admin register service", err)

	walletService, err := wallet.NewService(wallet.ServiceParams{
		DB:            dbClient,
		Accounts:      usersService,
		Ledger:        ledgerService,
		Gateway:       wallet.NewSimulatedGateway(cfg.Wallet.DeclineAbove),
		Mailer:        mail,
		Metrics:       metrics.NewWalletMetrics(registry),
		Logger:        logg,
		MinTopUp:      cfg.Wallet.MinTopUp,
		MaxTopUp:      cfg.Wallet.MaxTopUp,
		CoinsPerRupee: cfg.Wallet.CoinsPerRupee,
	})
	requireResource(logg, "wallet service", err)

	generationService, err := generation.NewService(generation.ServiceParams{
		DB:          dbClient,
		Requests:    generation.NewRepository(gormDB),
		Questions:   questionsRepo,
		Accounts:    usersService,
		Taxonomy:    taxonomyService,
		Rules:       rulesService,
		Samples:     samplesService,
		Ledger:      ledgerService,
		Generator:   generator,
		Metrics:     metrics.NewGenerationMetrics(registry),
		Logger:      logg,
		Model:       cfg.OpenAI.Model,
		MaxCount:    cfg.Generation.MaxCount,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		SampleLimit: cfg.Generation.SampleLimit,
	})
	requireResource(logg, "generation service", err)

	adminService, err := admin.NewService(usersRepo, ledgerService, logg)
	requireResource(logg, "admin service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:            dbClient,
			Cache:         redisClient,
			Sessions:      sessionManager,
			Metrics:       registry,
			HTTPMetrics:   metrics.NewHTTPMetrics(registry),
			Auth:          authService,
			Register:      registerService,
			AdminRegister: adminRegisterService,
			Users:         usersService,
			Wallet:        walletService,
			Generation:    generationService,
			Questions:     questionsService,
			Taxonomy:      taxonomyService,
			AIRules:       rulesService,
			BloomSamples:  samplesService,
			Admin:         adminService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(serverCtx, "graceful shutdown failed", err)
		}
	}
}

func requireResource(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "resource not working: "+resource, err)
	os.Exit(1)
}
