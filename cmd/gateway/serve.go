package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/application"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/application/services"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/alerting"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/persistence"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/infrastructure/ratelimit"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/worker"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const memoryAuditCapacity = 10000

func serveCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the stale payment monitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), autoMigrate)
		},
	}
	cmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply database migrations before serving")
	return cmd
}

type storage struct {
	payments application.PaymentStore
	audit    application.AuditSink
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, autoMigrate bool, logger *slog.Logger) (*storage, error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory storage, payments are lost on restart")
		return &storage{
			payments: memory.NewStore(),
			audit:    memory.NewAuditLog(memoryAuditCapacity),
			close:    func() {},
		}, nil
	}

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if autoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &storage{
		payments: postgres.NewPaymentRepository(db),
		audit:    postgres.NewAuditRepository(db),
		close:    db.Close,
	}, nil
}

// newLimiter prefers the shared Redis limiter and falls back to a
// per-process one when Redis is not configured or unreachable.
func newLimiter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (application.RateLimiter, func()) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}
	}
	if cfg.Redis.Enabled() {
		rdb, err := ratelimit.Connect(ctx, cfg.Redis)
		if err == nil {
			logger.Info("rate limiting through redis", "addr", cfg.Redis.Addr)
			return ratelimit.NewRedisLimiter(rdb, cfg.RateLimit), func() { _ = rdb.Close() }
		}
		logger.Warn("redis unavailable, rate limiting per process", "error", err)
	}
	return ratelimit.NewLocalLimiter(cfg.RateLimit), func() {}
}

func newProfile(cfg *config.Config) (services.RequestProfile, error) {
	loc, err := cfg.Gateway.Location()
	if err != nil {
		return services.RequestProfile{}, err
	}
	limits, err := cfg.Gateway.Limits()
	if err != nil {
		return services.RequestProfile{}, err
	}
	return services.RequestProfile{
		StoreName:       cfg.Gateway.StoreName,
		GatewayURL:      cfg.Gateway.URL,
		Currency:        cfg.Gateway.Currency,
		TxnType:         cfg.Gateway.TxnType,
		CheckoutOption:  cfg.Gateway.CheckoutOption,
		PaymentMethod:   cfg.Gateway.PaymentMethod,
		Location:        loc,
		Limits:          limits,
		SuccessURL:      cfg.Gateway.SuccessURL,
		FailURL:         cfg.Gateway.FailURL,
		NotificationURL: cfg.Gateway.NotificationURL,
	}, nil
}

func runServe(parent context.Context, autoMigrate bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting gateway service",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"log_level", cfg.Logger.Level,
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, autoMigrate, logger)
	if err != nil {
		return err
	}
	defer store.close()

	engine, err := cfg.NewEngine()
	if err != nil {
		return err
	}
	outbound, notification, err := cfg.Signing.Scopes()
	if err != nil {
		return err
	}
	profile, err := newProfile(cfg)
	if err != nil {
		return err
	}
	allowed, err := cfg.Webhook.AllowedPrefixes()
	if err != nil {
		return err
	}

	alerter := alerting.NewLogAlerter(logger, cfg.Alerting.QuietPeriod)

	initiateService := services.NewInitiateService(
		persistence.NewRetryingStore(store.payments, cfg.Store.Retry, logger),
		engine,
		outbound,
		profile,
		logger,
	)
	reconciler := services.NewWebhookReconciler(
		store.payments,
		store.audit,
		alerter,
		engine,
		notification,
		logger,
		services.WithStoreTimeout(cfg.Webhook.StoreTimeout),
		services.WithAllowedSources(allowed),
	)
	queryService := services.NewQueryService(store.payments)

	limiter, closeLimiter := newLimiter(ctx, cfg, logger)
	defer closeLimiter()

	spec, err := rest.LoadSpec(ctx)
	if err != nil {
		return err
	}
	rest.RegisterDocs()

	h := handlers.NewHandlers(
		initiateService,
		reconciler,
		queryService,
		store.payments,
		cfg.Server.TrustProxy,
		cfg.Webhook.MaxBodyBytes,
		logger,
	)
	router, err := handlers.NewRouter(h, handlers.RouterOptions{
		Limiter:        limiter,
		Spec:           spec,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	monitor := worker.NewStaleMonitor(
		store.payments,
		alerter,
		cfg.Worker.Interval,
		cfg.Worker.StaleAfter,
		cfg.Worker.BatchSize,
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		monitor.Start(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server forced to shutdown", "error", err)
			return err
		}
		return nil
	})

	err = g.Wait()
	logger.Info("server exited")
	return err
}
