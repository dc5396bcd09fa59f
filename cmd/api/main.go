package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/adapter/postgres"
	redis_adapter "github.com/VIENDANBACK5/hybrid-topic-modeling/internal/adapter/redis"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/assess"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/budget"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/cache"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/config"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/dedupe"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/delivery/http/handler"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/delivery/http/router"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/enrich"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/entity"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/monitoring"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/pipeline"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/repository"
	"github.com/VIENDANBACK5/hybrid-topic-modeling/internal/selector"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := monitoring.NewMetrics()

	// Cross-run dedupe persistence is optional; without Postgres the index
	// starts empty on every boot.
	var dedupeStore repository.DedupeStore
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("connect postgres", zap.Error(err))
		}
		defer dbpool.Close()
		dedupeStore = postgres.NewDedupeRecordRepo(dbpool)
		logger.Info("postgres connection pool established")
	}

	index := dedupe.NewIndex(cfg.SimhashThreshold, dedupeStore, logger)
	if dedupeStore != nil {
		n, err := index.Warm(ctx)
		if err != nil {
			logger.Fatal("warm dedupe index", zap.Error(err))
		}
		logger.Info("dedupe index warmed", zap.Int("records", n))
	}

	var respCache repository.ResponseCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		respCache = redis_adapter.NewResponseCache(rdb)
		logger.Info("redis response cache established")
	} else {
		mem, err := cache.NewMemory(cfg.CacheMaxEntries)
		if err != nil {
			logger.Fatal("build memory cache", zap.Error(err))
		}
		respCache = mem
		logger.Info("using in-memory response cache", zap.Int("max_entries", cfg.CacheMaxEntries))
	}

	onAlert := func(st entity.BudgetState) {
		logger.Warn("budget alert threshold crossed",
			zap.Float64("spent", st.SpentToday),
			zap.Float64("limit", st.DailyLimit),
			zap.String("date", st.Date),
		)
	}
	ledger := budget.NewLedger(cfg.DailyBudgetUSD, cfg.BudgetAlertFraction, onAlert, logger)
	metrics.SetBudgetRemaining(cfg.DailyBudgetUSD)

	client := enrich.NewChatClient(enrich.ClientConfig{
		Endpoint:      cfg.EnrichEndpoint,
		Model:         cfg.EnrichModel,
		APIKey:        cfg.EnrichAPIKey,
		MaxInputChars: cfg.EnrichMaxInputChars,
		Timeout:       time.Duration(cfg.EnrichTimeoutSeconds) * time.Second,
	}, logger)
	enricher := enrich.NewRetrying(client, 2, time.Duration(cfg.RetryBackoffSeconds)*time.Second, logger)

	assessor := assess.NewAssessor(cfg.MinContentChars, time.Duration(cfg.FreshnessWindowDays)*24*time.Hour)

	estimator := selector.CostEstimator{
		PerCall:      cfg.CostPerCallUSD,
		PerKiloChars: cfg.CostPerKiloCharsUSD,
	}
	sel := selector.New(respCache, ledger, enricher, estimator,
		time.Duration(cfg.CacheTTLHours)*time.Hour, logger)

	mode, err := selector.ModeByName(cfg.PriorityMode)
	if err != nil {
		logger.Fatal("invalid priority mode", zap.String("mode", cfg.PriorityMode), zap.Error(err))
	}

	coordinator := pipeline.NewCoordinator(index, assessor, sel, mode,
		cfg.SemanticThreshold, cfg.EnrichWorkers, metrics, logger)

	sources := config.NewSourcePriorities()
	if cfg.SourcePriorityFile != "" {
		sources, err = config.LoadSourcePriorities(cfg.SourcePriorityFile)
		if err != nil {
			logger.Fatal("load source priorities", zap.Error(err))
		}
		logger.Info("source priorities loaded",
			zap.String("file", cfg.SourcePriorityFile),
			zap.Int("domains", len(sources.Domains)),
		)
	}

	apiHandler := handler.NewHandler(coordinator, ledger, sources, metrics, logger)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router.New(apiHandler, metrics, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.ServerPort), zap.String("mode", mode.Name))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
