package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"copper-intel-workers/internal/common/camunda"
	"copper-intel-workers/internal/common/config"
	"copper-intel-workers/internal/common/copper"
	"copper-intel-workers/internal/common/database"
	"copper-intel-workers/internal/common/logger"
	"copper-intel-workers/internal/common/observability"
	"copper-intel-workers/internal/common/validation"
	"copper-intel-workers/internal/confirmation"
	"copper-intel-workers/internal/fuzzy"
	"copper-intel-workers/internal/intent"
	"copper-intel-workers/internal/resolver"
	gi "copper-intel-workers/internal/workers/crm-intel/gather-intelligence"
	hm "copper-intel-workers/internal/workers/crm-intel/handle-message"
	re "copper-intel-workers/internal/workers/crm-intel/resolve-entity"
	"copper-intel-workers/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability exporter unavailable, job metrics disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Confirmation store ---
	ttl := config.GetDuration(cfg.Confirmation.TTL)
	var store confirmation.Store
	switch cfg.Confirmation.Backend {
	case config.BackendRedis:
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(ctx, cfg.Redis)
			return err
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		store = confirmation.NewRedisStore(rdb.Client, cfg.Confirmation.KeyPrefix, ttl)
		zapLog.Info("confirmation store: redis", zap.String("address", cfg.Redis.Address))
	default:
		store = confirmation.NewMemoryStore(ttl)
		zapLog.Info("confirmation store: memory")
	}

	// --- Resolution pipeline ---
	crm := copper.NewClient(copper.Options{
		BaseURL:       cfg.Copper.BaseURL,
		APIKey:        cfg.Copper.APIKey,
		UserEmail:     cfg.Copper.UserEmail,
		Timeout:       config.GetDuration(cfg.Copper.Timeout),
		RatePerMinute: cfg.Copper.RatePerMinute,
		PageSize:      cfg.Copper.PageSize,
		MaxPages:      cfg.Copper.MaxPages,
	})

	scorer := fuzzy.NewScorer()
	scorer.PhoneticGate = cfg.Matching.PhoneticGate
	scorer.PhoneticBoost = cfg.Matching.PhoneticBoost
	matcher := fuzzy.NewMatcher(scorer)
	matcher.Threshold = cfg.Matching.Threshold
	matcher.FilterThreshold = cfg.Matching.FilterThreshold

	crmTimeout := config.GetDuration(cfg.Copper.Timeout)
	res := resolver.New(
		resolver.NewAggregator(crm, matcher, cfg.Matching.NativeBoost, crmTimeout, log),
		resolver.NewIntelligence(crm, crmTimeout, log),
		resolver.Policy{AmbiguityDelta: cfg.Matching.AmbiguityDelta, MaxCandidates: cfg.Matching.MaxCandidates},
		log,
	)

	analyzer := intent.NewAnalyzer(&intent.Config{
		ProxyURL:    cfg.Intent.ProxyURL,
		Model:       cfg.Intent.Model,
		MaxTokens:   cfg.Intent.MaxTokens,
		Temperature: cfg.Intent.Temperature,
		Timeout:     config.GetDuration(cfg.Intent.Timeout),
		MaxRetries:  cfg.Intent.MaxRetries,
	}, nil, log)
	if cfg.Intent.ProxyURL == "" {
		zapLog.Info("intent proxy not configured, using keyword analysis only")
	}

	machine := confirmation.NewMachine(store, cfg.Matching.MaxCandidates, log)

	// --- Input schemas ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("input schema compile failed", zap.Error(err))
	}

	// --- Workers ---
	workers := camunda.NewWorkerSet(zeebe.GetClient(), cfg.App.Name, log)

	{
		handler, err := hm.NewHandler(hm.HandlerOptions{
			AppConfig:     cfg,
			Analyzer:      analyzer,
			Resolver:      res,
			Confirmations: machine,
			Validator:     validator,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create handle-message handler", zap.Error(err))
		}
		workers.Start(hm.TaskType, config.GetWorkerConfig(cfg, hm.TaskType), handler)
	}
	{
		handler, err := re.NewHandler(re.HandlerOptions{
			AppConfig:     cfg,
			Ranker:        res,
			Validator:     validator,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create resolve-entity handler", zap.Error(err))
		}
		workers.Start(re.TaskType, config.GetWorkerConfig(cfg, re.TaskType), handler)
	}
	{
		handler, err := gi.NewHandler(gi.HandlerOptions{
			AppConfig:     cfg,
			Loader:        crm,
			Gatherer:      res,
			Validator:     validator,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("failed to create gather-intelligence handler", zap.Error(err))
		}
		workers.Start(gi.TaskType, config.GetWorkerConfig(cfg, gi.TaskType), handler)
	}
	zapLog.Info("workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Server.Address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("health/metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("error shutting down observability", zap.Error(err))
	}

	zapLog.Info("worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
