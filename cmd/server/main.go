package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"fathom/internal/acquisition"
	"fathom/internal/admission"
	"fathom/internal/api"
	"fathom/internal/config"
	"fathom/internal/llmcap"
	"fathom/internal/llmcap/providers"
	"fathom/internal/metasearch"
	"fathom/internal/orchestrator"
	"fathom/internal/ratelimit"
	"fathom/internal/repository/postgres"
	"fathom/internal/session"
	"fathom/internal/streaming"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.API.Debug {
		logLevel = slog.LevelDebug
	}
	var logger *slog.Logger
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			slog.Error("failed to set up log file", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: logLevel}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	}
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.API.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to datastore", "error", err)
		os.Exit(2)
	}
	defer pool.Close()
	logger.Info("database connected")

	tables := session.NewTableNames(cfg.TablePrefix)
	store := session.New(pool, tables, logger)

	governor := ratelimit.New(ratelimit.Config{
		GlobalConcurrency: int64(cfg.Concurrency.LLM),
		FailureThreshold:  config.DefaultGovernorFailureThreshold,
		Fallback:          fallbackResolver(cfg),
		MaxAttempts:       config.DefaultGovernorMaxAttempts,
		InitialBackoff:    config.DefaultGovernorInitialBackoff,
		MaxBackoff:        config.DefaultGovernorMaxBackoff,
		BackoffFactor:     config.DefaultGovernorBackoffFactor,
	}, logger)
	for service, rl := range cfg.RateLimits {
		rpm := rl.RPM
		if rpm <= 0 {
			rpm = config.DefaultRPM
		}
		burst := rl.Burst
		if burst <= 0 {
			burst = config.DefaultBurst
		}
		governor.SetRate(service, float64(rpm), burst)
	}

	var llmProviders []llmcap.Provider
	if cfg.AnthropicAPIKey != "" {
		anthropicProvider, err := providers.NewAnthropicProvider(cfg.AnthropicAPIKey)
		if err != nil {
			logger.Error("failed to construct anthropic provider", "error", err)
			os.Exit(1)
		}
		llmProviders = append(llmProviders, anthropicProvider)
	}
	if cfg.LocalAI.BaseURL != "" {
		llmProviders = append(llmProviders, providers.NewOpenAICompatProvider(
			"local", cfg.LocalAI.BaseURL, cfg.LocalAI.APIKey, cfg.LocalAI.ModelPrefix,
		))
	}
	llmProviders = append(llmProviders, providers.NewLoremProvider())
	llm := llmcap.New(governor, llmProviders...)

	limits := acquisition.Limits{
		MaxHTMLLength:  cfg.Parsing.MaxHTMLLength,
		PDFMaxFilesize: cfg.Parsing.PDFMaxFilesize,
		PDFMaxPages:    cfg.Parsing.PDFMaxPages,
		FetchTimeout:   cfg.Parsing.FetchTimeout(),
	}
	pipeline := &acquisition.Pipeline{
		Local: acquisition.NewLocalAcquirer(limits),
	}
	if cfg.Parsing.HostedParserBaseURL != "" {
		pipeline.Hosted = acquisition.NewHostedAcquirer(
			cfg.Parsing.HostedParserBaseURL, cfg.Parsing.HostedParserAPIKey, governor, limits,
		)
	}

	adm := admission.New(
		int64(cfg.Concurrency.PerHost),
		cfg.Concurrency.PerHostCooldown(),
		int64(cfg.Concurrency.GlobalFetch),
	)

	search := metasearch.NewTavilyClient(cfg.TavilyAPIKey)

	orch := orchestrator.New(store, llm, search, pipeline, adm, logger)
	registry := streaming.NewRegistry(orch, store, logger, cfg.API.Debug)

	router := api.NewRouter(store, registry, cfg.Settings.ToResearchSettings(), logger)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.API.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.API.Port,
		Handler: corsHandler.Handler(router),
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// fallbackResolver maps a failing (service, model) pair to the configured
// fallback model for that service, if any.
func fallbackResolver(cfg *config.Config) ratelimit.FallbackFunc {
	return func(service, failingModel string) (string, bool) {
		rl, ok := cfg.RateLimits[service]
		if !ok || rl.FallbackModel == "" {
			return "", false
		}
		return rl.FallbackModel, true
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
