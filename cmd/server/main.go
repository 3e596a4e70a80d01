package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Anoka2002/codecraftagent/internal/codegen"
	"github.com/Anoka2002/codecraftagent/internal/completion"
	"github.com/Anoka2002/codecraftagent/internal/config"
	"github.com/Anoka2002/codecraftagent/internal/database"
	"github.com/Anoka2002/codecraftagent/internal/eventbus"
	"github.com/Anoka2002/codecraftagent/internal/formatter"
	"github.com/Anoka2002/codecraftagent/internal/handlers"
	"github.com/Anoka2002/codecraftagent/internal/language"
	"github.com/Anoka2002/codecraftagent/internal/middleware"
	"github.com/Anoka2002/codecraftagent/internal/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName = "codecraft"
	version     = "0.1.0"
)

// @title CodeCraft API
// @version 0.1.0
// @description Generates source code from natural-language prompts and formats it with the language's standard formatter.
// @host localhost:8000
// @BasePath /
// @schemes http
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("CodeCraft API starting...",
		zap.String("version", version),
		zap.String("environment", cfg.Environment),
		zap.String("completion_provider", cfg.CompletionProvider),
	)

	shutdownTelemetry, err := telemetry.InitTracer(ctx, serviceName, version, cfg.OTLPEndpoint)
	if err != nil {
		// collector may be down, keep serving
		logger.Error("failed to initialize telemetry", zap.Error(err))
	} else {
		defer func() {
			if err := shutdownTelemetry(ctx); err != nil {
				logger.Error("failed to shutdown telemetry", zap.Error(err))
			}
		}()
	}

	// Formatters
	var overrides map[string][]string
	if cfg.FormattersFile != "" {
		overrides, err = formatter.LoadOverrides(cfg.FormattersFile, logger)
		if err != nil {
			logger.Fatal("failed to load formatter overrides", zap.String("path", cfg.FormattersFile), zap.Error(err))
		}
	}
	dispatcher := formatter.NewDefaultDispatcher(logger, formatter.Options{
		Timeout:     cfg.FormatterTimeout,
		Concurrency: cfg.FormatterConcurrency,
		JavaJar:     cfg.JavaFormatterJar,
		Overrides:   overrides,
	})
	for tag, ok := range dispatcher.Available() {
		if !ok {
			logger.Warn("formatter not available, output will be returned unformatted", zap.String("language", tag))
		}
	}

	// Completion service
	client, err := completion.New(ctx, completion.Config{
		Provider: cfg.CompletionProvider,
		URL:      cfg.ModelAPIURL,
		APIKey:   cfg.ModelAPIKey,
		Model:    cfg.CompletionModel,
		Timeout:  cfg.CompletionTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("failed to create completion client", zap.Error(err))
	}
	if closer, ok := client.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// Optional NATS event bus
	var (
		events     eventbus.Publisher = eventbus.NopPublisher{}
		natsHealth handlers.Pinger
	)
	if cfg.NATSURL != "" {
		publisher, err := eventbus.Connect(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to connect to NATS, generation events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events, natsHealth = publisher, publisher
			logger.Info("connected to NATS")
		}
	}

	// Rate limiting: shared through Redis when configured, per process otherwise
	var (
		limiter     middleware.Limiter
		redisHealth handlers.Pinger
	)
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis, using in-memory rate limiting", zap.Error(err))
		} else {
			defer rdb.Close()
			limiter = middleware.NewRedisRateLimiter(rdb.Client(), cfg.RateLimitPerMinute)
			redisHealth = rdb
		}
	}
	if limiter == nil {
		memLimiter := middleware.NewPerMinuteLimiter(cfg.RateLimitPerMinute)
		defer memLimiter.Stop()
		limiter = memLimiter
	}

	breaker := middleware.NewCircuitBreaker()
	breaker.OnStateChange = func(from, to middleware.CircuitState) {
		logger.Warn("completion circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	service := codegen.NewService(language.NewKeywordSelector(), client, dispatcher, events, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := newRouter(routerDeps{
		logger:     logger,
		generation: handlers.NewGenerationHandler(service, logger),
		health:     handlers.NewHealthHandler(dispatcher, redisHealth, natsHealth, version),
		limiter:    limiter,
		breaker:    breaker,
		jwtSecret:  cfg.JWTSecret,
		tracing:    telemetry.Enabled(cfg.OTLPEndpoint),
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// a request may wait on the completion service and then a formatter
		WriteTimeout: cfg.CompletionTimeout + cfg.FormatterTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exited gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Environment == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	return zapConfig.Build()
}
