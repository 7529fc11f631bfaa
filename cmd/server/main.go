// Smart Grid AI - Server Entry Point
//
// This is the main entry point for the smart grid prediction service.
// It initializes all dependencies and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smart-grid-ai/internal/ai"
	"github.com/smart-grid-ai/internal/config"
	"github.com/smart-grid-ai/internal/fallback"
	"github.com/smart-grid-ai/internal/handler"
	"github.com/smart-grid-ai/internal/logger"
	"github.com/smart-grid-ai/internal/metrics"
	"github.com/smart-grid-ai/internal/retry"
	"github.com/smart-grid-ai/internal/rules"
	"github.com/smart-grid-ai/internal/service"
	"github.com/smart-grid-ai/pkg/sanitizer"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	// Determine if we're in development mode
	isDev := os.Getenv("GIN_MODE") != "release"

	// Initialize logger
	zapLogger, err := logger.New(isDev)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting Smart Grid AI",
		zap.Bool("development", isDev),
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	zapLogger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("ai_provider", string(cfg.AI.Provider)),
		zap.String("ai_model", cfg.AI.Model),
		zap.Int("retry_max_attempts", cfg.Retry.MaxAttempts),
	)

	// Select the model transport
	apiKey := cfg.AI.APIKey
	var transport ai.Transport
	switch cfg.AI.Provider {
	case config.AIProviderMock:
		zapLogger.Warn("running in mock mode - model replies are simulated")
		transport = ai.NewMockClient(zapLogger)
		apiKey = ai.MockAPIKey
	case config.AIProviderGenAI:
		genaiClient, err := ai.NewGenAIClient(context.Background(), &cfg.AI, zapLogger)
		if err != nil {
			zapLogger.Warn("genai client unavailable, using REST transport", zap.Error(err))
			transport = ai.NewGeminiClient(&cfg.AI, zapLogger)
		} else {
			transport = genaiClient
		}
	default:
		transport = ai.NewGeminiClient(&cfg.AI, zapLogger)
	}
	invoker := ai.NewInvoker(apiKey, transport, zapLogger)

	promptBuilder, err := ai.NewPromptBuilder()
	if err != nil {
		zapLogger.Fatal("failed to create prompt builder", zap.Error(err))
	}

	// Initialize rule engine and fallbacks
	ruleEngine := rules.NewEngine(
		rules.DefaultRules(),
		cfg.Processing.RuleConfidenceThreshold,
		zapLogger,
	)
	synthesizer := fallback.New(ruleEngine)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	predictionMetrics := metrics.New(registry)

	// Initialize predictor service
	predictor := service.NewPredictor(
		invoker,
		promptBuilder,
		service.Descriptors(synthesizer),
		sanitizer.New(cfg.Processing.MaxChatMessageSize),
		predictionMetrics,
		zapLogger,
	)

	retryOpts := retry.Options{
		AttemptTimeout: cfg.Retry.AttemptTimeout,
		MaxAttempts:    cfg.Retry.MaxAttempts,
		Delay:          cfg.Retry.Delay,
	}

	// Initialize handlers
	predictionHandler := handler.NewPredictionHandler(predictor, zapLogger)
	chatHandler := handler.NewChatHandler(predictor, retryOpts, zapLogger)
	dashboardHandler := handler.NewDashboardHandler(predictor, zapLogger)
	healthHandler := handler.NewHealthHandler(zapLogger)
	readyHandler := handler.NewReadyHandler(invoker, retryOpts, zapLogger)

	// Setup Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply middleware
	router.Use(handler.RecoveryMiddleware(zapLogger))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggingMiddleware(zapLogger))
	router.Use(handler.CORSMiddleware())

	// Register routes
	router.GET("/health", healthHandler.Handle)
	router.GET("/ready", readyHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/predictions/:operation", predictionHandler.Handle)
		v1.POST("/chat", chatHandler.Handle)
		v1.POST("/dashboard", dashboardHandler.Handle)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")

	// Give the server 10 seconds to finish processing
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server stopped")
}
