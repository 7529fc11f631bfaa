package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smart-grid-ai/internal/domain"
	"github.com/smart-grid-ai/internal/retry"
	"github.com/smart-grid-ai/internal/service"
	"go.uber.org/zap"
)

// PredictionHandler handles structured prediction requests.
type PredictionHandler struct {
	predictor *service.Predictor
	logger    *zap.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(predictor *service.Predictor, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictor: predictor,
		logger:    logger.Named("prediction_handler"),
	}
}

// Handle processes POST /api/v1/predictions/:operation requests.
func (h *PredictionHandler) Handle(c *gin.Context) {
	startTime := time.Now()
	op := domain.Operation(c.Param("operation"))
	logger := h.logger.With(
		zap.String("request_id", c.GetString(requestIDKey)),
		zap.String("operation", string(op)),
	)

	// An empty body is an empty payload; fallbacks apply defaults.
	payload := domain.Payload{}
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	result, err := h.predictor.Predict(c.Request.Context(), op, payload)
	if err != nil {
		logger.Warn("unknown operation")
		c.JSON(http.StatusNotFound, gin.H{
			"success":    false,
			"error":      err.Error(),
			"operations": h.predictor.Operations(),
		})
		return
	}

	logger.Debug("prediction served", zap.Duration("duration", time.Since(startTime)))
	c.JSON(http.StatusOK, domain.PredictionResponse{
		Operation:   op,
		Result:      result,
		ProcessedAt: time.Now(),
	})
}

// ChatHandler handles chat requests. Transient model failures are retried;
// when retries are exhausted the user gets service.ChatApology.
type ChatHandler struct {
	predictor *service.Predictor
	retry     retry.Options
	logger    *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(predictor *service.Predictor, opts retry.Options, logger *zap.Logger) *ChatHandler {
	h := &ChatHandler{
		predictor: predictor,
		retry:     opts,
		logger:    logger.Named("chat_handler"),
	}
	h.retry.ShouldRetry = retryableChatError
	h.retry.OnRetry = func(attempt int, err error) {
		h.logger.Debug("retrying chat", zap.Int("attempt", attempt), zap.Error(err))
	}
	return h
}

// Handle processes POST /api/v1/chat requests.
func (h *ChatHandler) Handle(c *gin.Context) {
	startTime := time.Now()
	logger := h.logger.With(zap.String("request_id", c.GetString(requestIDKey)))

	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	reply, err := retry.Do(c.Request.Context(), h.retry, func(ctx context.Context) (string, error) {
		return h.predictor.Chat(ctx, req.History, req.Message)
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   err.Error(),
			})
			return
		}

		logger.Error("chat failed, replying with apology",
			zap.String("kind", domain.Kind(err)),
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		c.JSON(http.StatusOK, domain.ChatResponse{
			Success:     false,
			Reply:       service.ChatApology,
			ProcessedAt: time.Now(),
		})
		return
	}

	logger.Info("chat completed", zap.Duration("duration", time.Since(startTime)))
	c.JSON(http.StatusOK, domain.ChatResponse{
		Success:     true,
		Reply:       reply,
		ProcessedAt: time.Now(),
	})
}

// retryableChatError retries transient transport failures and attempt timeouts.
func retryableChatError(err error) bool {
	return domain.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
}

// DashboardHandler handles dashboard snapshot requests.
type DashboardHandler struct {
	predictor *service.Predictor
	logger    *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(predictor *service.Predictor, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		predictor: predictor,
		logger:    logger.Named("dashboard_handler"),
	}
}

// Handle processes POST /api/v1/dashboard requests.
func (h *DashboardHandler) Handle(c *gin.Context) {
	var in service.DashboardInput
	if err := c.ShouldBindJSON(&in); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body: " + err.Error(),
		})
		return
	}

	snapshot, err := h.predictor.Dashboard(c.Request.Context(), in)
	if err != nil {
		h.logger.Error("dashboard failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Internal error while building dashboard",
		})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		logger: logger.Named("health_handler"),
	}
}

// Handle processes GET /health requests.
func (h *HealthHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthChecker reports whether the model backend is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ReadyHandler handles readiness check requests.
type ReadyHandler struct {
	checker HealthChecker
	retry   retry.Options
	logger  *zap.Logger
}

// NewReadyHandler creates a new ReadyHandler.
func NewReadyHandler(checker HealthChecker, opts retry.Options, logger *zap.Logger) *ReadyHandler {
	// A rejected credential will not fix itself between attempts.
	opts.ShouldRetry = func(err error) bool {
		return !errors.Is(err, domain.ErrConfiguration)
	}
	return &ReadyHandler{
		checker: checker,
		retry:   opts,
		logger:  logger.Named("ready_handler"),
	}
}

// Handle processes GET /ready requests. The service stays usable without
// the model, so not ready only means predictions will be fallbacks.
func (h *ReadyHandler) Handle(c *gin.Context) {
	_, err := retry.Do(c.Request.Context(), h.retry, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.checker.HealthCheck(ctx)
	})
	if err != nil {
		h.logger.Warn("model backend not ready", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": err.Error(),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
