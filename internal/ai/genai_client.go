package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/smart-grid-ai/internal/config"
	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GenAIClient implements Transport with the google.golang.org/genai SDK.
type GenAIClient struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenAIClient creates an SDK-backed transport.
func NewGenAIClient(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (*GenAIClient, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(cfg.BaseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		timeout:     cfg.Timeout,
		logger:      logger.Named("genai_client"),
	}, nil
}

// Generate sends prompt through Models.GenerateContent.
func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.temperature),
		MaxOutputTokens: c.maxTokens,
	})
	if err != nil {
		return "", classifyGenAIError(ctx, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", domain.WrapError("content_blocked",
			fmt.Errorf("%w: prompt blocked: %s", domain.ErrTransport, resp.PromptFeedback.BlockReason), false)
	}

	text := resp.Text()
	if text == "" {
		return "", domain.WrapError("empty_text",
			fmt.Errorf("%w: reply has no text", domain.ErrTransport), false)
	}

	c.logger.Debug("genai reply received",
		zap.String("model", c.model),
		zap.Int("reply_length", len(text)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return text, nil
}

// HealthCheck fetches the configured model's metadata.
func (c *GenAIClient) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return domain.WrapError("health_check", domain.ErrAIUnavailable, true)
	}
	return nil
}

// classifyGenAIError maps SDK errors onto the transport taxonomy.
func classifyGenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return domain.WrapError("genai_timeout", domain.ErrAITimeout, true)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return domain.WrapError("rate_limit", domain.ErrRateLimited, true)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return domain.WrapError("auth_error", domain.ErrAuthentication, false)
		case apiErr.Code >= 500:
			return domain.WrapError("genai_unavailable", domain.ErrAIUnavailable, true)
		}
		return domain.WrapError("genai_error",
			fmt.Errorf("%w: [%d] %s", domain.ErrTransport, apiErr.Code, apiErr.Message), false)
	}

	return domain.WrapError("genai_request", fmt.Errorf("%w: %v", domain.ErrTransport, err), true)
}
