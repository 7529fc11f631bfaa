package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smart-grid-ai/internal/config"
	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
)

// GeminiClient implements Transport against the Gemini REST API.
type GeminiClient struct {
	config     *config.AIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// Gemini API request/response structures

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is one piece of content. Thinking models may set Thought.
type geminiPart struct {
	Text    string `json:"text,omitempty"`
	Thought bool   `json:"thought,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	Error          *geminiError          `json:"error,omitempty"`
	UsageMetadata  *geminiUsageMetadata  `json:"usageMetadata,omitempty"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
	Index        int           `json:"index,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGeminiClient creates a Gemini REST transport.
func NewGeminiClient(cfg *config.AIConfig, logger *zap.Logger) *GeminiClient {
	return &GeminiClient{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.Named("gemini_client"),
	}
}

// Generate sends prompt to generateContent and returns the concatenated text
// parts of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()

	// Thinking tokens count against the output limit on 2.5+ models.
	maxTokens := c.config.MaxTokens
	if isThinkingModel(c.config.Model) {
		maxTokens = c.config.MaxTokens * 4
		if maxTokens < 4096 {
			maxTokens = 4096
		}
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.config.Temperature,
			MaxOutputTokens: maxTokens,
			TopP:            0.95,
			TopK:            40,
		},
		SafetySettings: []geminiSafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_ONLY_HIGH"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_ONLY_HIGH"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.WrapError("marshal_request", fmt.Errorf("%w: %v", domain.ErrTransport, err), false)
	}

	text, err := c.executeRequest(ctx, c.buildURL(), jsonBody)
	if err != nil {
		return "", err
	}

	c.logger.Debug("gemini reply received",
		zap.String("model", c.config.Model),
		zap.Int("reply_length", len(text)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return text, nil
}

// buildURL constructs the Gemini API URL.
func (c *GeminiClient) buildURL() string {
	baseURL := strings.TrimSuffix(c.config.BaseURL, "/")

	if strings.Contains(baseURL, "/v1") {
		return fmt.Sprintf("%s/models/%s:generateContent?key=%s", baseURL, c.config.Model, c.config.APIKey)
	}

	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", baseURL, c.config.Model, c.config.APIKey)
}

// executeRequest performs a single HTTP request to the Gemini API.
func (c *GeminiClient) executeRequest(ctx context.Context, url string, jsonBody []byte) (string, error) {
	c.logger.Debug("sending Gemini request",
		zap.String("url", maskAPIKey(url)),
		zap.Int("body_size", len(jsonBody)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", domain.WrapError("create_request", fmt.Errorf("%w: %v", domain.ErrTransport, err), false)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.WrapError("gemini_timeout", domain.ErrAITimeout, true)
		}
		return "", domain.WrapError("http_request", fmt.Errorf("%w: %v", domain.ErrTransport, maskError(err)), true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.WrapError("read_response", fmt.Errorf("%w: %v", domain.ErrTransport, err), true)
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.handleHTTPError(resp.StatusCode, body)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		c.logger.Warn("failed to unmarshal Gemini response",
			zap.Error(err),
			zap.String("body_preview", truncate(string(body), 500)),
		)
		return "", domain.WrapError("parse_response", fmt.Errorf("%w: %v", domain.ErrTransport, err), false)
	}

	if geminiResp.Error != nil {
		return "", domain.WrapError("gemini_api_error",
			fmt.Errorf("%w: [%d] %s: %s", domain.ErrTransport, geminiResp.Error.Code, geminiResp.Error.Status, geminiResp.Error.Message), false)
	}

	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return "", domain.WrapError("content_blocked",
			fmt.Errorf("%w: prompt blocked: %s", domain.ErrTransport, geminiResp.PromptFeedback.BlockReason), false)
	}

	if len(geminiResp.Candidates) == 0 {
		return "", domain.WrapError("empty_response",
			fmt.Errorf("%w: no candidates in response", domain.ErrTransport), false)
	}

	candidate := geminiResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", domain.WrapError("safety_filter",
			fmt.Errorf("%w: response blocked by safety filter", domain.ErrTransport), false)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", domain.WrapError("empty_text",
			fmt.Errorf("%w: candidate has no text (finish reason %q)", domain.ErrTransport, candidate.FinishReason), false)
	}

	if geminiResp.UsageMetadata != nil {
		c.logger.Debug("gemini usage",
			zap.Int("prompt_tokens", geminiResp.UsageMetadata.PromptTokenCount),
			zap.Int("reply_tokens", geminiResp.UsageMetadata.CandidatesTokenCount),
		)
	}

	return text.String(), nil
}

// handleHTTPError classifies a non-200 response.
func (c *GeminiClient) handleHTTPError(statusCode int, body []byte) error {
	var errResp geminiResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		c.logger.Warn("Gemini API error",
			zap.Int("status", statusCode),
			zap.String("error_status", errResp.Error.Status),
			zap.String("error_message", errResp.Error.Message),
		)
	}

	switch statusCode {
	case http.StatusTooManyRequests:
		return domain.WrapError("rate_limit", domain.ErrRateLimited, true)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.WrapError("auth_error",
			fmt.Errorf("%w (status %d): check GEMINI_API_KEY", domain.ErrAuthentication, statusCode), false)
	case http.StatusBadRequest:
		return domain.WrapError("bad_request",
			fmt.Errorf("%w: bad request: %s", domain.ErrTransport, truncate(string(body), 200)), false)
	case http.StatusNotFound:
		return domain.WrapError("model_not_found",
			fmt.Errorf("%w: model not found: check AI_MODEL", domain.ErrTransport), false)
	default:
		if statusCode >= 500 {
			return domain.WrapError("gemini_unavailable", domain.ErrAIUnavailable, true)
		}
		return domain.WrapError("gemini_error",
			fmt.Errorf("%w: status %d: %s", domain.ErrTransport, statusCode, truncate(string(body), 200)), false)
	}
}

// HealthCheck verifies the Gemini API is reachable.
func (c *GeminiClient) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1beta/models?key=%s", strings.TrimSuffix(c.config.BaseURL, "/"), c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError("health_check", domain.ErrAIUnavailable, true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WrapError("health_check", domain.ErrAIUnavailable, true)
	}

	return nil
}

// maskAPIKey masks the API key in a URL for safe logging.
func maskAPIKey(url string) string {
	if idx := strings.Index(url, "key="); idx != -1 {
		endIdx := strings.IndexAny(url[idx:], "&\" ")
		if endIdx == -1 {
			return url[:idx] + "key=***"
		}
		return url[:idx] + "key=***" + url[idx+endIdx:]
	}
	return url
}

// maskError strips the key from url.Error messages, which embed the request URL.
func maskError(err error) string {
	return maskAPIKey(err.Error())
}

// isThinkingModel reports whether model spends output tokens on reasoning.
func isThinkingModel(model string) bool {
	return strings.Contains(model, "2.5") ||
		strings.Contains(model, "thinking") ||
		strings.Contains(model, "reasoning")
}
