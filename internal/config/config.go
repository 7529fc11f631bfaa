// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smart-grid-ai/internal/domain"
	"github.com/smart-grid-ai/internal/retry"
)

const (
	// APIKeyPrefix is the prefix every Gemini API key carries.
	APIKeyPrefix = "AIza"

	// MinAPIKeyLength is the shortest key accepted as well formed.
	MinAPIKeyLength = 30
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// AI service configuration
	AI AIConfig

	// Retry settings for callers that wrap the predictor
	Retry RetryConfig

	// Chat and fallback processing configuration
	Processing ProcessingConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration
}

// AIProvider represents the transport used to reach the model.
type AIProvider string

const (
	// AIProviderGemini uses the Gemini REST API directly.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderGenAI uses the google.golang.org/genai SDK.
	AIProviderGenAI AIProvider = "genai"

	// AIProviderMock serves canned replies without network access.
	AIProviderMock AIProvider = "mock"
)

// AIConfig is the client configuration needed to reach the model.
type AIConfig struct {
	// Provider specifies which transport to use.
	Provider AIProvider

	// APIKey is the authentication key for the model provider.
	APIKey string

	// BaseURL is the base URL for the model API.
	BaseURL string

	// Model is the model to use.
	Model string

	// Timeout is the maximum time to wait for one model reply.
	Timeout time.Duration

	// MaxTokens is the maximum tokens for a model reply.
	MaxTokens int

	// Temperature controls sampling; low values keep JSON output stable.
	Temperature float64
}

// RetryConfig configures the retry-with-timeout utility.
type RetryConfig struct {
	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration

	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Delay is the fixed pause between attempts. Zero disables it.
	Delay time.Duration
}

// ProcessingConfig contains chat and fallback settings.
type ProcessingConfig struct {
	// MaxChatMessageSize caps a single chat message in bytes.
	MaxChatMessageSize int

	// RuleConfidenceThreshold is the minimum confidence for advisory rules.
	RuleConfidenceThreshold float64
}

// Load reads configuration from environment variables.
// A malformed API key is not a load error; it is reported by
// ValidateAPIKey and enforced by the model invoker.
func Load() (*Config, error) {
	provider := AIProvider(getEnvOrDefault("AI_PROVIDER", string(AIProviderGemini)))
	switch provider {
	case AIProviderGemini, AIProviderGenAI, AIProviderMock:
	default:
		provider = AIProviderGemini
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8080"),
			ReadTimeout:  getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		AI: AIConfig{
			Provider:    provider,
			APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			BaseURL:     getEnvOrDefault("AI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:       getEnvOrDefault("AI_MODEL", "gemini-2.0-flash"),
			Timeout:     getDurationOrDefault("AI_TIMEOUT", 30*time.Second),
			MaxTokens:   getIntOrDefault("AI_MAX_TOKENS", 2048),
			Temperature: getFloatOrDefault("AI_TEMPERATURE", 0.2),
		},
		Retry: RetryConfig{
			AttemptTimeout: getDurationOrDefault("RETRY_ATTEMPT_TIMEOUT", 5*time.Second),
			MaxAttempts:    getIntOrDefault("RETRY_MAX_ATTEMPTS", 3),
			Delay:          getDurationOrDefault("RETRY_DELAY", retry.DefaultDelay),
		},
		Processing: ProcessingConfig{
			MaxChatMessageSize:      getIntOrDefault("MAX_CHAT_MESSAGE_SIZE", 8000),
			RuleConfidenceThreshold: getFloatOrDefault("RULE_CONFIDENCE_THRESHOLD", 0.6),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.AI.Timeout < time.Second {
		return fmt.Errorf("%w: AI_TIMEOUT must be at least 1 second", domain.ErrInvalidConfig)
	}

	if c.AI.MaxTokens < 100 {
		return fmt.Errorf("%w: AI_MAX_TOKENS must be at least 100", domain.ErrInvalidConfig)
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("%w: AI_TEMPERATURE must be between 0 and 2", domain.ErrInvalidConfig)
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: RETRY_MAX_ATTEMPTS must be at least 1", domain.ErrInvalidConfig)
	}

	if c.Retry.AttemptTimeout <= 0 {
		return fmt.Errorf("%w: RETRY_ATTEMPT_TIMEOUT must be positive", domain.ErrInvalidConfig)
	}

	if c.Processing.MaxChatMessageSize < 100 {
		return fmt.Errorf("%w: MAX_CHAT_MESSAGE_SIZE must be at least 100 bytes", domain.ErrInvalidConfig)
	}

	if c.Processing.RuleConfidenceThreshold < 0 || c.Processing.RuleConfidenceThreshold > 1 {
		return fmt.Errorf("%w: RULE_CONFIDENCE_THRESHOLD must be between 0 and 1", domain.ErrInvalidConfig)
	}

	return nil
}

// ValidateAPIKey reports whether key is a recognizable provider credential.
// The returned error wraps domain.ErrConfiguration.
func ValidateAPIKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", domain.ErrConfiguration)
	case !strings.HasPrefix(key, APIKeyPrefix):
		return fmt.Errorf("%w: GEMINI_API_KEY must start with %q", domain.ErrConfiguration, APIKeyPrefix)
	case len(key) < MinAPIKeyLength:
		return fmt.Errorf("%w: GEMINI_API_KEY must be at least %d characters", domain.ErrConfiguration, MinAPIKeyLength)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Plain integers are seconds
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
