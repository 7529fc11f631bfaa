package config

import (
	"errors"
	"testing"
	"time"

	"github.com/smart-grid-ai/internal/domain"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "well formed", key: "AIzaSyD-0123456789abcdefghijklmnopq", wantErr: false},
		{name: "empty", key: "", wantErr: true},
		{name: "wrong prefix", key: "sk-0123456789abcdefghijklmnopqrstuvwxyz", wantErr: true},
		{name: "too short", key: "AIza12345", wantErr: true},
		{name: "exactly minimum length", key: "AIza" + "0123456789012345678901234x", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("error should wrap ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RETRY_DELAY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AI.Provider != AIProviderGemini {
		t.Errorf("Provider = %s, want %s", cfg.AI.Provider, AIProviderGemini)
	}
	if cfg.Retry.AttemptTimeout != 5*time.Second {
		t.Errorf("AttemptTimeout = %v, want 5s", cfg.Retry.AttemptTimeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.Delay != time.Second {
		t.Errorf("Delay = %v, want 1s", cfg.Retry.Delay)
	}
}

func TestLoad_ZeroRetryDelay(t *testing.T) {
	t.Setenv("RETRY_DELAY", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Retry.Delay != 0 {
		t.Errorf("Delay = %v, want 0", cfg.Retry.Delay)
	}
}

func TestLoad_MissingKeyIsNotFatal(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(); err != nil {
		t.Fatalf("missing key must not fail Load(), got %v", err)
	}
}

func TestLoad_InvalidStructure(t *testing.T) {
	t.Setenv("AI_MAX_TOKENS", "10")

	_, err := Load()
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestGetDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "15")
	if got := getDurationOrDefault("TEST_DURATION", time.Second); got != 15*time.Second {
		t.Errorf("plain seconds = %v, want 15s", got)
	}

	t.Setenv("TEST_DURATION", "250ms")
	if got := getDurationOrDefault("TEST_DURATION", time.Second); got != 250*time.Millisecond {
		t.Errorf("duration string = %v, want 250ms", got)
	}

	t.Setenv("TEST_DURATION", "garbage")
	if got := getDurationOrDefault("TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("invalid value = %v, want default", got)
	}
}
