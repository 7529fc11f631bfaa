package ai

import (
	"context"
	"errors"
	"time"

	"github.com/smart-grid-ai/internal/config"
	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
)

// MockAPIKey is a well-formed placeholder credential for the mock transport.
const MockAPIKey = "AIzaMockKeyForOfflineDevelopment000000"

// Invoker sends prompts to a Transport behind a credential gate.
// The credential is checked once at construction; an invalid credential makes
// every Invoke fail with domain.ErrConfiguration before any network I/O.
type Invoker struct {
	transport Transport
	credErr   error
	logger    *zap.Logger
}

// NewInvoker creates an invoker for transport authenticated with apiKey.
func NewInvoker(apiKey string, transport Transport, logger *zap.Logger) *Invoker {
	credErr := config.ValidateAPIKey(apiKey)
	if credErr != nil {
		logger.Warn("model credential rejected; predictions will use fallbacks",
			zap.Error(credErr),
		)
	}

	return &Invoker{
		transport: transport,
		credErr:   credErr,
		logger:    logger.Named("invoker"),
	}
}

// Invoke delivers prompt to the model and returns its raw reply.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if i.credErr != nil {
		return "", domain.WrapError("invoke", i.credErr, false)
	}

	startTime := time.Now()
	reply, err := i.transport.Generate(ctx, prompt)
	if err != nil {
		// Transports classify their own failures; anything unclassified is
		// still a transport failure.
		if !errors.Is(err, domain.ErrTransport) {
			err = domain.WrapError("invoke", errors.Join(domain.ErrTransport, err), domain.IsRetryable(err))
		}
		i.logger.Debug("model call failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(startTime)),
		)
		return "", err
	}

	i.logger.Debug("model call completed",
		zap.Int("prompt_length", len(prompt)),
		zap.Int("reply_length", len(reply)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return reply, nil
}

// HealthCheck verifies the credential and the transport.
func (i *Invoker) HealthCheck(ctx context.Context) error {
	if i.credErr != nil {
		return i.credErr
	}
	return i.transport.HealthCheck(ctx)
}
