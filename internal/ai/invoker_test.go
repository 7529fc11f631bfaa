package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/smart-grid-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingTransport records calls and returns a fixed reply or error.
type countingTransport struct {
	calls atomic.Int32
	reply string
	err   error
}

func (t *countingTransport) Generate(ctx context.Context, prompt string) (string, error) {
	t.calls.Add(1)
	return t.reply, t.err
}

func (t *countingTransport) HealthCheck(ctx context.Context) error {
	t.calls.Add(1)
	return t.err
}

func TestInvoker_CredentialGate(t *testing.T) {
	keys := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "wrong prefix", key: "sk-0123456789abcdefghijklmnopqrstuvwxyz"},
		{name: "too short", key: "AIzaShort"},
	}

	for _, tt := range keys {
		t.Run(tt.name, func(t *testing.T) {
			transport := &countingTransport{reply: "{}"}
			inv := NewInvoker(tt.key, transport, zap.NewNop())

			_, err := inv.Invoke(context.Background(), "prompt")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrConfiguration))
			assert.False(t, domain.IsRetryable(err))

			assert.Error(t, inv.HealthCheck(context.Background()))
			assert.Equal(t, int32(0), transport.calls.Load(), "transport must not be called")
		})
	}
}

func TestInvoker_Success(t *testing.T) {
	transport := &countingTransport{reply: `{"ok": true}`}
	inv := NewInvoker(MockAPIKey, transport, zap.NewNop())

	reply, err := inv.Invoke(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, reply)
	assert.Equal(t, int32(1), transport.calls.Load())

	require.NoError(t, inv.HealthCheck(context.Background()))
	assert.Equal(t, int32(2), transport.calls.Load(), "health check reaches the transport")
}

func TestInvoker_TransportErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{
			name:      "classified transport error passes through",
			err:       domain.WrapError("rate_limit", domain.ErrRateLimited, true),
			retryable: true,
		},
		{
			name: "unclassified error becomes transport error",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &countingTransport{err: tt.err}
			inv := NewInvoker(MockAPIKey, transport, zap.NewNop())

			_, err := inv.Invoke(context.Background(), "prompt")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrTransport))
			assert.Equal(t, "transport", domain.Kind(err))
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
		})
	}
}

func TestMockClient_RepliesAreExtractable(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)
	client := NewMockClient(zap.NewNop())

	for _, op := range allStructuredOperations() {
		t.Run(string(op), func(t *testing.T) {
			prompt, err := b.Build(op, domain.Payload{})
			require.NoError(t, err)

			reply, err := client.Generate(context.Background(), prompt)
			require.NoError(t, err)

			shape := ShapeObject
			if op == domain.OpLoadBalancing {
				shape = ShapeArray
			}
			_, err = Extract(reply, shape)
			assert.NoError(t, err)
		})
	}
}
