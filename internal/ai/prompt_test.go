package ai

import (
	"errors"
	"strings"
	"testing"

	"github.com/smart-grid-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allStructuredOperations() []domain.Operation {
	return []domain.Operation{
		domain.OpCarbonEmissions,
		domain.OpTradingRecommendation,
		domain.OpRiskAssessment,
		domain.OpContractTerms,
		domain.OpOrderBook,
		domain.OpEnergyMix,
		domain.OpWeatherImpact,
		domain.OpLoadBalancing,
		domain.OpEVChargingOptimization,
	}
}

func TestPromptBuilder_StructuredPromptsEndWithDirective(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	for _, op := range allStructuredOperations() {
		t.Run(string(op), func(t *testing.T) {
			prompt, err := b.Build(op, domain.Payload{})
			require.NoError(t, err)

			assert.True(t, strings.HasSuffix(prompt, JSONDirective), "prompt must end with the JSON directive")
			assert.Contains(t, prompt, systemPromptText)

			got, ok := OperationOf(prompt)
			require.True(t, ok)
			assert.Equal(t, op, got)
		})
	}
}

func TestPromptBuilder_Defaults(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	prompt, err := b.Build(domain.OpTradingRecommendation, nil)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Region: Unknown")
	assert.Contains(t, prompt, "- Current price ($/kWh): 0")
	assert.Contains(t, prompt, "- Demand (kWh): 0")
}

func TestPromptBuilder_RendersValues(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	prompt, err := b.Build(domain.OpCarbonEmissions, domain.EmissionsInput{
		Total:       1000,
		Industrial:  500,
		Residential: 300.5,
		Transport:   200,
	}.Payload())
	require.NoError(t, err)

	assert.Contains(t, prompt, "- Total: 1000\n")
	assert.Contains(t, prompt, "- Residential: 300.5\n")
}

func TestPromptBuilder_Deterministic(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	payload := domain.WeatherInput{Location: "Oslo", Temperature: -3, WindSpeed: 12, CloudCover: 80, Humidity: 70}.Payload()

	first, err := b.Build(domain.OpWeatherImpact, payload)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := b.Build(domain.OpWeatherImpact, payload)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPromptBuilder_Chat(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	prompt, err := b.Build(domain.OpChat, domain.Payload{
		"history": []domain.ChatTurn{
			{Role: "user", Content: "What is peak demand?"},
			{Role: "assistant", Content: "The hour with the highest load."},
		},
		"message": "When is it today?",
	})
	require.NoError(t, err)

	assert.NotContains(t, prompt, JSONDirective)
	assert.Contains(t, prompt, "User: What is peak demand?")
	assert.Contains(t, prompt, "Assistant: The hour with the highest load.")
	assert.True(t, strings.HasSuffix(prompt, "User: When is it today?\nAssistant:"))
	assert.Less(t,
		strings.Index(prompt, "What is peak demand?"),
		strings.Index(prompt, "When is it today?"),
		"history precedes the new message")
}

func TestPromptBuilder_UnknownOperation(t *testing.T) {
	b, err := NewPromptBuilder()
	require.NoError(t, err)

	_, err = b.Build(domain.Operation("weatherControl"), domain.Payload{})
	assert.True(t, errors.Is(err, domain.ErrUnknownOperation))
}

func TestOperationOf_NoMarker(t *testing.T) {
	_, ok := OperationOf("free text without a task line")
	assert.False(t, ok)
}
