package service

import (
	"context"
	"strings"
	"testing"

	"github.com/smart-grid-ai/internal/ai"
	"github.com/smart-grid-ai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPredictor_Dashboard(t *testing.T) {
	logger := zap.NewNop()
	invoker := ai.NewInvoker(ai.MockAPIKey, ai.NewMockClient(logger), logger)
	p := newTestPredictor(t, invoker, logger, nil)

	snapshot, err := p.Dashboard(context.Background(), DashboardInput{
		Emissions: domain.EmissionsInput{Total: 1000, Industrial: 500, Residential: 300, Transport: 200},
		EnergyMix: domain.EnergyMixInput{RenewablePercentage: 45},
		Weather:   domain.WeatherInput{Location: "Bergen", WindSpeed: 11, CloudCover: 60},
	})
	require.NoError(t, err)

	assert.NotNil(t, snapshot.Emissions["oneYear"])
	assert.NotNil(t, snapshot.EnergyMix["thermal"])
	assert.NotNil(t, snapshot.Weather["hourly"])
	assert.False(t, snapshot.GeneratedAt.IsZero())
}

func TestPredictor_DashboardPanelsFallBackIndependently(t *testing.T) {
	invoker := &fakeInvoker{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "Task: weatherImpact") {
			return "", domain.ErrAITimeout
		}
		if strings.Contains(prompt, "Task: energyMix") {
			return `{"solar": 30, "wind": 10, "hydro": 5, "thermal": 55}`, nil
		}
		return "not json", nil
	}}
	p := newTestPredictor(t, invoker, zap.NewNop(), nil)

	snapshot, err := p.Dashboard(context.Background(), DashboardInput{
		Emissions: domain.EmissionsInput{Total: 1000},
		EnergyMix: domain.EnergyMixInput{RenewablePercentage: 45},
		Weather:   domain.WeatherInput{Temperature: 21, WindSpeed: 4, CloudCover: 50},
	})
	require.NoError(t, err)

	assert.Equal(t, 1020.0, snapshot.Emissions["oneYear"].(map[string]any)["total"])
	assert.Equal(t, 55.0, snapshot.EnergyMix["thermal"])
	assert.Equal(t, 21.0, snapshot.Weather["current"].(map[string]any)["temperature"])
	assert.Equal(t, 3, invoker.calls())
}
