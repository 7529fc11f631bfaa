package ai

import (
	"context"

	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
)

// mockReplies are canned model replies keyed by operation. Some are wrapped
// in prose or code fences so offline runs exercise the extractor.
var mockReplies = map[domain.Operation]string{
	domain.OpCarbonEmissions: "```json\n" + `{
  "oneYear":    {"total": 1015, "industrial": 505, "residential": 305, "transport": 205, "confidence": 0.82},
  "threeYears": {"total": 1040, "industrial": 515, "residential": 312, "transport": 213, "confidence": 0.71},
  "fiveYears":  {"total": 1062, "industrial": 522, "residential": 318, "transport": 222, "confidence": 0.6},
  "recommendations": ["Electrify industrial process heat", "Expand public transit capacity"]
}` + "\n```",
	domain.OpTradingRecommendation: `Here is my recommendation:
{"action": "buy", "amount": 120, "price": 0.11, "reasoning": "Supply exceeds demand and prices are below the weekly average.", "confidence": 0.72}`,
	domain.OpRiskAssessment: `{"riskLevel": "low", "riskScore": 22, "concerns": ["Short trading history"], "recommendations": ["Require a deposit"], "shouldProceed": true}`,
	domain.OpContractTerms: `{"contractId": "MOCK-CONTRACT-1", "terms": ["Deliver energy daily"], "conditions": ["Grid availability"], "penalties": ["5% per missed delivery"], "validity": "30 days", "requirements": ["Smart meter"], "disputeProcess": "Arbitration by grid operator"}`,
	domain.OpOrderBook: `{"bids": [{"price": 0.11, "amount": 50}], "asks": [{"price": 0.13, "amount": 40}], "spread": 0.02, "midPrice": 0.12}`,
	domain.OpEnergyMix: `{"solar": 18, "wind": 16, "hydro": 11, "thermal": 55, "recommendations": ["Add battery storage"]}`,
	domain.OpWeatherImpact: `{"current": {"temperature": 21, "windSpeed": 6, "cloudCover": 30, "solarOutput": 70, "windOutput": 45}, "hourly": [{"hour": 1, "solarOutput": 68, "windOutput": 47, "demand": 60}], "recommendations": ["Shift flexible load to midday"]}`,
	domain.OpLoadBalancing: `Balanced plan:
[{"region": "North", "currentLoad": 82, "recommendedLoad": 70, "action": "Shed 12 MW to South"}, {"region": "South", "currentLoad": 58, "recommendedLoad": 70, "action": "Absorb 12 MW"}]`,
	domain.OpEVChargingOptimization: `{"optimalSlots": [{"start": "01:00", "end": "05:00", "vehicles": 40}], "estimatedSavings": 18, "gridImpact": "low", "recommendations": ["Stagger charging starts"]}`,
	domain.OpChat: "This is a mock reply. Set AI_PROVIDER=gemini and GEMINI_API_KEY to talk to the real model.",
}

// MockClient implements Transport without network access.
type MockClient struct {
	logger *zap.Logger
}

// NewMockClient creates a new mock transport.
func NewMockClient(logger *zap.Logger) *MockClient {
	return &MockClient{
		logger: logger.Named("mock_ai_client"),
	}
}

// Generate returns the canned reply for the prompt's operation.
func (c *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	op, _ := OperationOf(prompt)
	c.logger.Debug("mock model call", zap.String("operation", string(op)))

	if reply, ok := mockReplies[op]; ok {
		return reply, nil
	}
	return "I can only answer grid questions in mock mode.", nil
}

// HealthCheck always returns success for mock client.
func (c *MockClient) HealthCheck(ctx context.Context) error {
	return nil
}
