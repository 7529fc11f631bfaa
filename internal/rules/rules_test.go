// Package rules provides unit tests for the rule engine.
package rules

import (
	"testing"

	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
)

func TestRule_Match(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name      string
		op        domain.Operation
		payload   domain.Payload
		wantMatch bool
		wantRule  string
	}{
		{
			name:      "high wind",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{"windSpeed": 14.0},
			wantMatch: true,
			wantRule:  "high_wind",
		},
		{
			name:      "clear sky",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{"cloudCover": 10.0},
			wantMatch: true,
			wantRule:  "clear_sky",
		},
		{
			name:      "overcast",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{"cloudCover": 90.0},
			wantMatch: true,
			wantRule:  "overcast",
		},
		{
			name:      "heat peak",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{"temperature": 35.0, "cloudCover": 50.0},
			wantMatch: true,
			wantRule:  "heat_peak",
		},
		{
			name:      "cold snap with integer temperature",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{"temperature": -5},
			wantMatch: true,
			wantRule:  "cold_snap",
		},
		{
			name:      "congested grid delays charging",
			op:        domain.OpEVChargingOptimization,
			payload:   domain.Payload{"currentLoad": 90.0, "capacity": 100.0},
			wantMatch: true,
			wantRule:  "grid_congestion",
		},
		{
			name:      "cheap power",
			op:        domain.OpEVChargingOptimization,
			payload:   domain.Payload{"electricityPrice": 0.08},
			wantMatch: true,
			wantRule:  "cheap_power",
		},
		{
			name:      "oversupply",
			op:        domain.OpTradingRecommendation,
			payload:   domain.Payload{"supply": 1200.0, "demand": 1000.0},
			wantMatch: true,
			wantRule:  "oversupply",
		},
		{
			name:      "low renewables",
			op:        domain.OpEnergyMix,
			payload:   domain.Payload{"renewablePercentage": 12.0},
			wantMatch: true,
			wantRule:  "low_renewables",
		},
		{
			name:      "large volume",
			op:        domain.OpRiskAssessment,
			payload:   domain.Payload{"energyAmount": 25000.0},
			wantMatch: true,
			wantRule:  "large_volume",
		},
		// absent fields must not trigger on zero defaults
		{
			name:      "no match - empty weather payload",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{},
			wantMatch: false,
		},
		{
			name:      "no match - zero capacity",
			op:        domain.OpEVChargingOptimization,
			payload:   domain.Payload{"currentLoad": 90.0, "capacity": 0.0},
			wantMatch: false,
		},
		{
			name:      "no match - mild weather",
			op:        domain.OpWeatherImpact,
			payload:   domain.Payload{"temperature": 18.0, "windSpeed": 4.0, "cloudCover": 50.0},
			wantMatch: false,
		},
		{
			name:      "no match - balanced market",
			op:        domain.OpTradingRecommendation,
			payload:   domain.Payload{"supply": 1000.0, "demand": 1000.0},
			wantMatch: false,
		},
		{
			name:      "no match - rule scoped to another operation",
			op:        domain.OpCarbonEmissions,
			payload:   domain.Payload{"windSpeed": 20.0, "cloudCover": 0.0},
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var matched bool
			var matchedRuleID string

			for _, rule := range rules {
				if rule.Match(tt.op, tt.payload) {
					matched = true
					matchedRuleID = rule.ID
					break
				}
			}

			if matched != tt.wantMatch {
				t.Errorf("Match() = %v, want %v", matched, tt.wantMatch)
			}

			if tt.wantMatch && matchedRuleID != tt.wantRule {
				t.Errorf("Matched rule ID = %v, want %v", matchedRuleID, tt.wantRule)
			}
		})
	}
}

func TestEngine_GetBestMatch(t *testing.T) {
	engine := NewEngine(DefaultRules(), 0.8, zap.NewNop())

	if best := engine.GetBestMatch(nil); best != nil {
		t.Error("expected nil for empty matches")
	}

	// heat_peak (0.9) beats high_wind (0.85) and clear_sky (0.8).
	matches := engine.Analyze(domain.OpWeatherImpact, domain.Payload{
		"temperature": 35.0,
		"windSpeed":   12.0,
		"cloudCover":  10.0,
	})
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	best := engine.GetBestMatch(matches)
	if best == nil || best.RuleID != "heat_peak" {
		t.Errorf("GetBestMatch() = %+v, want heat_peak", best)
	}

	strict := NewEngine(DefaultRules(), 0.95, zap.NewNop())
	if best := strict.GetBestMatch(matches); best != nil {
		t.Errorf("expected nil above threshold, got %s", best.RuleID)
	}
}

func TestEngine_Advice(t *testing.T) {
	engine := NewEngine(DefaultRules(), 0.7, zap.NewNop())

	advice := engine.Advice(domain.OpEVChargingOptimization, domain.Payload{
		"currentLoad":      95.0,
		"capacity":         100.0,
		"electricityPrice": 0.05,
	})

	want := []string{
		"Defer non-urgent EV charging to off-peak hours",
		"Cap simultaneous charging sessions until load drops below 85%",
		"Electricity is cheap right now; start charging vehicles that are plugged in",
	}
	if len(advice) != len(want) {
		t.Fatalf("Advice() = %v, want %v", advice, want)
	}
	for i := range want {
		if advice[i] != want[i] {
			t.Errorf("Advice()[%d] = %q, want %q", i, advice[i], want[i])
		}
	}

	// low_renewables (0.65) is below the 0.7 threshold.
	if got := engine.Advice(domain.OpEnergyMix, domain.Payload{"renewablePercentage": 5.0}); len(got) != 0 {
		t.Errorf("expected no advice below threshold, got %v", got)
	}
}

func TestEngine_AdviceLeadsWithBestMatch(t *testing.T) {
	engine := NewEngine(DefaultRules(), 0.7, zap.NewNop())

	advice := engine.Advice(domain.OpWeatherImpact, domain.WeatherInput{
		Temperature: 35,
		WindSpeed:   12,
		CloudCover:  10,
	}.Payload())

	if len(advice) != 3 {
		t.Fatalf("Advice() = %v, want 3 lines", advice)
	}
	if advice[0] != "Prepare for an afternoon cooling peak; line up demand response" {
		t.Errorf("Advice()[0] = %q, want the heat_peak advice first", advice[0])
	}
	if advice[1] != "Absorb the wind surplus by scheduling flexible load and storage charging now" {
		t.Errorf("Advice()[1] = %q, want high_wind next in rule order", advice[1])
	}
}

func TestEngine_ZeroInputsDoNotFire(t *testing.T) {
	engine := NewEngine(DefaultRules(), 0.6, zap.NewNop())

	tests := []struct {
		name    string
		op      domain.Operation
		payload domain.Payload
	}{
		{name: "empty weather", op: domain.OpWeatherImpact, payload: domain.WeatherInput{}.Payload()},
		{name: "weather with location only", op: domain.OpWeatherImpact, payload: domain.WeatherInput{Location: "Oslo"}.Payload()},
		{name: "empty charging", op: domain.OpEVChargingOptimization, payload: domain.ChargingInput{}.Payload()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.Advice(tt.op, tt.payload); len(got) != 0 {
				t.Errorf("Advice() = %v, want none for default zeros", got)
			}
		})
	}

	// An explicit zero in a request body is still a reading.
	got := engine.Advice(domain.OpWeatherImpact, domain.Payload{"temperature": 0.0})
	if len(got) == 0 {
		t.Error("expected cold_snap advice for an explicit 0 C reading")
	}
}
