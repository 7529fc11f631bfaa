// Package rules provides advisory rules for grid fallbacks.
// Rules inspect the request payload of a prediction and contribute short,
// well-known recommendations when the model cannot be used.
package rules

import (
	"slices"

	"github.com/smart-grid-ai/internal/domain"
)

// Rule represents a single advisory rule.
type Rule struct {
	// ID is the unique identifier for this rule.
	ID string

	// Name is a human-readable name for the rule.
	Name string

	// Description explains what condition this rule detects.
	Description string

	// Operations lists the operations this rule advises on.
	Operations []domain.Operation

	// Condition reports whether the payload triggers the rule.
	Condition func(p domain.Payload) bool

	// Confidence is the confidence level when this rule matches (0.0-1.0).
	Confidence float64

	// Advice is the recommendation text contributed on a match.
	Advice []string
}

// Match checks if the rule applies to op and its condition holds for p.
func (r *Rule) Match(op domain.Operation, p domain.Payload) bool {
	if !slices.Contains(r.Operations, op) {
		return false
	}
	return r.Condition != nil && r.Condition(p)
}

// DefaultRules returns the built-in set of grid advisory rules.
func DefaultRules() []*Rule {
	return []*Rule{
		highWind(),
		clearSky(),
		overcast(),
		heatPeak(),
		coldSnap(),
		gridCongestion(),
		cheapPower(),
		oversupply(),
		lowRenewables(),
		largeVolume(),
	}
}

// present reports whether every key is set in p. Conditions on absent
// fields must not fire on the zero defaults.
func present(p domain.Payload, keys ...string) bool {
	for _, k := range keys {
		if _, ok := p[k]; !ok {
			return false
		}
	}
	return true
}

// utilization returns load/capacity, or 0 without a positive capacity.
func utilization(p domain.Payload, loadKey string) float64 {
	capacity := p.Float("capacity")
	if capacity <= 0 {
		return 0
	}
	return p.Float(loadKey) / capacity
}

func highWind() *Rule {
	return &Rule{
		ID:          "high_wind",
		Name:        "High Wind",
		Description: "Wind speed at or above 10 m/s",
		Operations:  []domain.Operation{domain.OpWeatherImpact},
		Condition: func(p domain.Payload) bool {
			return present(p, "windSpeed") && p.Float("windSpeed") >= 10
		},
		Confidence: 0.85,
		Advice: []string{
			"Absorb the wind surplus by scheduling flexible load and storage charging now",
		},
	}
}

func clearSky() *Rule {
	return &Rule{
		ID:          "clear_sky",
		Name:        "Clear Sky",
		Description: "Cloud cover at or below 30%",
		Operations:  []domain.Operation{domain.OpWeatherImpact},
		Condition: func(p domain.Payload) bool {
			return present(p, "cloudCover") && p.Float("cloudCover") <= 30
		},
		Confidence: 0.8,
		Advice: []string{
			"Expect strong solar output around midday; shift flexible demand there",
		},
	}
}

func overcast() *Rule {
	return &Rule{
		ID:          "overcast",
		Name:        "Overcast",
		Description: "Cloud cover at or above 70%",
		Operations:  []domain.Operation{domain.OpWeatherImpact},
		Condition: func(p domain.Payload) bool {
			return present(p, "cloudCover") && p.Float("cloudCover") >= 70
		},
		Confidence: 0.75,
		Advice: []string{
			"Pre-charge storage before solar output drops",
		},
	}
}

func heatPeak() *Rule {
	return &Rule{
		ID:          "heat_peak",
		Name:        "Cooling Peak",
		Description: "Temperature at or above 32 C",
		Operations:  []domain.Operation{domain.OpWeatherImpact},
		Condition: func(p domain.Payload) bool {
			return present(p, "temperature") && p.Float("temperature") >= 32
		},
		Confidence: 0.9,
		Advice: []string{
			"Prepare for an afternoon cooling peak; line up demand response",
		},
	}
}

func coldSnap() *Rule {
	return &Rule{
		ID:          "cold_snap",
		Name:        "Heating Demand",
		Description: "Temperature at or below 0 C",
		Operations:  []domain.Operation{domain.OpWeatherImpact},
		Condition: func(p domain.Payload) bool {
			return present(p, "temperature") && p.Float("temperature") <= 0
		},
		Confidence: 0.85,
		Advice: []string{
			"Expect elevated heating demand in the morning and evening",
		},
	}
}

func gridCongestion() *Rule {
	return &Rule{
		ID:          "grid_congestion",
		Name:        "Grid Congestion",
		Description: "Load at or above 85% of capacity",
		Operations:  []domain.Operation{domain.OpEVChargingOptimization},
		Condition: func(p domain.Payload) bool {
			return utilization(p, "currentLoad") >= 0.85
		},
		Confidence: 0.9,
		Advice: []string{
			"Defer non-urgent EV charging to off-peak hours",
			"Cap simultaneous charging sessions until load drops below 85%",
		},
	}
}

func cheapPower() *Rule {
	return &Rule{
		ID:          "cheap_power",
		Name:        "Cheap Power",
		Description: "Electricity price at or below 0.10 $/kWh",
		Operations:  []domain.Operation{domain.OpEVChargingOptimization},
		Condition: func(p domain.Payload) bool {
			return present(p, "electricityPrice") && p.Float("electricityPrice") <= 0.10
		},
		Confidence: 0.7,
		Advice: []string{
			"Electricity is cheap right now; start charging vehicles that are plugged in",
		},
	}
}

func oversupply() *Rule {
	return &Rule{
		ID:          "oversupply",
		Name:        "Oversupply",
		Description: "Supply exceeds demand by more than 10%",
		Operations:  []domain.Operation{domain.OpTradingRecommendation},
		Condition: func(p domain.Payload) bool {
			return present(p, "supply", "demand") && p.Float("supply") > p.Float("demand")*1.1
		},
		Confidence: 0.7,
		Advice: []string{
			"Supply exceeds demand; prices are likely to fall",
		},
	}
}

func lowRenewables() *Rule {
	return &Rule{
		ID:          "low_renewables",
		Name:        "Low Renewable Share",
		Description: "Renewable share below 30%",
		Operations:  []domain.Operation{domain.OpEnergyMix},
		Condition: func(p domain.Payload) bool {
			return present(p, "renewablePercentage") && p.Float("renewablePercentage") < 30
		},
		Confidence: 0.65,
		Advice: []string{
			"Contract additional wind and solar capacity to reduce thermal dependence",
		},
	}
}

func largeVolume() *Rule {
	return &Rule{
		ID:          "large_volume",
		Name:        "Large Trade Volume",
		Description: "Trade of 10 MWh or more",
		Operations:  []domain.Operation{domain.OpRiskAssessment},
		Condition: func(p domain.Payload) bool {
			return p.Float("energyAmount") >= 10000
		},
		Confidence: 0.7,
		Advice: []string{
			"Split large volumes across several contracts",
		},
	}
}
