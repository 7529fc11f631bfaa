// Package domain contains the core domain models and types.
// These models represent the business logic contracts and are independent
// of any infrastructure concerns.
package domain

import (
	"math"
	"strconv"
	"time"
)

// Operation names one prediction capability exposed by the predictor.
type Operation string

const (
	OpCarbonEmissions        Operation = "carbonEmissions"
	OpTradingRecommendation  Operation = "tradingRecommendation"
	OpRiskAssessment         Operation = "riskAssessment"
	OpContractTerms          Operation = "contractTerms"
	OpOrderBook              Operation = "orderBook"
	OpEnergyMix              Operation = "energyMix"
	OpWeatherImpact          Operation = "weatherImpact"
	OpLoadBalancing          Operation = "loadBalancing"
	OpEVChargingOptimization Operation = "evChargingOptimization"
	OpChat                   Operation = "chat"
)

// Stage is the position of a single call inside the prediction pipeline.
type Stage string

const (
	StageBuilding   Stage = "building"
	StageInvoking   Stage = "invoking"
	StageExtracting Stage = "extracting"
	StageValidating Stage = "validating"
	StageSucceeded  Stage = "succeeded"
)

// Payload is the input of one prediction request, keyed by JSON field name.
// Accessors return safe defaults for absent or mistyped fields so prompts
// and fallbacks keep a stable shape.
type Payload map[string]any

// Float returns the numeric field key, or 0.
func (p Payload) Float(key string) float64 {
	return p.FloatOr(key, 0)
}

// FloatOr returns the numeric field key, or def when absent, mistyped or
// not finite.
func (p Payload) FloatOr(key string, def float64) float64 {
	var f float64
	switch v := p[key].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// Int returns the numeric field key truncated to an int, or 0.
func (p Payload) Int(key string) int {
	return int(p.Float(key))
}

// String returns the string field key, or "Unknown".
func (p Payload) String(key string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return "Unknown"
}

// Result is a validated or synthesized prediction object.
type Result map[string]any

// ChatTurn is one prior message in a chat conversation.
type ChatTurn struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// omitZero drops zero-valued fields so they read as absent, the same as
// a JSON body that leaves them out.
func omitZero(p Payload) Payload {
	for k, v := range p {
		switch v := v.(type) {
		case float64:
			if v == 0 {
				delete(p, k)
			}
		case int:
			if v == 0 {
				delete(p, k)
			}
		case string:
			if v == "" {
				delete(p, k)
			}
		}
	}
	return p
}

// EmissionsInput carries current carbon emissions in tonnes CO2e.
type EmissionsInput struct {
	Total       float64 `json:"total"`
	Industrial  float64 `json:"industrial"`
	Residential float64 `json:"residential"`
	Transport   float64 `json:"transport"`
}

// Payload converts the input to a request payload.
func (in EmissionsInput) Payload() Payload {
	return omitZero(Payload{
		"total":       in.Total,
		"industrial":  in.Industrial,
		"residential": in.Residential,
		"transport":   in.Transport,
	})
}

// TradingInput carries the market state for a trading recommendation.
type TradingInput struct {
	CurrentPrice float64 `json:"currentPrice"`
	Demand       float64 `json:"demand"`
	Supply       float64 `json:"supply"`
	Balance      float64 `json:"balance"`
	Region       string  `json:"region"`
}

// Payload converts the input to a request payload.
func (in TradingInput) Payload() Payload {
	return omitZero(Payload{
		"currentPrice": in.CurrentPrice,
		"demand":       in.Demand,
		"supply":       in.Supply,
		"balance":      in.Balance,
		"region":       in.Region,
	})
}

// RiskInput describes a proposed energy trade.
type RiskInput struct {
	Counterparty string  `json:"counterparty"`
	EnergyAmount float64 `json:"energyAmount"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"durationDays"`
	EnergyType   string  `json:"energyType"`
}

// Payload converts the input to a request payload.
func (in RiskInput) Payload() Payload {
	return omitZero(Payload{
		"counterparty": in.Counterparty,
		"energyAmount": in.EnergyAmount,
		"price":        in.Price,
		"durationDays": in.DurationDays,
		"energyType":   in.EnergyType,
	})
}

// TermsInput describes the parties and volume of an energy contract.
type TermsInput struct {
	Seller       string  `json:"seller"`
	Buyer        string  `json:"buyer"`
	EnergyAmount float64 `json:"energyAmount"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"durationDays"`
	EnergyType   string  `json:"energyType"`
}

// Payload converts the input to a request payload.
func (in TermsInput) Payload() Payload {
	return omitZero(Payload{
		"seller":       in.Seller,
		"buyer":        in.Buyer,
		"energyAmount": in.EnergyAmount,
		"price":        in.Price,
		"durationDays": in.DurationDays,
		"energyType":   in.EnergyType,
	})
}

// OrderBookInput selects the market and depth of an order book snapshot.
type OrderBookInput struct {
	Market    string  `json:"market"`
	BasePrice float64 `json:"basePrice"`
	Depth     int     `json:"depth"`
}

// Payload converts the input to a request payload.
func (in OrderBookInput) Payload() Payload {
	return omitZero(Payload{
		"market":    in.Market,
		"basePrice": in.BasePrice,
		"depth":     in.Depth,
	})
}

// EnergyMixInput carries the renewable share of generation, in percent.
type EnergyMixInput struct {
	RenewablePercentage float64 `json:"renewablePercentage"`
	TotalDemand         float64 `json:"totalDemand"`
	Region              string  `json:"region"`
}

// Payload converts the input to a request payload.
func (in EnergyMixInput) Payload() Payload {
	return omitZero(Payload{
		"renewablePercentage": in.RenewablePercentage,
		"totalDemand":         in.TotalDemand,
		"region":              in.Region,
	})
}

// WeatherInput carries current weather conditions at a location.
type WeatherInput struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	WindSpeed   float64 `json:"windSpeed"`
	CloudCover  float64 `json:"cloudCover"`
	Humidity    float64 `json:"humidity"`
}

// Payload converts the input to a request payload.
func (in WeatherInput) Payload() Payload {
	return omitZero(Payload{
		"location":    in.Location,
		"temperature": in.Temperature,
		"windSpeed":   in.WindSpeed,
		"cloudCover":  in.CloudCover,
		"humidity":    in.Humidity,
	})
}

// LoadInput carries the aggregate grid load.
type LoadInput struct {
	TotalLoad   float64 `json:"totalLoad"`
	Capacity    float64 `json:"capacity"`
	RegionCount int     `json:"regionCount"`
}

// Payload converts the input to a request payload.
func (in LoadInput) Payload() Payload {
	return omitZero(Payload{
		"totalLoad":   in.TotalLoad,
		"capacity":    in.Capacity,
		"regionCount": in.RegionCount,
	})
}

// ChargingInput carries the EV fleet and grid state for charging optimization.
type ChargingInput struct {
	Vehicles         int     `json:"vehicles"`
	CurrentLoad      float64 `json:"currentLoad"`
	Capacity         float64 `json:"capacity"`
	ElectricityPrice float64 `json:"electricityPrice"`
}

// Payload converts the input to a request payload.
func (in ChargingInput) Payload() Payload {
	return omitZero(Payload{
		"vehicles":         in.Vehicles,
		"currentLoad":      in.CurrentLoad,
		"capacity":         in.Capacity,
		"electricityPrice": in.ElectricityPrice,
	})
}

// PredictionResponse wraps a prediction result for HTTP callers.
type PredictionResponse struct {
	// Operation is the operation that produced the result.
	Operation Operation `json:"operation"`

	// Result is the validated or synthesized result.
	Result any `json:"result"`

	// ProcessedAt is the timestamp when the prediction completed.
	ProcessedAt time.Time `json:"processed_at"`
}

// ChatRequest represents an incoming chat message with prior turns.
type ChatRequest struct {
	Message string     `json:"message" binding:"required"`
	History []ChatTurn `json:"history"`
}

// ChatResponse wraps a chat reply.
type ChatResponse struct {
	// Success is false when the reply is the apology substitute.
	Success bool `json:"success"`

	// Reply is the assistant's message.
	Reply string `json:"reply"`

	// ProcessedAt is the timestamp when the reply was produced.
	ProcessedAt time.Time `json:"processed_at"`
}

// RuleMatch represents a match from the advisory rule engine.
type RuleMatch struct {
	// RuleID is the unique identifier of the matched rule.
	RuleID string

	// Confidence indicates how confident the rule match is (0.0 - 1.0).
	Confidence float64

	// Advice is the recommendation text the rule contributes.
	Advice []string
}
