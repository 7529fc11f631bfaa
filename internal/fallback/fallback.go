// Package fallback computes deterministic substitute results for predictions
// whose model path failed. Every function here is pure and total: it returns
// a complete result for any payload, including an empty one.
package fallback

import (
	"encoding/json"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smart-grid-ai/internal/domain"
	"github.com/smart-grid-ai/internal/rules"
)

const (
	// DefaultPrice is the market price assumed when the payload has none ($/kWh).
	DefaultPrice = 0.12

	// DefaultDepth is the number of order book levels per side.
	DefaultDepth = 5

	maxDepth   = 20
	tickSize   = 0.01
	hourlySpan = 6
)

// horizon is one emissions projection step.
type horizon struct {
	key         string
	total       float64
	industrial  float64
	residential float64
	transport   float64
	confidence  float64
}

// emissionsHorizons holds the compounding growth multipliers per horizon.
var emissionsHorizons = []horizon{
	{key: "oneYear", total: 1.02, industrial: 1.01, residential: 1.02, transport: 1.03, confidence: 0.85},
	{key: "threeYears", total: 1.05, industrial: 1.04, residential: 1.05, transport: 1.07, confidence: 0.75},
	{key: "fiveYears", total: 1.08, industrial: 1.07, residential: 1.09, transport: 1.11, confidence: 0.65},
}

// Renewable sub-shares. Hydro takes the remainder so the split is exact.
var (
	solarShare = decimal.RequireFromString("0.40")
	windShare  = decimal.RequireFromString("0.35")
	hundred    = decimal.NewFromInt(100)
)

// contractNamespace seeds deterministic contract identifiers.
var contractNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://smart-grid-ai/contracts"))

// Synthesizer produces fallback results. Recommendation lists are extended
// with advice from the rule engine when one is configured.
type Synthesizer struct {
	rules *rules.Engine
}

// New creates a synthesizer. engine may be nil.
func New(engine *rules.Engine) *Synthesizer {
	return &Synthesizer{rules: engine}
}

// Emissions projects current emissions over one, three and five years.
func (s *Synthesizer) Emissions(p domain.Payload) domain.Result {
	current := map[string]decimal.Decimal{
		"total":       decimal.NewFromFloat(p.Float("total")),
		"industrial":  decimal.NewFromFloat(p.Float("industrial")),
		"residential": decimal.NewFromFloat(p.Float("residential")),
		"transport":   decimal.NewFromFloat(p.Float("transport")),
	}

	result := domain.Result{}
	for _, h := range emissionsHorizons {
		result[h.key] = map[string]any{
			"total":       grow(current["total"], h.total),
			"industrial":  grow(current["industrial"], h.industrial),
			"residential": grow(current["residential"], h.residential),
			"transport":   grow(current["transport"], h.transport),
			"confidence":  h.confidence,
		}
	}
	result["recommendations"] = []string{
		"Accelerate the transition to renewable generation",
		"Prioritize efficiency upgrades in the industrial sector",
		"Expand EV adoption to reduce transport emissions",
	}
	return result
}

// Trading recommends holding position at the current price.
func (s *Synthesizer) Trading(p domain.Payload) domain.Result {
	return domain.Result{
		"action":     "wait",
		"amount":     0.0,
		"price":      p.FloatOr("currentPrice", DefaultPrice),
		"reasoning":  "Market analysis is unavailable; holding position until conditions can be assessed.",
		"confidence": 0.5,
		"recommendations": s.advise(domain.OpTradingRecommendation, p,
			"Re-run the analysis when live market data is available"),
	}
}

// Risk returns a cautious medium-risk assessment.
func (s *Synthesizer) Risk(p domain.Payload) domain.Result {
	return domain.Result{
		"riskLevel": "medium",
		"riskScore": 50.0,
		"concerns": []string{
			"Counterparty history could not be verified",
			"Market volatility was not assessed",
		},
		"recommendations": s.advise(domain.OpRiskAssessment, p,
			"Request collateral or a deposit before committing",
			"Start with a smaller trial volume",
		),
		"shouldProceed": false,
	}
}

// Terms drafts standard contract terms identified by a hash of the payload.
func (s *Synthesizer) Terms(p domain.Payload) domain.Result {
	days := p.Int("durationDays")
	if days <= 0 {
		days = 30
	}

	return domain.Result{
		"contractId": contractID(p),
		"terms": []string{
			"Seller delivers " + formatAmount(p.Float("energyAmount")) + " kWh of " + p.String("energyType") + " energy",
			"Buyer pays " + formatAmount(p.Float("price")) + " $/kWh on delivery",
			"Delivery is metered by certified smart meters",
		},
		"conditions": []string{
			"Grid operator confirms transmission capacity",
			"Both parties hold valid trading accounts",
		},
		"penalties": []string{
			"5% of contract value per missed delivery",
			"Late payment accrues 1% per week",
		},
		"validity": formatAmount(float64(days)) + " days",
		"requirements": []string{
			"Certified smart meter at both ends",
			"Energy origin certificate for renewable sources",
		},
		"disputeProcess": "Disputes go to mediation by the grid operator, then binding arbitration.",
	}
}

// OrderBook builds a symmetric ladder around the base price.
func (s *Synthesizer) OrderBook(p domain.Payload) domain.Result {
	base := decimal.NewFromFloat(p.FloatOr("basePrice", DefaultPrice))
	if !base.IsPositive() {
		base = decimal.NewFromFloat(DefaultPrice)
	}
	depth := p.Int("depth")
	if depth <= 0 || depth > maxDepth {
		depth = DefaultDepth
	}

	tick := decimal.NewFromFloat(tickSize)
	bids := make([]map[string]any, 0, depth)
	asks := make([]map[string]any, 0, depth)
	bestBid := decimal.Zero
	for i := 1; i <= depth; i++ {
		offset := tick.Mul(decimal.NewFromInt(int64(i)))
		amount := float64(100 + 50*(i-1))

		if bid := base.Sub(offset); bid.IsPositive() {
			if i == 1 {
				bestBid = bid
			}
			bids = append(bids, map[string]any{"price": bid.Round(4).InexactFloat64(), "amount": amount})
		}
		asks = append(asks, map[string]any{"price": base.Add(offset).Round(4).InexactFloat64(), "amount": amount})
	}
	spread := base.Add(tick).Sub(bestBid)

	return domain.Result{
		"bids":     bids,
		"asks":     asks,
		"spread":   spread.Round(4).InexactFloat64(),
		"midPrice": base.Round(4).InexactFloat64(),
	}
}

// EnergyMix splits the renewable share 40/35/25 into solar, wind and hydro
// and assigns the rest to thermal. The four shares always sum to 100.
// Solar and wind are truncated to two decimals so hydro is never negative.
func (s *Synthesizer) EnergyMix(p domain.Payload) domain.Result {
	r := decimal.NewFromFloat(clamp(p.Float("renewablePercentage"), 0, 100))

	solar := r.Mul(solarShare).Truncate(2).InexactFloat64()
	wind := r.Mul(windShare).Truncate(2).InexactFloat64()
	hydro := r.Sub(decimal.NewFromFloat(solar)).Sub(decimal.NewFromFloat(wind)).InexactFloat64()
	thermal := hundred.Sub(r).InexactFloat64()

	// Callers add the shares as float64; thermal absorbs the rounding so
	// solar + wind + hydro + thermal is exactly 100.
	if renewable := solar + wind + hydro; renewable+thermal != 100 {
		thermal = 100 - renewable
	}

	return domain.Result{
		"solar":   solar,
		"wind":    wind,
		"hydro":   hydro,
		"thermal": thermal,
		"recommendations": s.advise(domain.OpEnergyMix, p,
			"Increase storage capacity to firm variable renewables"),
	}
}

// Weather echoes current conditions and holds them flat for six hours.
func (s *Synthesizer) Weather(p domain.Payload) domain.Result {
	cloud := clamp(p.Float("cloudCover"), 0, 100)
	solarOutput := round1((100 - cloud) * 0.8)
	windOutput := round1(clamp(p.Float("windSpeed")*8, 0, 100))

	hourly := make([]map[string]any, 0, hourlySpan)
	for h := 1; h <= hourlySpan; h++ {
		hourly = append(hourly, map[string]any{
			"hour":        h,
			"solarOutput": solarOutput,
			"windOutput":  windOutput,
			"demand":      60.0,
		})
	}

	return domain.Result{
		"current": map[string]any{
			"temperature": p.Float("temperature"),
			"windSpeed":   p.Float("windSpeed"),
			"cloudCover":  p.Float("cloudCover"),
			"solarOutput": solarOutput,
			"windOutput":  windOutput,
		},
		"hourly": hourly,
		"recommendations": s.advise(domain.OpWeatherImpact, p,
			"Monitor forecasts and keep reserve capacity available"),
	}
}

// LoadBalancing returns a fixed single-region plan.
func (s *Synthesizer) LoadBalancing(p domain.Payload) []domain.Result {
	return []domain.Result{{
		"region":          "Region 1",
		"currentLoad":     75.0,
		"recommendedLoad": 70.0,
		"action":          "Maintain current distribution",
	}}
}

// Charging schedules the fleet into two fixed off-peak windows.
func (s *Synthesizer) Charging(p domain.Payload) domain.Result {
	vehicles := p.Int("vehicles")
	if vehicles < 0 {
		vehicles = 0
	}
	first := (vehicles + 1) / 2

	return domain.Result{
		"optimalSlots": []map[string]any{
			{"start": "23:00", "end": "02:00", "vehicles": first},
			{"start": "02:00", "end": "06:00", "vehicles": vehicles - first},
		},
		"estimatedSavings": 15.0,
		"gridImpact":       "low",
		"recommendations": s.advise(domain.OpEVChargingOptimization, p,
			"Shift charging to overnight off-peak hours"),
	}
}

// advise returns defaults followed by any rule advice for op.
func (s *Synthesizer) advise(op domain.Operation, p domain.Payload, defaults ...string) []string {
	advice := append([]string{}, defaults...)
	if s.rules != nil {
		advice = append(advice, s.rules.Advice(op, p)...)
	}
	return advice
}

func grow(v decimal.Decimal, rate float64) float64 {
	return v.Mul(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()
}

// contractID derives a stable UUIDv5 from the canonical JSON of p.
// encoding/json sorts map keys, so equal payloads hash equally.
func contractID(p domain.Payload) string {
	raw, err := json.Marshal(p)
	if err != nil {
		raw = []byte("{}")
	}
	return uuid.NewSHA1(contractNamespace, raw).String()
}

func formatAmount(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
