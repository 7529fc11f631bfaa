package ai

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/smart-grid-ai/internal/domain"
)

// JSONDirective closes every structured prompt.
const JSONDirective = "Respond with ONLY valid JSON matching the schema above. No markdown, no code fences, no explanations."

// systemPromptText defines the model's role for every operation.
const systemPromptText = `You are an energy-systems analyst for a smart electricity grid.
You forecast emissions, advise on peer-to-peer energy trading, balance regional load,
and explain how weather affects renewable generation.

Guidelines:
- Base every number on the input values provided; do not invent extra inputs
- Keep recommendations short, specific and actionable
- Confidence values are decimals between 0 and 1`

// taskLinePrefix marks the operation a prompt was built for.
const taskLinePrefix = "Task: "

// operationTemplates holds one user prompt template per operation.
// Templates receive the payload as dot; num, int and str render fields with
// safe defaults so the prompt shape is stable when fields are missing.
var operationTemplates = map[domain.Operation]string{
	domain.OpCarbonEmissions: `Predict future carbon emissions from the current annual figures (tonnes CO2e):
- Total: {{num . "total"}}
- Industrial: {{num . "industrial"}}
- Residential: {{num . "residential"}}
- Transport: {{num . "transport"}}

Return JSON exactly matching this schema:
{
  "oneYear":    {"total": number, "industrial": number, "residential": number, "transport": number, "confidence": number},
  "threeYears": {"total": number, "industrial": number, "residential": number, "transport": number, "confidence": number},
  "fiveYears":  {"total": number, "industrial": number, "residential": number, "transport": number, "confidence": number},
  "recommendations": ["string"]
}`,

	domain.OpTradingRecommendation: `Recommend an energy trading action for the current market:
- Region: {{str . "region"}}
- Current price ($/kWh): {{num . "currentPrice"}}
- Demand (kWh): {{num . "demand"}}
- Supply (kWh): {{num . "supply"}}
- Account balance ($): {{num . "balance"}}

Return JSON exactly matching this schema:
{
  "action": "buy|sell|wait",
  "amount": number (kWh),
  "price": number ($/kWh),
  "reasoning": "string",
  "confidence": number
}`,

	domain.OpRiskAssessment: `Assess the risk of this energy trade:
- Counterparty: {{str . "counterparty"}}
- Energy amount (kWh): {{num . "energyAmount"}}
- Price ($/kWh): {{num . "price"}}
- Duration (days): {{int . "durationDays"}}
- Energy type: {{str . "energyType"}}

Return JSON exactly matching this schema:
{
  "riskLevel": "low|medium|high",
  "riskScore": number (0-100),
  "concerns": ["string"],
  "recommendations": ["string"],
  "shouldProceed": boolean
}`,

	domain.OpContractTerms: `Draft smart-contract terms for this energy agreement:
- Seller: {{str . "seller"}}
- Buyer: {{str . "buyer"}}
- Energy amount (kWh): {{num . "energyAmount"}}
- Price ($/kWh): {{num . "price"}}
- Duration (days): {{int . "durationDays"}}
- Energy type: {{str . "energyType"}}

Return JSON exactly matching this schema:
{
  "contractId": "string",
  "terms": ["string"],
  "conditions": ["string"],
  "penalties": ["string"],
  "validity": "string",
  "requirements": ["string"],
  "disputeProcess": "string"
}`,

	domain.OpOrderBook: `Produce an order book snapshot for an energy market:
- Market: {{str . "market"}}
- Reference price ($/kWh): {{num . "basePrice"}}
- Levels per side: {{int . "depth"}}

Return JSON exactly matching this schema:
{
  "bids": [{"price": number, "amount": number}],
  "asks": [{"price": number, "amount": number}],
  "spread": number,
  "midPrice": number
}`,

	domain.OpEnergyMix: `Analyze the generation mix for this grid:
- Region: {{str . "region"}}
- Renewable share (%): {{num . "renewablePercentage"}}
- Total demand (MWh): {{num . "totalDemand"}}

Return JSON exactly matching this schema. The four shares are percentages summing to 100:
{
  "solar": number,
  "wind": number,
  "hydro": number,
  "thermal": number,
  "recommendations": ["string"]
}`,

	domain.OpWeatherImpact: `Analyze how the weather affects renewable generation:
- Location: {{str . "location"}}
- Temperature (C): {{num . "temperature"}}
- Wind speed (m/s): {{num . "windSpeed"}}
- Cloud cover (%): {{num . "cloudCover"}}
- Humidity (%): {{num . "humidity"}}

Return JSON exactly matching this schema:
{
  "current": {"temperature": number, "windSpeed": number, "cloudCover": number, "solarOutput": number, "windOutput": number},
  "hourly": [{"hour": number, "solarOutput": number, "windOutput": number, "demand": number}],
  "recommendations": ["string"]
}`,

	domain.OpLoadBalancing: `Balance load across grid regions:
- Total load (MW): {{num . "totalLoad"}}
- Capacity (MW): {{num . "capacity"}}
- Regions: {{int . "regionCount"}}

Return a JSON array exactly matching this schema, one element per region:
[
  {"region": "string", "currentLoad": number, "recommendedLoad": number, "action": "string"}
]`,

	domain.OpEVChargingOptimization: `Optimize EV charging for this fleet:
- Vehicles: {{int . "vehicles"}}
- Current grid load (MW): {{num . "currentLoad"}}
- Grid capacity (MW): {{num . "capacity"}}
- Electricity price ($/kWh): {{num . "electricityPrice"}}

Return JSON exactly matching this schema:
{
  "optimalSlots": [{"start": "HH:MM", "end": "HH:MM", "vehicles": number}],
  "estimatedSavings": number (percent),
  "gridImpact": "low|medium|high",
  "recommendations": ["string"]
}`,

	domain.OpChat: `You are the assistant of a smart-grid dashboard. Answer the user's latest
message helpfully and concisely in plain text.
{{range turns .}}
{{speaker .Role}}: {{.Content}}{{end}}
User: {{str . "message"}}
Assistant:`,
}

// PromptBuilder renders deterministic prompts from operation payloads.
type PromptBuilder struct {
	systemPrompt string
	templates    map[domain.Operation]*template.Template
}

// NewPromptBuilder parses every operation template.
func NewPromptBuilder() (*PromptBuilder, error) {
	funcs := template.FuncMap{
		"num":     func(p domain.Payload, key string) string { return formatNumber(p.Float(key)) },
		"int":     func(p domain.Payload, key string) int { return p.Int(key) },
		"str":     func(p domain.Payload, key string) string { return p.String(key) },
		"turns":   chatTurns,
		"speaker": speaker,
	}

	templates := make(map[domain.Operation]*template.Template, len(operationTemplates))
	for op, text := range operationTemplates {
		tmpl, err := template.New(string(op)).Funcs(funcs).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt: %w", op, err)
		}
		templates[op] = tmpl
	}

	return &PromptBuilder{
		systemPrompt: systemPromptText,
		templates:    templates,
	}, nil
}

// Build renders the prompt for op. Structured operations end with JSONDirective;
// chat asks for plain text.
func (b *PromptBuilder) Build(op domain.Operation, payload domain.Payload) (string, error) {
	tmpl, ok := b.templates[op]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownOperation, op)
	}
	if payload == nil {
		payload = domain.Payload{}
	}

	var buf bytes.Buffer
	buf.WriteString(b.systemPrompt)
	buf.WriteString("\n\n---\n\n")
	buf.WriteString(taskLinePrefix + string(op) + "\n\n")
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", op, err)
	}
	if op != domain.OpChat {
		buf.WriteString("\n\n" + JSONDirective)
	}

	return buf.String(), nil
}

// OperationOf returns the operation marker of a prompt built by Build.
func OperationOf(prompt string) (domain.Operation, bool) {
	idx := strings.Index(prompt, taskLinePrefix)
	if idx == -1 {
		return "", false
	}
	rest := prompt[idx+len(taskLinePrefix):]
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		rest = rest[:nl]
	}
	return domain.Operation(strings.TrimSpace(rest)), true
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func chatTurns(p domain.Payload) []domain.ChatTurn {
	turns, _ := p["history"].([]domain.ChatTurn)
	return turns
}

func speaker(role string) string {
	if role == "assistant" || role == "model" {
		return "Assistant"
	}
	return "User"
}
