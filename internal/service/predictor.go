// Package service contains the business logic layer.
package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/smart-grid-ai/internal/ai"
	"github.com/smart-grid-ai/internal/domain"
	"github.com/smart-grid-ai/internal/fallback"
	"github.com/smart-grid-ai/internal/metrics"
	"github.com/smart-grid-ai/pkg/sanitizer"
	"go.uber.org/zap"
)

// ChatApology is shown to users in place of a failed chat reply.
const ChatApology = "Sorry, I'm having trouble answering right now. Please try again in a moment."

// ModelInvoker sends a prompt to the model and returns its raw reply.
type ModelInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Descriptor declares how one structured operation is validated and what it
// returns when the model path fails.
type Descriptor struct {
	Operation domain.Operation
	Shape     ai.Shape
	Required  []string
	Fallback  func(p domain.Payload) any
}

// Descriptors returns the registry of structured operations.
func Descriptors(fb *fallback.Synthesizer) []Descriptor {
	object := func(f func(domain.Payload) domain.Result) func(domain.Payload) any {
		return func(p domain.Payload) any { return f(p) }
	}

	return []Descriptor{
		{
			Operation: domain.OpCarbonEmissions,
			Required:  []string{"oneYear", "threeYears", "fiveYears"},
			Fallback:  object(fb.Emissions),
		},
		{
			Operation: domain.OpTradingRecommendation,
			Required:  []string{"action", "amount", "price", "reasoning", "confidence"},
			Fallback:  object(fb.Trading),
		},
		{
			Operation: domain.OpRiskAssessment,
			Required:  []string{"riskLevel", "riskScore", "concerns", "recommendations", "shouldProceed"},
			Fallback:  object(fb.Risk),
		},
		{
			Operation: domain.OpContractTerms,
			Required:  []string{"contractId", "terms", "conditions", "penalties", "validity", "requirements", "disputeProcess"},
			Fallback:  object(fb.Terms),
		},
		{
			Operation: domain.OpOrderBook,
			Required:  []string{"bids", "asks"},
			Fallback:  object(fb.OrderBook),
		},
		{
			Operation: domain.OpEnergyMix,
			Required:  []string{"solar", "wind", "hydro", "thermal"},
			Fallback:  object(fb.EnergyMix),
		},
		{
			Operation: domain.OpWeatherImpact,
			Required:  []string{"current", "hourly", "recommendations"},
			Fallback:  object(fb.Weather),
		},
		{
			Operation: domain.OpLoadBalancing,
			Shape:     ai.ShapeArray,
			Required:  []string{"region", "currentLoad", "recommendedLoad", "action"},
			Fallback:  func(p domain.Payload) any { return fb.LoadBalancing(p) },
		},
		{
			Operation: domain.OpEVChargingOptimization,
			Required:  []string{"optimalSlots", "estimatedSavings", "gridImpact", "recommendations"},
			Fallback:  object(fb.Charging),
		},
	}
}

// Predictor runs prediction requests through the model pipeline:
// build prompt, invoke, extract JSON, validate. Structured operations never
// fail; any pipeline error is logged and replaced by the fallback result.
// Chat has no fallback and returns its error.
type Predictor struct {
	invoker   ModelInvoker
	prompts   *ai.PromptBuilder
	registry  map[domain.Operation]Descriptor
	sanitizer *sanitizer.Sanitizer
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewPredictor creates a new Predictor with all dependencies.
// m may be nil to disable metrics.
func NewPredictor(
	invoker ModelInvoker,
	prompts *ai.PromptBuilder,
	descriptors []Descriptor,
	sanitizer *sanitizer.Sanitizer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Predictor {
	registry := make(map[domain.Operation]Descriptor, len(descriptors))
	for _, d := range descriptors {
		registry[d.Operation] = d
	}

	return &Predictor{
		invoker:   invoker,
		prompts:   prompts,
		registry:  registry,
		sanitizer: sanitizer,
		metrics:   m,
		logger:    logger.Named("predictor"),
	}
}

// Operations returns the registered structured operations, sorted.
func (p *Predictor) Operations() []domain.Operation {
	ops := make([]domain.Operation, 0, len(p.registry))
	for op := range p.registry {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}

// Predict runs op on payload. The only error is domain.ErrUnknownOperation;
// pipeline failures yield the operation's fallback result instead.
func (p *Predictor) Predict(ctx context.Context, op domain.Operation, payload domain.Payload) (any, error) {
	d, ok := p.registry[op]
	if !ok {
		return nil, domain.WrapError("predict", fmt.Errorf("%w: %q", domain.ErrUnknownOperation, op), false)
	}
	if payload == nil {
		payload = domain.Payload{}
	}

	startTime := time.Now()
	result, stage, err := p.attempt(ctx, d, payload)
	if err != nil {
		p.logger.Warn("prediction failed, using fallback",
			zap.String("operation", string(op)),
			zap.String("stage", string(stage)),
			zap.String("kind", domain.Kind(err)),
			zap.Error(err),
			zap.Any("payload", payload),
		)
		p.metrics.ObserveFailure(string(op), string(stage), domain.Kind(err))
		p.metrics.ObservePrediction(string(op), metrics.OutcomeFallback, time.Since(startTime))
		return d.Fallback(payload), nil
	}

	p.logger.Debug("prediction completed",
		zap.String("operation", string(op)),
		zap.Duration("duration", time.Since(startTime)),
	)
	p.metrics.ObservePrediction(string(op), metrics.OutcomeModel, time.Since(startTime))
	return result, nil
}

// attempt runs the model path and reports the stage that failed.
func (p *Predictor) attempt(ctx context.Context, d Descriptor, payload domain.Payload) (any, domain.Stage, error) {
	prompt, err := p.prompts.Build(d.Operation, payload)
	if err != nil {
		return nil, domain.StageBuilding, err
	}

	reply, err := p.invoker.Invoke(ctx, prompt)
	if err != nil {
		return nil, domain.StageInvoking, err
	}

	extracted, err := ai.Extract(reply, d.Shape)
	if err != nil {
		return nil, domain.StageExtracting, err
	}

	result, err := ai.Validate(extracted, d.Shape, d.Required)
	if err != nil {
		return nil, domain.StageValidating, err
	}

	return result, domain.StageSucceeded, nil
}

// object runs a structured object operation.
func (p *Predictor) object(ctx context.Context, op domain.Operation, payload domain.Payload) domain.Result {
	v, err := p.Predict(ctx, op, payload)
	if err != nil {
		p.logger.Error("operation not registered", zap.String("operation", string(op)))
		return domain.Result{}
	}
	r, _ := v.(domain.Result)
	return r
}

// CarbonEmissions projects emissions one, three and five years ahead.
func (p *Predictor) CarbonEmissions(ctx context.Context, in domain.EmissionsInput) domain.Result {
	return p.object(ctx, domain.OpCarbonEmissions, in.Payload())
}

// TradingRecommendation suggests a buy, sell or wait action.
func (p *Predictor) TradingRecommendation(ctx context.Context, in domain.TradingInput) domain.Result {
	return p.object(ctx, domain.OpTradingRecommendation, in.Payload())
}

// RiskAssessment scores a proposed trade.
func (p *Predictor) RiskAssessment(ctx context.Context, in domain.RiskInput) domain.Result {
	return p.object(ctx, domain.OpRiskAssessment, in.Payload())
}

// ContractTerms drafts the terms of an energy contract.
func (p *Predictor) ContractTerms(ctx context.Context, in domain.TermsInput) domain.Result {
	return p.object(ctx, domain.OpContractTerms, in.Payload())
}

// OrderBook produces a two-sided order book snapshot.
func (p *Predictor) OrderBook(ctx context.Context, in domain.OrderBookInput) domain.Result {
	return p.object(ctx, domain.OpOrderBook, in.Payload())
}

// EnergyMix analyzes the generation mix.
func (p *Predictor) EnergyMix(ctx context.Context, in domain.EnergyMixInput) domain.Result {
	return p.object(ctx, domain.OpEnergyMix, in.Payload())
}

// WeatherImpact analyzes how weather affects renewable output.
func (p *Predictor) WeatherImpact(ctx context.Context, in domain.WeatherInput) domain.Result {
	return p.object(ctx, domain.OpWeatherImpact, in.Payload())
}

// EVChargingOptimization schedules fleet charging.
func (p *Predictor) EVChargingOptimization(ctx context.Context, in domain.ChargingInput) domain.Result {
	return p.object(ctx, domain.OpEVChargingOptimization, in.Payload())
}

// LoadBalancing recommends a per-region load plan.
func (p *Predictor) LoadBalancing(ctx context.Context, in domain.LoadInput) []domain.Result {
	v, _ := p.Predict(ctx, domain.OpLoadBalancing, in.Payload())
	plan, _ := v.([]domain.Result)
	return plan
}

// Chat continues a conversation. Unlike structured operations it returns
// every pipeline error; callers show ChatApology instead.
func (p *Predictor) Chat(ctx context.Context, history []domain.ChatTurn, message string) (string, error) {
	if p.sanitizer.IsEmpty(message) {
		return "", domain.WrapError("chat", domain.ErrEmptyMessage, false)
	}
	if p.sanitizer.IsTooLarge(message) {
		p.logger.Warn("chat message too large, will be truncated",
			zap.Int("original_size", len(message)),
		)
	}

	startTime := time.Now()
	sanitized, stats := p.sanitizer.SanitizeWithStats(message)
	p.logger.Debug("chat message sanitized",
		zap.Int("original_size", stats.OriginalSize),
		zap.Int("sanitized_size", stats.SanitizedSize),
		zap.Int("secrets_found", stats.SecretsFound),
		zap.Bool("truncated", stats.Truncated),
	)

	turns := make([]domain.ChatTurn, 0, len(history))
	for _, turn := range history {
		turns = append(turns, domain.ChatTurn{Role: turn.Role, Content: p.sanitizer.Mask(turn.Content)})
	}

	prompt, err := p.prompts.Build(domain.OpChat, domain.Payload{
		"history": turns,
		"message": sanitized,
	})
	if err != nil {
		return "", p.chatFailed(domain.StageBuilding, err, startTime)
	}

	reply, err := p.invoker.Invoke(ctx, prompt)
	if err != nil {
		return "", p.chatFailed(domain.StageInvoking, err, startTime)
	}

	p.metrics.ObservePrediction(string(domain.OpChat), metrics.OutcomeModel, time.Since(startTime))
	return strings.TrimSpace(reply), nil
}

func (p *Predictor) chatFailed(stage domain.Stage, err error, startTime time.Time) error {
	p.logger.Error("chat failed",
		zap.String("stage", string(stage)),
		zap.String("kind", domain.Kind(err)),
		zap.Error(err),
		zap.Duration("duration", time.Since(startTime)),
	)
	p.metrics.ObserveFailure(string(domain.OpChat), string(stage), domain.Kind(err))
	p.metrics.ObservePrediction(string(domain.OpChat), metrics.OutcomeError, time.Since(startTime))
	return err
}
