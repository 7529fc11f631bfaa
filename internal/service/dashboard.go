package service

import (
	"context"
	"time"

	"github.com/smart-grid-ai/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardInput carries the inputs of every dashboard panel.
type DashboardInput struct {
	Emissions domain.EmissionsInput `json:"emissions"`
	EnergyMix domain.EnergyMixInput `json:"energyMix"`
	Weather   domain.WeatherInput   `json:"weather"`
}

// Dashboard is one snapshot of the grid overview panels.
type Dashboard struct {
	Emissions   domain.Result `json:"emissions"`
	EnergyMix   domain.Result `json:"energyMix"`
	Weather     domain.Result `json:"weather"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Dashboard runs the panel predictions concurrently. Each panel falls back
// independently, so a snapshot is always complete.
func (p *Predictor) Dashboard(ctx context.Context, in DashboardInput) (*Dashboard, error) {
	startTime := time.Now()
	snapshot := &Dashboard{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snapshot.Emissions = p.CarbonEmissions(gctx, in.Emissions)
		return nil
	})
	g.Go(func() error {
		snapshot.EnergyMix = p.EnergyMix(gctx, in.EnergyMix)
		return nil
	})
	g.Go(func() error {
		snapshot.Weather = p.WeatherImpact(gctx, in.Weather)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot.GeneratedAt = time.Now()
	p.logger.Debug("dashboard assembled", zap.Duration("duration", time.Since(startTime)))
	return snapshot, nil
}
