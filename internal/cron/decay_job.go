package cron

import (
	"context"
	"fmt"

	"github.com/guildforge/guildforge-backend/internal/points"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/logger"
	"go.uber.org/multierr"
)

// DecayJobParams configure the point decay job.
type DecayJobParams struct {
	Logger  *logger.Logger
	Systems decaySystemsSource
	Points  pointsDecayer
}

type decaySystemsSource interface {
	ListDecayEnabled(ctx context.Context) ([]models.PointSystem, error)
}

type pointsDecayer interface {
	ApplyDecay(ctx context.Context, system *models.PointSystem) (*points.DecayResult, error)
}

// NewDecayJob builds the job that sweeps decay-enabled systems.
func NewDecayJob(params DecayJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Systems == nil {
		return nil, fmt.Errorf("systems service required")
	}
	if params.Points == nil {
		return nil, fmt.Errorf("points service required")
	}
	return &decayJob{
		logg:    params.Logger,
		systems: params.Systems,
		points:  params.Points,
	}, nil
}

type decayJob struct {
	logg    *logger.Logger
	systems decaySystemsSource
	points  pointsDecayer
}

func (j *decayJob) Name() string { return "point-decay" }

// Run sweeps every decay-enabled active system. A failed system does not stop
// the sweep; errors are combined and reported at the end.
func (j *decayJob) Run(ctx context.Context) error {
	systems, err := j.systems.ListDecayEnabled(ctx)
	if err != nil {
		return fmt.Errorf("listing decay-enabled systems: %w", err)
	}
	if len(systems) == 0 {
		j.logg.Info(ctx, "no decay-enabled systems")
		return nil
	}

	var errs []error
	for i := range systems {
		system := systems[i]
		result, err := j.points.ApplyDecay(ctx, &system)
		if err != nil {
			errs = append(errs, fmt.Errorf("system %s: %w", system.ID, err))
			continue
		}
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"system_id": system.ID.String(),
			"applied":   result.Applied,
			"skipped":   result.Skipped,
		})
		j.logg.Info(logCtx, "decay applied")
	}
	return multierr.Combine(errs...)
}
