package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/guildforge/guildforge-backend/internal/points"
	"github.com/guildforge/guildforge-backend/pkg/db/models"
	"github.com/guildforge/guildforge-backend/pkg/logger"
)

type fakeDecaySystems struct {
	systems []models.PointSystem
	err     error
}

func (f *fakeDecaySystems) ListDecayEnabled(context.Context) ([]models.PointSystem, error) {
	return f.systems, f.err
}

type fakeDecayer struct {
	results map[uuid.UUID]error
	calls   []uuid.UUID
}

func (f *fakeDecayer) ApplyDecay(ctx context.Context, system *models.PointSystem) (*points.DecayResult, error) {
	f.calls = append(f.calls, system.ID)
	if err := f.results[system.ID]; err != nil {
		return nil, err
	}
	return &points.DecayResult{SystemID: system.ID, Applied: 1}, nil
}

func TestDecayJobSweepsAllSystems(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	systemA := models.PointSystem{ID: uuid.New(), DecayEnabled: true, DecayRateBps: 1000}
	systemB := models.PointSystem{ID: uuid.New(), DecayEnabled: true, DecayRateBps: 500}
	decayer := &fakeDecayer{}

	job, err := NewDecayJob(DecayJobParams{
		Logger:  logg,
		Systems: &fakeDecaySystems{systems: []models.PointSystem{systemA, systemB}},
		Points:  decayer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if job.Name() != "point-decay" {
		t.Fatalf("unexpected job name %q", job.Name())
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(decayer.calls) != 2 {
		t.Fatalf("expected 2 decay calls, got %d", len(decayer.calls))
	}
}

func TestDecayJobContinuesPastFailures(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	failing := models.PointSystem{ID: uuid.New(), DecayEnabled: true, DecayRateBps: 1000}
	healthy := models.PointSystem{ID: uuid.New(), DecayEnabled: true, DecayRateBps: 1000}
	decayer := &fakeDecayer{results: map[uuid.UUID]error{failing.ID: errors.New("store down")}}

	job, err := NewDecayJob(DecayJobParams{
		Logger:  logg,
		Systems: &fakeDecaySystems{systems: []models.PointSystem{failing, healthy}},
		Points:  decayer,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}

	runErr := job.Run(context.Background())
	if runErr == nil {
		t.Fatal("expected combined error")
	}
	if !strings.Contains(runErr.Error(), "store down") {
		t.Fatalf("missing wrapped cause: %v", runErr)
	}
	if len(decayer.calls) != 2 {
		t.Fatalf("failure should not stop the sweep, got %d calls", len(decayer.calls))
	}
}

func TestDecayJobEmptySweep(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	job, err := NewDecayJob(DecayJobParams{
		Logger:  logg,
		Systems: &fakeDecaySystems{},
		Points:  &fakeDecayer{},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	job, err = NewDecayJob(DecayJobParams{
		Logger:  logg,
		Systems: &fakeDecaySystems{err: errors.New("unavailable")},
		Points:  &fakeDecayer{},
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected listing error")
	}
}
