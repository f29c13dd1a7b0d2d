package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNilReceiversDoNotPanic(t *testing.T) {
	var cron *CronJobMetrics
	cron.ObserveDuration("decay", time.Second)
	cron.IncSuccess("decay")
	cron.IncFailure("decay")

	var ledger *LedgerMetrics
	ledger.IncMutation("award")
	ledger.IncClamped()
	ledger.ObserveDuration("award", time.Second)
}

func TestRegistersOnProvidedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	cron := NewCronJobMetrics(reg)
	ledger := NewLedgerMetrics(reg)

	cron.IncSuccess("point-decay")
	cron.ObserveDuration("point-decay", 120*time.Millisecond)
	ledger.IncMutation("deduct")
	ledger.IncClamped()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	for _, want := range []string{
		"job_success",
		"job_duration_seconds",
		"ledger_mutations_total",
		"ledger_floored_deductions_total",
	} {
		if !names[want] {
			t.Errorf("expected metric family %q to be registered", want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("empty label should normalize to unknown, got %q", got)
	}
	if got := normalizeLabel("point-decay"); got != "point-decay" {
		t.Fatalf("unexpected label: %q", got)
	}
}
