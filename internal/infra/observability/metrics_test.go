package observability_test

import (
	"testing"

	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
)

func TestSchedulerSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordRun(3, 1)
	m.RecordRun(1, 0)
	m.IncrFailure("append")
	m.IncrFailure("update_rule")
	m.IncrArchived()
	m.IncrArchived()
	m.IncrUnarchived()
	m.IncrCacheMiss("accounts")
	m.IncrCacheHit("accounts")
	m.IncrCacheHit("accounts")
	m.IncrCacheHit("accounts")

	snap := m.GetSchedulerSnapshot()
	if snap.Runs != 2 || snap.GeneratedTotal != 4 || snap.DuplicatesSkipped != 1 {
		t.Errorf("unexpected run counters %+v", snap)
	}
	if snap.Failures != 2 {
		t.Errorf("expected 2 failures, got %d", snap.Failures)
	}
	if snap.MonthsArchived != 2 || snap.MonthsUnarchived != 1 {
		t.Errorf("unexpected archive counters %+v", snap)
	}
	if snap.AvgGeneratedPerRun != 2 {
		t.Errorf("expected avg 2, got %v", snap.AvgGeneratedPerRun)
	}
	if snap.ReferenceCacheHitRate != 0.75 {
		t.Errorf("expected hit rate 0.75, got %v", snap.ReferenceCacheHitRate)
	}
}

func TestSchedulerSnapshot_Empty(t *testing.T) {
	snap := observability.NewMetrics().GetSchedulerSnapshot()
	if snap.Runs != 0 || snap.AvgGeneratedPerRun != 0 || snap.ReferenceCacheHitRate != 0 {
		t.Errorf("expected zero snapshot, got %+v", snap)
	}
}
