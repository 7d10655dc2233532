package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/moneta-ledger/internal/domain"
	"github.com/boddenberg/moneta-ledger/internal/infra/memory"
	"github.com/boddenberg/moneta-ledger/internal/infra/observability"
	"github.com/boddenberg/moneta-ledger/internal/port"
	"github.com/boddenberg/moneta-ledger/internal/service"

	"go.uber.org/zap"
)

func newArchiver(store port.Store, now time.Time) *service.ArchiveService {
	return service.NewArchiveService(store, observability.NewMetrics(), zap.NewNop(), fixedClock(now))
}

func seedLedger(t *testing.T, store port.Store, businessID string, txs ...domain.Transaction) {
	t.Helper()
	if err := store.AppendTransactions(context.Background(), businessID, txs); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}
}

func TestArchiveMonth_RoundTripRestoresLedger(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1",
		tx("t1", "b1", "2026-01-05", 1000),
		tx("t2", "b1", "2026-01-20", -300),
		tx("t3", "b1", "2026-02-01", 50),
	)
	archiver := newArchiver(store, april10)

	stmt, err := archiver.ArchiveMonth(ctx, "b1", 2026, 0)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if stmt == nil {
		t.Fatal("expected a statement")
	}
	if stmt.ID != "2026-0" || stmt.MonthName != "January" {
		t.Errorf("unexpected statement identity %s/%s", stmt.ID, stmt.MonthName)
	}
	if stmt.Summary.TotalIncome != 1000 || stmt.Summary.TotalExpenses != 300 ||
		stmt.Summary.NetAmount != 700 || stmt.Summary.TransactionCount != 2 {
		t.Errorf("unexpected summary %+v", stmt.Summary)
	}
	if stmt.ArchivedAt != april10.UnixMilli() {
		t.Errorf("expected archivedAt from the clock, got %d", stmt.ArchivedAt)
	}

	live, _ := store.ListTransactions(ctx, "b1")
	if len(live) != 1 || live[0].ID != "t3" {
		t.Fatalf("expected only t3 live, got %+v", live)
	}

	if err := archiver.UnarchiveMonth(ctx, "b1", "2026-0"); err != nil {
		t.Fatalf("unarchive: %v", err)
	}

	live, _ = store.ListTransactions(ctx, "b1")
	ids := map[string]bool{}
	for _, l := range live {
		ids[l.ID] = true
	}
	if len(live) != 3 || !ids["t1"] || !ids["t2"] || !ids["t3"] {
		t.Fatalf("expected all three transactions restored, got %+v", live)
	}
	statements, _ := archiver.ListStatements(ctx, "b1")
	if len(statements) != 0 {
		t.Errorf("expected no statements after unarchive, got %d", len(statements))
	}
}

func TestArchiveMonth_IsolatesBusinesses(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1", tx("t1", "b1", "2026-01-05", 100))
	seedLedger(t, store, "b2", tx("t2", "b2", "2026-01-05", 200))
	archiver := newArchiver(store, april10)

	if _, err := archiver.ArchiveMonth(ctx, "b1", 2026, 0); err != nil {
		t.Fatalf("archive: %v", err)
	}

	other, _ := store.ListTransactions(ctx, "b2")
	if len(other) != 1 {
		t.Fatalf("expected b2 untouched, got %d live", len(other))
	}
	b2Statements, _ := archiver.ListStatements(ctx, "b2")
	if len(b2Statements) != 0 {
		t.Errorf("expected no b2 statements, got %d", len(b2Statements))
	}
}

func TestArchiveMonth_EmptyMonthIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1", tx("t1", "b1", "2026-02-05", 100))

	stmt, err := newArchiver(store, april10).ArchiveMonth(ctx, "b1", 2026, 0)

	if err != nil || stmt != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", stmt, err)
	}
	statements, _ := store.ListStatements(ctx, "b1")
	if len(statements) != 0 {
		t.Errorf("expected no statement, got %d", len(statements))
	}
}

func TestArchiveMonth_RejectsInvalidMonth(t *testing.T) {
	_, err := newArchiver(memory.NewStore(), april10).ArchiveMonth(context.Background(), "b1", 2026, 12)

	var valErr *domain.ErrValidation
	if !errors.As(err, &valErr) || valErr.Field != "month" {
		t.Fatalf("expected month validation error, got %v", err)
	}
}

func TestArchiveMonth_ExistingStatementConflicts(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1", tx("t1", "b1", "2026-01-05", 100))
	archiver := newArchiver(store, april10)
	_, _ = archiver.ArchiveMonth(ctx, "b1", 2026, 0)

	// A late entry lands in a month that is already closed.
	seedLedger(t, store, "b1", tx("t2", "b1", "2026-01-25", 40))
	_, err := archiver.ArchiveMonth(ctx, "b1", 2026, 0)

	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	live, _ := store.ListTransactions(ctx, "b1")
	if len(live) != 1 || live[0].ID != "t2" {
		t.Errorf("expected the late entry to stay live, got %+v", live)
	}
}

func TestUnarchiveMonth_UnknownOrForeignStatementIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1", tx("t1", "b1", "2026-01-05", 100))
	archiver := newArchiver(store, april10)
	_, _ = archiver.ArchiveMonth(ctx, "b1", 2026, 0)

	if err := archiver.UnarchiveMonth(ctx, "b1", "2025-6"); err != nil {
		t.Fatalf("expected nil for unknown statement, got %v", err)
	}
	if err := archiver.UnarchiveMonth(ctx, "b2", "2026-0"); err != nil {
		t.Fatalf("expected nil for another business, got %v", err)
	}

	statements, _ := archiver.ListStatements(ctx, "b1")
	if len(statements) != 1 {
		t.Errorf("expected b1 statement intact, got %d", len(statements))
	}
	b2Live, _ := store.ListTransactions(ctx, "b2")
	if len(b2Live) != 0 {
		t.Errorf("expected nothing restored into b2, got %d", len(b2Live))
	}
}

func TestCheckForArchivableMonths_SweepsPastMonthsOnly(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1",
		tx("old", "b1", "2023-12-31", 10),   // beyond the three-year window
		tx("y2", "b1", "2024-03-10", 20),    // currentYear-2
		tx("y1", "b1", "2025-11-02", 30),    // currentYear-1
		tx("jan", "b1", "2026-01-15", 40),   // current year, past month
		tx("mar", "b1", "2026-03-31", 50),   // last full month
		tx("april", "b1", "2026-04-01", 60), // current month
	)
	archiver := newArchiver(store, april10)

	created := archiver.CheckForArchivableMonths(ctx, "b1")

	got := map[string]bool{}
	for _, st := range created {
		got[st.ID] = true
	}
	for _, want := range []string{"2024-2", "2025-10", "2026-0", "2026-2"} {
		if !got[want] {
			t.Errorf("expected statement %s to be created", want)
		}
	}
	if len(created) != 4 {
		t.Errorf("expected 4 statements, got %d", len(created))
	}

	live, _ := store.ListTransactions(ctx, "b1")
	liveIDs := map[string]bool{}
	for _, l := range live {
		liveIDs[l.ID] = true
	}
	if len(live) != 2 || !liveIDs["april"] || !liveIDs["old"] {
		t.Errorf("expected current month and out-of-window entries to stay live, got %+v", live)
	}

	again := archiver.CheckForArchivableMonths(ctx, "b1")
	if len(again) != 0 {
		t.Errorf("expected the second sweep to be a no-op, got %d", len(again))
	}
}

func TestCheckForArchivableMonths_ContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	seedLedger(t, store, "b1", tx("jan", "b1", "2026-01-15", 40))
	store.failSaveArchive = true

	created := newArchiver(store, april10).CheckForArchivableMonths(ctx, "b1")

	if len(created) != 0 {
		t.Fatalf("expected nothing created, got %d", len(created))
	}
	live, _ := store.ListTransactions(ctx, "b1")
	if len(live) != 1 {
		t.Errorf("expected the ledger untouched, got %d", len(live))
	}
}

func TestAnnual_RecomputesFromStatements(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seedLedger(t, store, "b1",
		tx("jan-in", "b1", "2026-01-05", 1000),
		tx("jan-out", "b1", "2026-01-06", -200),
		tx("feb-in", "b1", "2026-02-05", 500),
		tx("feb-out", "b1", "2026-02-06", -100),
	)
	archiver := newArchiver(store, april10)
	_ = archiver.CheckForArchivableMonths(ctx, "b1")

	annual, err := archiver.Annual(ctx, "b1")
	if err != nil {
		t.Fatalf("annual: %v", err)
	}
	if len(annual) != 1 {
		t.Fatalf("expected one year, got %d", len(annual))
	}
	sum := annual[0].AnnualSummary
	if sum.TotalIncome != 1500 || sum.TotalExpenses != 300 || sum.NetAmount != 1200 || sum.TotalTransactions != 4 {
		t.Errorf("unexpected annual summary %+v", sum)
	}
	if annual[0].MonthlyStatements[0].Month != 1 {
		t.Errorf("expected February first, got month %d", annual[0].MonthlyStatements[0].Month)
	}

	_ = archiver.UnarchiveMonth(ctx, "b1", "2026-1")
	annual, _ = archiver.Annual(ctx, "b1")
	if annual[0].AnnualSummary.TotalIncome != 1000 {
		t.Errorf("expected annual view to reflect the unarchive, got %+v", annual[0].AnnualSummary)
	}
}
