package budget

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/semgate-ai/semgate/pkg/models"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

func setup(t *testing.T) (tracker.Tracker, context.Context) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "budget_test.db")
	tr, err := tracker.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = tr.Close() })
	return tr, context.Background()
}

func TestCheckUnderBudget(t *testing.T) {
	tr, ctx := setup(t)

	_ = tr.Record(ctx, models.NewQueryRecord(models.TierCloud, "openrouter/auto", 100, 50, 200))

	e := New([]models.BudgetPolicy{
		{MaxUSD: 1.00, Period: models.BudgetDaily},
	}, tr)

	if err := e.Check(ctx); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if cap := e.MaxTier(ctx); cap != "" {
		t.Errorf("expected no tier cap, got %s", cap)
	}
}

func TestCheckExceeded(t *testing.T) {
	tr, ctx := setup(t)

	// Opus at 10K+10K tokens costs $0.90, over a $0.50 daily budget.
	_ = tr.Record(ctx, models.NewQueryRecord(models.TierOpus, "claude-opus", 10000, 10000, 200))

	e := New([]models.BudgetPolicy{
		{MaxUSD: 0.50, Period: models.BudgetDaily},
	}, tr)

	err := e.Check(ctx)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded, got %v", err)
	}
	if cap := e.MaxTier(ctx); cap != models.TierLocal {
		t.Errorf("expected local tier cap, got %s", cap)
	}
}

func TestStatus(t *testing.T) {
	tr, ctx := setup(t)

	rec := models.NewQueryRecord(models.TierCloud, "openrouter/auto", 1000, 1000, 300)
	_ = tr.Record(ctx, rec)

	e := New([]models.BudgetPolicy{
		{MaxUSD: 1.00, Period: models.BudgetDaily},
		{MaxUSD: 10.00, Period: models.BudgetMonthly},
	}, tr)

	statuses, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].SpentUSD != rec.CostUSD {
		t.Errorf("expected %v spent, got %v", rec.CostUSD, statuses[0].SpentUSD)
	}
	if statuses[0].RemainingUSD != 1.00-rec.CostUSD {
		t.Errorf("unexpected remaining: %v", statuses[0].RemainingUSD)
	}
}

func TestRemainingFloorsAtZero(t *testing.T) {
	tr, ctx := setup(t)

	_ = tr.Record(ctx, models.NewQueryRecord(models.TierOpus, "claude-opus", 10000, 10000, 200))

	e := New([]models.BudgetPolicy{
		{MaxUSD: 0.10, Period: models.BudgetDaily},
	}, tr)

	statuses, err := e.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if statuses[0].RemainingUSD != 0 {
		t.Errorf("expected remaining 0, got %v", statuses[0].RemainingUSD)
	}
}

func TestNoPolicies(t *testing.T) {
	tr, ctx := setup(t)
	e := New(nil, tr)

	if err := e.Check(ctx); err != nil {
		t.Errorf("expected no error with no policies, got %v", err)
	}
	if cap := e.MaxTier(ctx); cap != "" {
		t.Errorf("expected no cap with no policies, got %s", cap)
	}
}
