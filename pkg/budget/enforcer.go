// Package budget caps cloud spend. Exhausted budgets never fail a request;
// they pin routing to the free local tier instead.
package budget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/semgate-ai/semgate/pkg/models"
	"github.com/semgate-ai/semgate/pkg/tracker"
)

// ErrBudgetExceeded is returned by Check when any policy is exhausted.
var ErrBudgetExceeded = errors.New("budget exceeded")

// Enforcer checks cloud spend against budget policies.
type Enforcer struct {
	policies []models.BudgetPolicy
	tracker  tracker.Tracker
}

// New creates an Enforcer with the given policies and tracker.
func New(policies []models.BudgetPolicy, t tracker.Tracker) *Enforcer {
	return &Enforcer{policies: policies, tracker: t}
}

// Check returns ErrBudgetExceeded if any policy is exhausted.
func (e *Enforcer) Check(ctx context.Context) error {
	for _, p := range e.policies {
		spent, err := e.tracker.SpentSince(ctx, periodStart(p.Period))
		if err != nil {
			return fmt.Errorf("budget check: %w", err)
		}
		if spent >= p.MaxUSD {
			return ErrBudgetExceeded
		}
	}
	return nil
}

// MaxTier returns the tier cap implied by the current spend: local when any
// policy is exhausted, otherwise empty (no cap). Tracker errors fail open.
func (e *Enforcer) MaxTier(ctx context.Context) models.Tier {
	if err := e.Check(ctx); err != nil {
		if errors.Is(err, ErrBudgetExceeded) {
			return models.TierLocal
		}
		return ""
	}
	return ""
}

// Status returns spend against each configured policy.
func (e *Enforcer) Status(ctx context.Context) ([]models.BudgetStatus, error) {
	statuses := make([]models.BudgetStatus, 0, len(e.policies))
	for _, p := range e.policies {
		spent, err := e.tracker.SpentSince(ctx, periodStart(p.Period))
		if err != nil {
			return nil, fmt.Errorf("budget status: %w", err)
		}
		remaining := p.MaxUSD - spent
		if remaining < 0 {
			remaining = 0
		}
		statuses = append(statuses, models.BudgetStatus{
			Policy:       p,
			SpentUSD:     spent,
			RemainingUSD: remaining,
		})
	}
	return statuses, nil
}

func periodStart(period models.BudgetPeriod) time.Time {
	now := time.Now().UTC()
	switch period {
	case models.BudgetMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default: // daily
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}
