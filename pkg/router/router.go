// Package router decides which tier should serve a query, using cheap text
// heuristics to estimate complexity. Simple queries stay on the free local
// tier; anything substantial goes to cloud, where the upstream auto-router
// picks a concrete model.
package router

import (
	"strings"

	"github.com/semgate-ai/semgate/pkg/models"
)

// Complexity estimates how capable a model the query needs.
type Complexity int

const (
	// Trivial is a lookup or pattern match, cache or local.
	Trivial Complexity = iota
	// Simple is a basic single-step question, local.
	Simple
	// Moderate needs multi-step reasoning, cloud.
	Moderate
	// Complex needs analysis or synthesis, cloud.
	Complex
	// Expert is architectural or novel-problem territory, cloud.
	Expert
)

// String returns the complexity name.
func (c Complexity) String() string {
	switch c {
	case Trivial:
		return "trivial"
	case Simple:
		return "simple"
	case Moderate:
		return "moderate"
	case Complex:
		return "complex"
	case Expert:
		return "expert"
	default:
		return "unknown"
	}
}

// MinTier returns the cheapest tier recommended for this complexity.
func (c Complexity) MinTier() models.Tier {
	switch c {
	case Trivial:
		return models.TierCache
	case Simple:
		return models.TierLocal
	default:
		return models.TierCloud
	}
}

// Classify estimates query complexity from keywords and length. Thresholds
// deliberately favor cloud routing: local models only get very short,
// simple queries.
func Classify(query string) Complexity {
	q := strings.ToLower(query)
	words := len(strings.Fields(query))

	if containsAny(q, "architect", "design pattern", "trade-off", "best approach", "should i", "pros and cons") {
		return Expert
	}
	if containsAny(q, "explain", "compare", "analyze", "implement", "refactor", "review", "code", "function", "bug", "error") || words > 15 {
		return Complex
	}
	if containsAny(q, "how", "why", "debug", "fix") || words > 10 {
		return Moderate
	}
	if containsAny(q, "what is", "where is", "find", "list") {
		return Simple
	}
	if words >= 5 {
		return Moderate
	}
	return Trivial
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Router resolves queries to tiers, honoring paranoid mode and an optional
// tier cap (typically set by the budget enforcer).
type Router struct {
	paranoid bool
}

// New creates a Router. When paranoid is true, no query ever routes to a
// cloud tier.
func New(paranoid bool) *Router {
	return &Router{paranoid: paranoid}
}

// Decision explains a routing outcome.
type Decision struct {
	Tier       models.Tier
	Complexity Complexity
	Capped     bool
	Blocked    bool
}

// Route picks a tier for the query. maxTier, when non-empty, caps the
// result (cost control); paranoid mode pins everything to local.
func (r *Router) Route(query string, maxTier models.Tier) Decision {
	complexity := Classify(query)

	if r.paranoid {
		return Decision{Tier: models.TierLocal, Complexity: complexity, Blocked: true}
	}

	tier, capped := Cap(complexity.MinTier(), maxTier)
	return Decision{Tier: tier, Complexity: complexity, Capped: capped}
}

// Cap lowers tier to maxTier when maxTier is cheaper. An empty maxTier
// means no cap.
func Cap(tier, maxTier models.Tier) (models.Tier, bool) {
	if maxTier != "" && tierRank(tier) > tierRank(maxTier) {
		return maxTier, true
	}
	return tier, false
}

// tierRank orders tiers by cost for cap comparisons.
func tierRank(t models.Tier) int {
	switch t {
	case models.TierCache:
		return 0
	case models.TierLocal:
		return 1
	default:
		return 2
	}
}
