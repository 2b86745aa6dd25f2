package mcp

import (
	"fmt"
	"strings"

	"github.com/semgate-ai/semgate/pkg/models"
	"github.com/semgate-ai/semgate/pkg/router"
)

// formatSummary formats per-tier usage as a text table.
func formatSummary(rows []models.TierSummary) string {
	if len(rows) == 0 {
		return "No usage data found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %8s %12s %10s %10s %10s\n",
		"Tier", "Queries", "Tokens", "Cost", "Saved", "Avg ms")
	b.WriteString(strings.Repeat("-", 70) + "\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-14s %8d %12d %9.4f$ %9.4f$ %10.0f\n",
			r.Tier.Name(), r.QueryCount, r.TotalTokens, r.CostUSD, r.SavedUSD, r.AvgLatencyMs)
	}
	return b.String()
}

// formatTotals formats aggregate spend and savings as text.
func formatTotals(t models.UsageTotals) string {
	offload := float64(0)
	if t.Queries > 0 {
		offload = float64(t.CacheHits+t.LocalQueries) / float64(t.Queries) * 100
	}
	return fmt.Sprintf("Usage Totals\n"+
		"  Queries:      %d\n"+
		"  Cache hits:   %d\n"+
		"  Local:        %d\n"+
		"  Cloud:        %d\n"+
		"  Tokens:       %d\n"+
		"  Spent:        $%.4f\n"+
		"  Saved:        $%.4f\n"+
		"  Free-tier %%:  %.1f%%\n",
		t.Queries, t.CacheHits, t.LocalQueries, t.CloudQueries,
		t.TokensProcessed, t.SpentUSD, t.SavedUSD, offload)
}

// formatCacheStats formats semantic cache stats as text.
func formatCacheStats(stats models.CacheStats) string {
	return fmt.Sprintf("Semantic Cache Statistics\n"+
		"  Entries:            %d\n"+
		"  Exact hits:         %d\n"+
		"  Semantic hits:      %d\n"+
		"  Misses:             %d\n"+
		"  Embedding failures: %d\n"+
		"  Semantic hit rate:  %.1f%%\n"+
		"  Total hit rate:     %.1f%%\n",
		stats.Entries, stats.ExactHits, stats.SemanticHits, stats.Misses,
		stats.EmbeddingFailures, stats.SemanticHitRate*100, stats.TotalHitRate*100)
}

// formatBudgetStatus formats budget statuses as a text table.
func formatBudgetStatus(statuses []models.BudgetStatus) string {
	if len(statuses) == 0 {
		return "No budget policies found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %10s %10s %10s %6s\n",
		"Period", "Max USD", "Spent", "Remaining", "Usage%")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, s := range statuses {
		pct := float64(0)
		if s.Policy.MaxUSD > 0 {
			pct = s.SpentUSD / s.Policy.MaxUSD * 100
		}
		fmt.Fprintf(&b, "%-8s %10.2f %10.4f %10.4f %5.1f%%\n",
			s.Policy.Period, s.Policy.MaxUSD, s.SpentUSD, s.RemainingUSD, pct)
	}
	return b.String()
}

// formatDecision formats a routing preview as text.
func formatDecision(query string, dec router.Decision) string {
	var notes []string
	if dec.Blocked {
		notes = append(notes, "cloud blocked by paranoid mode")
	}
	if dec.Capped {
		notes = append(notes, "capped by budget")
	}
	suffix := ""
	if len(notes) > 0 {
		suffix = " (" + strings.Join(notes, ", ") + ")"
	}
	if len(query) > 60 {
		query = query[:57] + "..."
	}
	return fmt.Sprintf("Query:      %s\nComplexity: %s\nTier:       %s%s\n",
		query, dec.Complexity, dec.Tier.Name(), suffix)
}

// formatAuditEvents formats audit events as a text table.
func formatAuditEvents(events []models.AuditEvent) string {
	if len(events) == 0 {
		return "No audit events found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-8s %-8s %-24s %8s %8s\n",
		"Time", "Event", "Tier", "Query", "Tokens", "ms")
	b.WriteString(strings.Repeat("-", 82) + "\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "%-20s %-8s %-8s %-24s %8d %8d\n",
			ev.CreatedAt.Format("2006-01-02 15:04:05"),
			ev.Event, ev.Tier, ev.QueryPrefix, ev.TotalTokens, ev.LatencyMs)
	}
	return b.String()
}
