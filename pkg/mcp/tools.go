package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/semgate-ai/semgate/pkg/models"
)

// Tool argument structs.

type sinceArgs struct {
	Since string `json:"since"`
}

type routePreviewArgs struct {
	Query string `json:"query"`
}

type auditSearchArgs struct {
	Event     string `json:"event"`
	Tier      string `json:"tier"`
	Since     string `json:"since"`
	RequestID string `json:"request_id"`
}

// toolHandler is a function that handles a tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

// toolHandlers maps tool names to their handlers.
var toolHandlers = map[string]toolHandler{
	"semgate_stats":         handleStats,
	"semgate_savings":       handleSavings,
	"semgate_cache_stats":   handleCacheStats,
	"semgate_budget":        handleBudget,
	"semgate_route_preview": handleRoutePreview,
	"semgate_audit_search":  handleAuditSearch,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "semgate_stats",
		Description: "Show per-tier query statistics: counts, tokens, cost, and savings.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"since": map[string]any{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format (optional, defaults to start of month)",
				},
			},
		},
	},
	{
		Name:        "semgate_savings",
		Description: "Show total spend and estimated savings from cache hits and tier routing.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"since": map[string]any{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format (optional, defaults to start of month)",
				},
			},
		},
	},
	{
		Name:        "semgate_cache_stats",
		Description: "Show semantic cache statistics (entries, exact hits, semantic hits, hit rates).",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "semgate_budget",
		Description: "Show cloud spend against all configured budget policies.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "semgate_route_preview",
		Description: "Show which tier a query would route to, without running it.",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []string{"query"},
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The query text to classify",
				},
			},
		},
	},
	{
		Name:        "semgate_audit_search",
		Description: "Search the routing audit log with optional filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"event": map[string]any{
					"type":        "string",
					"description": "Filter by event type: request or blocked (optional)",
				},
				"tier": map[string]any{
					"type":        "string",
					"description": "Filter by tier (optional)",
				},
				"since": map[string]any{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format (optional)",
				},
				"request_id": map[string]any{
					"type":        "string",
					"description": "Filter by request ID (optional)",
				},
			},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return beginningOfMonth(), nil
	}
	return time.Parse("2006-01-02", raw)
}

func beginningOfMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func handleStats(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args sinceArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	since, err := parseSince(args.Since)
	if err != nil {
		return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
	}
	rows, err := s.tracker.Summary(ctx, since)
	if err != nil {
		return errorResult("Error fetching stats: " + err.Error())
	}
	return textResult(formatSummary(rows))
}

func handleSavings(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args sinceArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	since, err := parseSince(args.Since)
	if err != nil {
		return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
	}
	totals, err := s.tracker.Totals(ctx, since)
	if err != nil {
		return errorResult("Error fetching savings: " + err.Error())
	}
	return textResult(formatTotals(totals))
}

func handleCacheStats(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.cache == nil {
		return textResult("Semantic cache is not configured.")
	}
	return textResult(formatCacheStats(s.cache.Stats()))
}

func handleBudget(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.enforcer == nil {
		return textResult("Budget enforcement is not configured.")
	}
	statuses, err := s.enforcer.Status(ctx)
	if err != nil {
		return errorResult("Error fetching budget status: " + err.Error())
	}
	return textResult(formatBudgetStatus(statuses))
}

func handleRoutePreview(_ context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	var args routePreviewArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if args.Query == "" {
		return errorResult("query is required")
	}
	dec := s.router.Route(args.Query, "")
	return textResult(formatDecision(args.Query, dec))
}

func handleAuditSearch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.auditor == nil {
		return textResult("Audit logging is not configured.")
	}
	var args auditSearchArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	opts := models.AuditQueryOpts{
		Event:     args.Event,
		Tier:      models.Tier(args.Tier),
		RequestID: args.RequestID,
		Limit:     50,
	}
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
		}
		opts.Since = t
	}

	events, err := s.auditor.Query(ctx, opts)
	if err != nil {
		return errorResult("Error searching audit log: " + err.Error())
	}
	return textResult(formatAuditEvents(events))
}
