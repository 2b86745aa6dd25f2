package models

import "time"

// Audit event kinds.
const (
	AuditEventRequest = "request"
	AuditEventBlocked = "blocked"
)

// AuditEvent records a routing decision. Query text is never stored, only
// a SHA-256 hash and a short prefix for correlation.
type AuditEvent struct {
	RequestID   string    `json:"request_id"`
	Event       string    `json:"event"`
	Tier        Tier      `json:"tier"`
	QueryHash   string    `json:"query_hash"`
	QueryPrefix string    `json:"query_prefix"`
	Reason      string    `json:"reason,omitempty"`
	TotalTokens int       `json:"total_tokens"`
	LatencyMs   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditConfig controls the audit logging subsystem.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// AuditQueryOpts specifies filters for querying audit events.
type AuditQueryOpts struct {
	Event     string
	Tier      Tier
	Since     time.Time
	RequestID string
	Limit     int
}
