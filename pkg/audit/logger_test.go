package audit

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/semgate-ai/semgate/pkg/models"
)

func newTestLogger(t *testing.T, retentionDays int) *Logger {
	t.Helper()
	cfg := models.AuditConfig{
		Enabled:       true,
		DBPath:        filepath.Join(t.TempDir(), "audit_test.db"),
		RetentionDays: retentionDays,
	}
	l, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestHashQuery(t *testing.T) {
	h1, p1 := HashQuery("what is the capital of france")
	h2, _ := HashQuery("what is the capital of france")
	h3, _ := HashQuery("something else")

	if h1 != h2 {
		t.Error("same query should produce same hash")
	}
	if h1 == h3 {
		t.Error("different queries should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64-char hex hash, got %d chars", len(h1))
	}
	if p1 != "what is the capital of f" {
		t.Errorf("unexpected prefix: %q", p1)
	}

	_, short := HashQuery("hi")
	if short != "hi" {
		t.Errorf("short query prefix should be the query, got %q", short)
	}
}

func TestHashQueryMultibytePrefix(t *testing.T) {
	query := strings.Repeat("ゴルーチンとは何ですか", 4)
	_, prefix := HashQuery(query)

	if !utf8.ValidString(prefix) {
		t.Errorf("prefix is not valid UTF-8: %q", prefix)
	}
	if got := utf8.RuneCountInString(prefix); got != 24 {
		t.Errorf("prefix length = %d runes, want 24", got)
	}
}

func TestLogAndQuery(t *testing.T) {
	l := newTestLogger(t, 0)
	ctx := context.Background()

	hash, prefix := HashQuery("explain goroutines")
	err := l.Log(ctx, models.AuditEvent{
		RequestID:   "req-1",
		Event:       models.AuditEventRequest,
		Tier:        models.TierCloud,
		QueryHash:   hash,
		QueryPrefix: prefix,
		TotalTokens: 300,
		LatencyMs:   850,
	})
	if err != nil {
		t.Fatal(err)
	}

	events, err := l.Query(ctx, models.AuditQueryOpts{RequestID: "req-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Event != models.AuditEventRequest || ev.Tier != models.TierCloud {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.QueryHash != hash || ev.QueryPrefix != prefix {
		t.Error("hash or prefix not round-tripped")
	}
	if ev.TotalTokens != 300 || ev.LatencyMs != 850 {
		t.Errorf("unexpected counters: %+v", ev)
	}
}

func TestLogBlocked(t *testing.T) {
	l := newTestLogger(t, 0)
	ctx := context.Background()

	if err := l.LogBlocked(ctx, "req-2", "design a trading system", "paranoid mode", models.TierCloud); err != nil {
		t.Fatal(err)
	}

	events, err := l.Query(ctx, models.AuditQueryOpts{Event: models.AuditEventBlocked})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 blocked event, got %d", len(events))
	}
	if events[0].Reason != "paranoid mode" {
		t.Errorf("unexpected reason: %q", events[0].Reason)
	}
}

func TestQueryFilters(t *testing.T) {
	l := newTestLogger(t, 0)
	ctx := context.Background()

	_ = l.LogBlocked(ctx, "r1", "q1", "paranoid mode", models.TierCloud)
	hash, prefix := HashQuery("q2")
	_ = l.Log(ctx, models.AuditEvent{
		RequestID: "r2", Event: models.AuditEventRequest,
		Tier: models.TierLocal, QueryHash: hash, QueryPrefix: prefix,
	})

	byTier, err := l.Query(ctx, models.AuditQueryOpts{Tier: models.TierLocal})
	if err != nil {
		t.Fatal(err)
	}
	if len(byTier) != 1 || byTier[0].RequestID != "r2" {
		t.Errorf("unexpected tier filter result: %+v", byTier)
	}

	// A since filter in the future matches nothing.
	future, err := l.Query(ctx, models.AuditQueryOpts{Since: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(future) != 0 {
		t.Errorf("expected no events, got %d", len(future))
	}
}

func TestCleanup(t *testing.T) {
	l := newTestLogger(t, 7)
	ctx := context.Background()

	old := models.AuditEvent{
		RequestID: "old", Event: models.AuditEventRequest,
		Tier: models.TierLocal, CreatedAt: time.Now().UTC().AddDate(0, 0, -30),
	}
	recent := models.AuditEvent{
		RequestID: "recent", Event: models.AuditEventRequest,
		Tier: models.TierLocal, CreatedAt: time.Now().UTC(),
	}
	_ = l.Log(ctx, old)
	_ = l.Log(ctx, recent)

	n, err := l.Cleanup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted event, got %d", n)
	}

	events, _ := l.Query(ctx, models.AuditQueryOpts{})
	if len(events) != 1 || events[0].RequestID != "recent" {
		t.Errorf("unexpected surviving events: %+v", events)
	}
}
