package triage

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/whitelist"
)

type stubAnalyzer struct {
	verdict *core.SecurityVerdict
	calls   int
}

func (a *stubAnalyzer) Analyze(ctx context.Context, signal *core.ThreatSignal) *core.SecurityVerdict {
	a.calls++
	return a.verdict
}

type stubCache struct {
	entries map[string]*core.CacheEntry
	sets    int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*core.CacheEntry)}
}

func (c *stubCache) Get(ctx context.Context, sender string) (*core.CacheEntry, bool) {
	entry, ok := c.entries[sender]
	return entry, ok
}

func (c *stubCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	c.sets++
	c.entries[entry.SenderEmail] = entry
	return nil
}

func (c *stubCache) Delete(ctx context.Context, sender string) error {
	delete(c.entries, sender)
	return nil
}

func (c *stubCache) Cleanup(ctx context.Context) error { return nil }

type recordingAudit struct {
	entries []*core.AuditEntry
}

func (a *recordingAudit) Record(ctx context.Context, entry *core.AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *recordingAudit) Close() error { return nil }

func highVerdict() *core.SecurityVerdict {
	return &core.SecurityVerdict{
		IsSafe:            false,
		ThreatLevel:       core.ThreatLevelHigh,
		SuspiciousScore:   15,
		FoundPatterns:     []string{"phishing"},
		Category:          core.CategoryDanger,
		RecommendedAction: core.ActionArchive,
		Message:           "High threat detected (score 15.0)",
	}
}

func lowVerdict() *core.SecurityVerdict {
	return &core.SecurityVerdict{
		IsSafe:        true,
		ThreatLevel:   core.ThreatLevelLow,
		FoundPatterns: []string{},
		Message:       "No threats detected",
	}
}

func TestWhitelistedSenderSkipsAnalysis(t *testing.T) {
	analyzer := &stubAnalyzer{verdict: highVerdict()}
	checker := whitelist.NewChecker([]string{"example.com"}, zap.NewNop())
	svc := NewService(analyzer, newStubCache(), &recordingAudit{}, checker, zap.NewNop(), true, time.Hour)

	verdict := svc.Triage(context.Background(), &core.ThreatSignal{
		Sender:  "alice@example.com",
		Subject: "urgent verify your paypal account",
	})

	if !verdict.IsSafe || verdict.ThreatLevel != core.ThreatLevelLow {
		t.Errorf("whitelisted sender must be safe, got %+v", verdict)
	}
	if analyzer.calls != 0 {
		t.Errorf("analyzer called %d times for whitelisted sender", analyzer.calls)
	}
}

func TestHighVerdictIsCached(t *testing.T) {
	analyzer := &stubAnalyzer{verdict: highVerdict()}
	cache := newStubCache()
	svc := NewService(analyzer, cache, &recordingAudit{}, nil, zap.NewNop(), true, time.Hour)

	svc.Triage(context.Background(), &core.ThreatSignal{Sender: "bad@evil.org"})

	if cache.sets != 1 {
		t.Fatalf("expected 1 cache write, got %d", cache.sets)
	}
	entry := cache.entries["bad@evil.org"]
	if entry.ThreatLevel != core.ThreatLevelHigh || entry.Score != 15 {
		t.Errorf("unexpected cache entry %+v", entry)
	}
}

func TestLowVerdictNotCached(t *testing.T) {
	analyzer := &stubAnalyzer{verdict: lowVerdict()}
	cache := newStubCache()
	svc := NewService(analyzer, cache, &recordingAudit{}, nil, zap.NewNop(), true, time.Hour)

	svc.Triage(context.Background(), &core.ThreatSignal{Sender: "ok@example.org"})

	if cache.sets != 0 {
		t.Errorf("LOW verdict must not be cached, got %d writes", cache.sets)
	}
}

func TestCachedReputationShortCircuits(t *testing.T) {
	analyzer := &stubAnalyzer{verdict: lowVerdict()}
	cache := newStubCache()
	cache.entries["bad@evil.org"] = &core.CacheEntry{
		SenderEmail: "bad@evil.org",
		ThreatLevel: core.ThreatLevelHigh,
		Score:       12,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	svc := NewService(analyzer, cache, &recordingAudit{}, nil, zap.NewNop(), true, time.Hour)

	verdict := svc.Triage(context.Background(), &core.ThreatSignal{Sender: "bad@evil.org"})

	if analyzer.calls != 0 {
		t.Errorf("analyzer called %d times despite cached reputation", analyzer.calls)
	}
	if verdict.ThreatLevel != core.ThreatLevelHigh || verdict.SuspiciousScore != 12 {
		t.Errorf("unexpected verdict %+v", verdict)
	}
	if len(verdict.FoundPatterns) != 1 || !strings.HasPrefix(verdict.FoundPatterns[0], "cached_reputation:") {
		t.Errorf("expected cached_reputation marker, got %v", verdict.FoundPatterns)
	}
}

func TestCacheDisabledAlwaysAnalyzes(t *testing.T) {
	analyzer := &stubAnalyzer{verdict: highVerdict()}
	cache := newStubCache()
	cache.entries["bad@evil.org"] = &core.CacheEntry{
		SenderEmail: "bad@evil.org",
		ThreatLevel: core.ThreatLevelHigh,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	svc := NewService(analyzer, cache, &recordingAudit{}, nil, zap.NewNop(), false, time.Hour)

	svc.Triage(context.Background(), &core.ThreatSignal{Sender: "bad@evil.org"})

	if analyzer.calls != 1 {
		t.Errorf("expected analysis with cache disabled, got %d calls", analyzer.calls)
	}
	if cache.sets != 0 {
		t.Errorf("cache must not be written when disabled, got %d writes", cache.sets)
	}
}

func TestAuditEntryRecorded(t *testing.T) {
	analyzer := &stubAnalyzer{verdict: highVerdict()}
	auditLog := &recordingAudit{}
	svc := NewService(analyzer, newStubCache(), auditLog, nil, zap.NewNop(), true, time.Hour)

	svc.Triage(context.Background(), &core.ThreatSignal{
		Sender:  "bad@evil.org",
		Subject: "verify now",
	})

	if len(auditLog.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(auditLog.entries))
	}
	entry := auditLog.entries[0]
	if entry.Sender != "bad@evil.org" || entry.ThreatLevel != core.ThreatLevelHigh || entry.Score != 15 {
		t.Errorf("unexpected audit entry %+v", entry)
	}
}
