package triage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/whitelist"
)

// Analyzer produces a verdict for one email.
type Analyzer interface {
	Analyze(ctx context.Context, signal *core.ThreatSignal) *core.SecurityVerdict
}

// Service wraps the scoring engine with sender whitelisting, per-sender
// reputation caching and audit logging. Filters talk to this, not to the
// engine directly.
type Service struct {
	guard        Analyzer
	cache        core.CacheRepository
	auditLog     core.AuditLog
	whitelist    *whitelist.Checker
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewService creates a new triage service
func NewService(
	guard Analyzer,
	cache core.CacheRepository,
	auditLog core.AuditLog,
	whitelistChecker *whitelist.Checker,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		guard:        guard,
		cache:        cache,
		auditLog:     auditLog,
		whitelist:    whitelistChecker,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// Triage runs the full decision pipeline for one email.
func (s *Service) Triage(ctx context.Context, signal *core.ThreatSignal) *core.SecurityVerdict {
	if s.whitelist != nil && s.whitelist.IsWhitelisted(signal.Sender) {
		s.logger.Debug("Sender is whitelisted, skipping analysis",
			zap.String("sender", signal.Sender))
		return &core.SecurityVerdict{
			IsSafe:        true,
			ThreatLevel:   core.ThreatLevelLow,
			FoundPatterns: []string{},
			Message:       "Sender domain is whitelisted",
		}
	}

	if verdict := s.cachedVerdict(ctx, signal.Sender); verdict != nil {
		return verdict
	}

	verdict := s.guard.Analyze(ctx, signal)

	// Only HIGH verdicts are cached: a dangerous sender stays dangerous,
	// while LOW and MEDIUM depend on the specific message content.
	if s.cacheEnabled && s.cache != nil && verdict.ThreatLevel == core.ThreatLevelHigh {
		now := time.Now()
		entry := &core.CacheEntry{
			SenderEmail: signal.Sender,
			ThreatLevel: verdict.ThreatLevel,
			Score:       float32(verdict.SuspiciousScore),
			LastSeen:    now,
			ExpiresAt:   now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Warn("Failed to cache verdict",
				zap.Error(err),
				zap.String("sender", signal.Sender))
		}
	}

	s.audit(ctx, signal, verdict)

	return verdict
}

// cachedVerdict reconstructs a verdict from a cached HIGH reputation entry.
func (s *Service) cachedVerdict(ctx context.Context, sender string) *core.SecurityVerdict {
	if !s.cacheEnabled || s.cache == nil {
		return nil
	}

	entry, ok := s.cache.Get(ctx, sender)
	if !ok || entry.ThreatLevel != core.ThreatLevelHigh {
		return nil
	}

	s.logger.Debug("Using cached reputation for sender",
		zap.String("sender", sender),
		zap.Float32("score", entry.Score))

	return &core.SecurityVerdict{
		IsSafe:            false,
		ThreatLevel:       core.ThreatLevelHigh,
		SuspiciousScore:   float64(entry.Score),
		FoundPatterns:     []string{"cached_reputation:" + sender},
		Category:          core.CategoryDanger,
		RecommendedAction: core.ActionArchive,
		Message:           fmt.Sprintf("Sender previously classified as high threat (score %.1f)", entry.Score),
	}
}

func (s *Service) audit(ctx context.Context, signal *core.ThreatSignal, verdict *core.SecurityVerdict) {
	if s.auditLog == nil {
		return
	}

	entry := &core.AuditEntry{
		Sender:      signal.Sender,
		Subject:     signal.Subject,
		ThreatLevel: verdict.ThreatLevel,
		Score:       verdict.SuspiciousScore,
		Category:    verdict.Category,
		Action:      verdict.RecommendedAction,
		Patterns:    verdict.FoundPatterns,
		Message:     verdict.Message,
		RecordedAt:  time.Now(),
	}
	if err := s.auditLog.Record(ctx, entry); err != nil {
		s.logger.Warn("Failed to record audit entry", zap.Error(err))
	}
}
