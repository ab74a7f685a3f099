package core

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Score thresholds and adjustments. The 5/10 band edges define the
// LOW/MEDIUM/HIGH levels and the oracle consultation window.
const (
	highScoreThreshold   = 10.0
	mediumScoreThreshold = 5.0

	// keywordScoreCap clamps pure-keyword scores in emails with no
	// high-risk indicator, to keep ordinary transactional mail out of
	// the MEDIUM band.
	keywordScoreCap = 3.0

	suspiciousDomainBonus = 2.0
	replyToMismatchScore  = 2.0

	oracleDangerBoost = 10.0
	oracleSafeRelief  = 3.0
	// oracleSafeCeiling: a SAFE reply only lowers scores that were
	// below this before the oracle ran. Confirming danger is easier
	// than downgrading it.
	oracleSafeCeiling = 8.0

	maxFoundPatterns = 5
	maxOracleExcerpt = 1000
)

// SecurityGuard is the rule-weighted threat-scoring engine. It is stateless
// apart from its read-only policy, so concurrent Analyze calls are safe.
type SecurityGuard struct {
	policy     *Policy
	oracle     ClassifierOracle
	logger     *zap.Logger
	blacklist  map[string]struct{}
	suspicious map[string]struct{}
}

// NewSecurityGuard creates a guard from a policy and an optional oracle.
// A nil policy selects the built-in default; a nil oracle disables the
// secondary consultation stage.
func NewSecurityGuard(policy *Policy, oracle ClassifierOracle, logger *zap.Logger) *SecurityGuard {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &SecurityGuard{
		policy:     policy,
		oracle:     oracle,
		logger:     logger,
		blacklist:  domainSet(policy.BlacklistedDomains),
		suspicious: domainSet(policy.SuspiciousDomains),
	}
}

func domainSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		set[strings.ToLower(strings.TrimSpace(domain))] = struct{}{}
	}
	return set
}

// Analyze runs the full pipeline: blacklist check, pattern and URL scoring,
// cap policy, optional oracle consultation and threshold classification.
// It never returns an error: any internal failure degrades to a safe LOW
// verdict carrying the failure text.
func (g *SecurityGuard) Analyze(ctx context.Context, sig *ThreatSignal) (verdict *SecurityVerdict) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Security analysis failed, assuming safe",
				zap.Any("panic", r),
				zap.String("sender", sig.Sender))
			verdict = &SecurityVerdict{
				IsSafe:      true,
				ThreatLevel: ThreatLevelLow,
				Message:     fmt.Sprintf("Analysis error (%v), treating as safe", r),
			}
		}
	}()

	if v := g.fastCheck(sig.Sender); v != nil {
		g.logger.Info("Blacklisted sender short-circuited analysis",
			zap.String("sender", sig.Sender))
		return v
	}

	if strings.TrimSpace(sig.Content) == "" && strings.TrimSpace(sig.Subject) == "" {
		return &SecurityVerdict{
			IsSafe:      true,
			ThreatLevel: ThreatLevelLow,
			Message:     "No content to analyze",
		}
	}

	// The sender address is deliberately left out of the scored text so a
	// plain signature line never fires keyword rules. NFKC folds fullwidth
	// and ligature lookalikes back into the characters the rules match.
	combined := sig.Subject + " " + sig.Content
	if !norm.NFKC.IsNormalString(combined) {
		combined = norm.NFKC.String(combined)
	}
	combined = strings.ToLower(combined)

	score, found := g.scorePatterns(combined)

	urlScore, urlMarkers := g.inspectURLs(combined)
	score += urlScore
	found = append(found, urlMarkers...)

	if g.replyToMismatch(sig.Sender, sig.ReplyTo) {
		score += replyToMismatchScore
		found = append(found, "reply_to_mismatch")
	}

	// Cap decision runs after URL scoring, then the domain bonus, then the
	// oracle. The order is load-bearing: link signals may already have
	// pushed the score past the cap before the decision is made.
	suspiciousSender := g.isSuspiciousSender(sig.Sender)
	if score > keywordScoreCap && !suspiciousSender && !g.hasRiskIndicator(combined) {
		g.logger.Debug("Capping keyword-only score",
			zap.Float64("raw_score", score),
			zap.String("sender", sig.Sender))
		score = keywordScoreCap
	}
	if suspiciousSender {
		score += suspiciousDomainBonus
	}

	score = g.consultOracle(ctx, sig, score)

	return g.classify(score, found)
}

// scorePatterns applies the weighted rule table to the combined text. Each
// rule contributes weight*matches to the score and its label once to the
// marker list.
func (g *SecurityGuard) scorePatterns(text string) (float64, []string) {
	var score float64
	var found []string

	for _, rule := range g.policy.Rules {
		matches := len(rule.Regex.FindAllStringIndex(text, -1))
		if matches == 0 {
			continue
		}
		score += rule.Weight * float64(matches)
		found = append(found, rule.Label)
	}

	return score, found
}

// replyToMismatch reports whether a Reply-To header points at a different
// address in a different domain than the sender.
func (g *SecurityGuard) replyToMismatch(sender, replyTo string) bool {
	if replyTo == "" || strings.EqualFold(replyTo, sender) {
		return false
	}
	senderDom := senderDomain(sender)
	replyDom := senderDomain(replyTo)
	return replyDom != "" && replyDom != senderDom
}

// hasRiskIndicator reports whether the combined text carries any signal
// that justifies keeping the raw, uncapped keyword score.
func (g *SecurityGuard) hasRiskIndicator(text string) bool {
	if g.policy.URLPattern.MatchString(text) {
		return true
	}
	for _, hint := range g.policy.PasswordHints {
		if strings.Contains(text, hint) {
			return true
		}
	}
	if g.policy.BrandVerifyPattern.MatchString(text) {
		return true
	}
	// Looser variant so "verify your account" can reach MEDIUM without a
	// brand name.
	return g.policy.VerifyAccountPattern.MatchString(text)
}

// consultOracle asks the secondary classifier for borderline scores and
// adjusts the score asymmetrically. Oracle failures are swallowed and the
// pattern-based score stands.
func (g *SecurityGuard) consultOracle(ctx context.Context, sig *ThreatSignal, score float64) float64 {
	if g.oracle == nil || score < mediumScoreThreshold || score >= highScoreThreshold {
		return score
	}

	reply, err := g.oracle.Judge(ctx, sig.Subject, sig.Sender, oracleExcerpt(sig.Content))
	if err != nil {
		g.logger.Warn("Classifier oracle unavailable, keeping pattern score",
			zap.Error(err),
			zap.Float64("score", score))
		return score
	}

	normalized := strings.ToLower(reply)
	switch {
	case strings.Contains(normalized, "danger"):
		g.logger.Info("Oracle confirmed danger", zap.Float64("pre_oracle_score", score))
		score += oracleDangerBoost
	case strings.Contains(normalized, "safe") && score < oracleSafeCeiling:
		score -= oracleSafeRelief
		if score < 0 {
			score = 0
		}
	}

	return score
}

// oracleExcerpt bounds the content sent to the oracle, keeping the cut on a
// UTF-8 boundary.
func oracleExcerpt(content string) string {
	if len(content) <= maxOracleExcerpt {
		return content
	}
	excerpt := content[:maxOracleExcerpt]
	for !utf8.ValidString(excerpt) && len(excerpt) > 0 {
		excerpt = excerpt[:len(excerpt)-1]
	}
	return excerpt
}

// classify maps the final score onto a verdict.
func (g *SecurityGuard) classify(score float64, found []string) *SecurityVerdict {
	if len(found) > maxFoundPatterns {
		found = found[:maxFoundPatterns]
	}

	verdict := &SecurityVerdict{
		SuspiciousScore: score,
		FoundPatterns:   found,
	}

	switch {
	case score >= highScoreThreshold:
		verdict.ThreatLevel = ThreatLevelHigh
		verdict.Category = CategoryDanger
		verdict.RecommendedAction = ActionArchive
		verdict.Message = fmt.Sprintf("High threat detected (score %.1f)", score)
	case score >= mediumScoreThreshold:
		verdict.ThreatLevel = ThreatLevelMedium
		verdict.Category = CategorySpam
		verdict.RecommendedAction = ActionArchive
		verdict.Message = fmt.Sprintf("Suspicious content detected (score %.1f)", score)
	default:
		verdict.ThreatLevel = ThreatLevelLow
		verdict.IsSafe = true
		if score == 0 {
			verdict.Message = "No threats detected"
		} else {
			verdict.Message = fmt.Sprintf("Low risk content (score %.1f)", score)
		}
	}

	return verdict
}
