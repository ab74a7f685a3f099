package core

import (
	"fmt"
	"strings"
)

// senderDomain extracts the lowercased, trimmed domain after the last "@".
// Returns "" for empty or malformed addresses.
func senderDomain(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(sender[at+1:]))
}

// fastCheck is the O(1) blacklist lookup performed before any text analysis.
// It exists to keep obviously-bad senders away from the classifier oracle.
// Returns nil when the sender does not match, letting the pipeline continue.
func (g *SecurityGuard) fastCheck(sender string) *SecurityVerdict {
	domain := senderDomain(sender)
	if domain == "" {
		return nil
	}
	if _, ok := g.blacklist[domain]; !ok {
		return nil
	}
	return &SecurityVerdict{
		IsSafe:            false,
		ThreatLevel:       ThreatLevelHigh,
		SuspiciousScore:   highScoreThreshold,
		FoundPatterns:     []string{"blacklisted_domain:" + domain},
		Category:          CategoryDanger,
		RecommendedAction: ActionArchive,
		Message:           fmt.Sprintf("Sender domain %q is blacklisted", domain),
	}
}

// isSuspiciousSender reports whether the sender domain is on the
// suspicious-domain list used by the capping policy.
func (g *SecurityGuard) isSuspiciousSender(sender string) bool {
	domain := senderDomain(sender)
	if domain == "" {
		return false
	}
	_, ok := g.suspicious[domain]
	return ok
}
