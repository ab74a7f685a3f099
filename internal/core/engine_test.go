package core

import (
	"context"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type stubOracle struct {
	reply string
	err   error
	calls int
}

func (o *stubOracle) Judge(ctx context.Context, subject, sender, excerpt string) (string, error) {
	o.calls++
	return o.reply, o.err
}

func newTestGuard(oracle ClassifierOracle) *SecurityGuard {
	return NewSecurityGuard(nil, oracle, zap.NewNop())
}

// bandPolicy yields a pre-oracle score of exactly 7.0 for bandEmail: the
// marker rule contributes 6.0 and the URL rule 1.0, and the URL bypasses
// the keyword cap.
func bandPolicy() *Policy {
	policy := DefaultPolicy()
	policy.Rules = []ScoreRule{
		{Label: RuleURL, Regex: regexp.MustCompile(`(?:https?://|www\.)[^\s<>"']+`), Weight: 1.0},
		{Label: "marker", Regex: regexp.MustCompile(`xyzzy`), Weight: 6.0},
	}
	return policy
}

const bandEmail = "xyzzy please see http://example.org/report"

func TestEmptyContentIsSafe(t *testing.T) {
	guard := newTestGuard(nil)

	verdict := guard.Analyze(context.Background(), &ThreatSignal{})

	if !verdict.IsSafe {
		t.Error("expected empty email to be safe")
	}
	if verdict.ThreatLevel != ThreatLevelLow {
		t.Errorf("expected LOW, got %s", verdict.ThreatLevel)
	}
	if verdict.SuspiciousScore != 0 {
		t.Errorf("expected score 0, got %.2f", verdict.SuspiciousScore)
	}
}

func TestBlacklistShortCircuit(t *testing.T) {
	oracle := &stubOracle{reply: "SAFE"}
	guard := newTestGuard(oracle)

	for _, sender := range []string{"x@tempmail.com", "anyone@mailinator.com", "X@TempMail.com "} {
		t.Run(sender, func(t *testing.T) {
			verdict := guard.Analyze(context.Background(), &ThreatSignal{
				Sender:  sender,
				Subject: "Lunch",
				Content: "Perfectly harmless text",
			})

			if verdict.ThreatLevel != ThreatLevelHigh {
				t.Errorf("expected HIGH, got %s", verdict.ThreatLevel)
			}
			if verdict.Category != CategoryDanger {
				t.Errorf("expected DANGER, got %q", verdict.Category)
			}
			if verdict.SuspiciousScore != 10 {
				t.Errorf("expected score 10, got %.2f", verdict.SuspiciousScore)
			}
			if verdict.RecommendedAction != ActionArchive {
				t.Errorf("expected ARCHIVE, got %q", verdict.RecommendedAction)
			}
			if len(verdict.FoundPatterns) != 1 || !strings.HasPrefix(verdict.FoundPatterns[0], "blacklisted_domain:") {
				t.Errorf("unexpected patterns %v", verdict.FoundPatterns)
			}
		})
	}

	if oracle.calls != 0 {
		t.Errorf("oracle consulted %d times for blacklisted senders", oracle.calls)
	}
}

func TestCapSuppressesKeywordOnlyScores(t *testing.T) {
	guard := newTestGuard(nil)

	tests := []struct {
		name    string
		content string
	}{
		{"bare brand mention", "I love Apple products"},
		{"keyword pile without link", "click the login link in your account settings, login details required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := guard.Analyze(context.Background(), &ThreatSignal{
				Content: tt.content,
				Sender:  "me@example.com",
			})
			if verdict.SuspiciousScore > 3 {
				t.Errorf("expected capped score <= 3, got %.2f", verdict.SuspiciousScore)
			}
			if verdict.ThreatLevel != ThreatLevelLow {
				t.Errorf("expected LOW, got %s", verdict.ThreatLevel)
			}
		})
	}
}

func TestBrandVerificationReachesMedium(t *testing.T) {
	guard := newTestGuard(nil)

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: "Your PayPal account needs verification. Click to update.",
		Subject: "PayPal Verification Required",
		Sender:  "paypal@fake-paypal.com",
	})

	if verdict.SuspiciousScore < 5 {
		t.Errorf("expected score >= 5, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel == ThreatLevelLow {
		t.Error("expected MEDIUM or HIGH threat level")
	}
	if verdict.IsSafe {
		t.Error("verdict should not be safe")
	}
}

func TestFullwidthTextScoresLikeASCII(t *testing.T) {
	guard := newTestGuard(nil)

	plain := guard.Analyze(context.Background(), &ThreatSignal{
		Subject: "PayPal verification",
		Content: "Your PayPal account needs verification, password required",
		Sender:  "someone@example.com",
	})
	folded := guard.Analyze(context.Background(), &ThreatSignal{
		Subject: "ＰａｙＰａｌ ｖｅｒｉｆｉｃａｔｉｏｎ",
		Content: "Ｙｏｕｒ ＰａｙＰａｌ ａｃｃｏｕｎｔ ｎｅｅｄｓ ｖｅｒｉｆｉｃａｔｉｏｎ, ｐａｓｓｗｏｒｄ ｒｅｑｕｉｒｅｄ",
		Sender:  "someone@example.com",
	})

	if folded.ThreatLevel == ThreatLevelLow {
		t.Fatalf("fullwidth text evaded scoring: %+v", folded)
	}
	if !reflect.DeepEqual(plain, folded) {
		t.Errorf("fullwidth verdict differs from plain: %+v vs %+v", plain, folded)
	}
}

func TestHighThreatCombination(t *testing.T) {
	guard := newTestGuard(nil)

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Subject: "PayPal security verification",
		Content: "URGENT action required: verify your PayPal account now, click http://192.168.10.5/login to update your password",
		Sender:  "noreply@fake-paypal-alerts.com",
	})

	if verdict.SuspiciousScore < 10 {
		t.Errorf("expected score >= 10, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelHigh {
		t.Errorf("expected HIGH, got %s", verdict.ThreatLevel)
	}
	if verdict.Category != CategoryDanger {
		t.Errorf("expected DANGER, got %q", verdict.Category)
	}
	if verdict.RecommendedAction != ActionArchive {
		t.Errorf("expected ARCHIVE, got %q", verdict.RecommendedAction)
	}
}

func TestFoundPatternsTruncatedToFive(t *testing.T) {
	guard := newTestGuard(nil)

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Subject: "urgent virus warning",
		Content: "verify your paypal account, click http://bit.ly/x to update login details required",
		Sender:  "alerts@alpha.com",
		ReplyTo: "other@beta.com",
	})

	if len(verdict.FoundPatterns) != 5 {
		t.Errorf("expected exactly 5 markers, got %d: %v",
			len(verdict.FoundPatterns), verdict.FoundPatterns)
	}
}

func TestReplyToMismatchAloneStaysLow(t *testing.T) {
	guard := newTestGuard(nil)

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: "See you tomorrow at the meeting",
		Sender:  "alice@alpha.com",
		ReplyTo: "alice@beta.com",
	})

	if verdict.SuspiciousScore != replyToMismatchScore {
		t.Errorf("expected score %.1f, got %.2f", replyToMismatchScore, verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelLow {
		t.Errorf("expected LOW, got %s", verdict.ThreatLevel)
	}
	if len(verdict.FoundPatterns) != 1 || verdict.FoundPatterns[0] != "reply_to_mismatch" {
		t.Errorf("unexpected patterns %v", verdict.FoundPatterns)
	}
}

func TestReplyToSameDomainIgnored(t *testing.T) {
	guard := newTestGuard(nil)

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: "See you tomorrow at the meeting",
		Sender:  "alice@alpha.com",
		ReplyTo: "team@alpha.com",
	})

	if verdict.SuspiciousScore != 0 {
		t.Errorf("expected score 0, got %.2f", verdict.SuspiciousScore)
	}
}

func TestSuspiciousDomainBonusAndCapBypass(t *testing.T) {
	policy := DefaultPolicy()
	policy.BlacklistedDomains = nil
	guard := NewSecurityGuard(policy, nil, zap.NewNop())

	sig := &ThreatSignal{
		Content: "urgent meeting notes update",
		Sender:  "x@tempmail.com",
	}
	verdict := guard.Analyze(context.Background(), sig)
	if verdict.SuspiciousScore != 5 {
		t.Errorf("expected score 5 with domain bonus, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelMedium {
		t.Errorf("expected MEDIUM, got %s", verdict.ThreatLevel)
	}

	sig.Sender = "x@example.com"
	verdict = guard.Analyze(context.Background(), sig)
	if verdict.SuspiciousScore != 3 {
		t.Errorf("expected score 3 for normal sender, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelLow {
		t.Errorf("expected LOW, got %s", verdict.ThreatLevel)
	}
}

func TestDeterminismWithoutOracle(t *testing.T) {
	guard := newTestGuard(nil)
	sig := &ThreatSignal{
		Subject: "PayPal Verification Required",
		Content: "Your PayPal account needs verification. Click http://bit.ly/x to update.",
		Sender:  "paypal@fake-paypal.com",
		ReplyTo: "support@elsewhere.net",
	}

	first := guard.Analyze(context.Background(), sig)
	for i := 0; i < 3; i++ {
		next := guard.Analyze(context.Background(), sig)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("verdicts differ between calls: %+v vs %+v", first, next)
		}
	}
}

func TestOracleDangerBoostsToHigh(t *testing.T) {
	oracle := &stubOracle{reply: "DANGER"}
	guard := NewSecurityGuard(bandPolicy(), oracle, zap.NewNop())

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: bandEmail,
		Sender:  "someone@example.com",
	})

	if oracle.calls != 1 {
		t.Fatalf("expected one oracle call, got %d", oracle.calls)
	}
	if verdict.SuspiciousScore < 10 {
		t.Errorf("expected score >= 10, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelHigh || verdict.Category != CategoryDanger {
		t.Errorf("expected HIGH/DANGER, got %s/%q", verdict.ThreatLevel, verdict.Category)
	}
}

func TestOracleSafeDowngradesToLow(t *testing.T) {
	oracle := &stubOracle{reply: "I believe this is SAFE."}
	guard := NewSecurityGuard(bandPolicy(), oracle, zap.NewNop())

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: bandEmail,
		Sender:  "someone@example.com",
	})

	if verdict.SuspiciousScore != 4 {
		t.Errorf("expected score 4 after SAFE relief, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelLow {
		t.Errorf("expected LOW, got %s", verdict.ThreatLevel)
	}
	if !verdict.IsSafe {
		t.Error("expected safe verdict")
	}
}

func TestOracleErrorKeepsPatternScore(t *testing.T) {
	oracle := &stubOracle{err: errors.New("rate limited")}
	guard := NewSecurityGuard(bandPolicy(), oracle, zap.NewNop())

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: bandEmail,
		Sender:  "someone@example.com",
	})

	if verdict.SuspiciousScore != 7 {
		t.Errorf("expected untouched score 7, got %.2f", verdict.SuspiciousScore)
	}
	if verdict.ThreatLevel != ThreatLevelMedium {
		t.Errorf("expected MEDIUM, got %s", verdict.ThreatLevel)
	}
}

func TestOracleSkippedOutsideBand(t *testing.T) {
	oracle := &stubOracle{reply: "SAFE"}
	guard := newTestGuard(oracle)

	// Well above the band: the oracle must not get a chance to downgrade.
	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Subject: "PayPal security verification",
		Content: "URGENT action required: verify your PayPal account now, click http://192.168.10.5/login to update your password",
		Sender:  "noreply@fake-paypal-alerts.com",
	})
	if verdict.ThreatLevel != ThreatLevelHigh {
		t.Fatalf("expected HIGH, got %s", verdict.ThreatLevel)
	}

	// Well below the band: not worth the call.
	guard.Analyze(context.Background(), &ThreatSignal{
		Content: "See you tomorrow",
		Sender:  "alice@alpha.com",
	})

	if oracle.calls != 0 {
		t.Errorf("oracle consulted %d times outside the MEDIUM band", oracle.calls)
	}
}

func TestFailOpenOnInternalError(t *testing.T) {
	policy := DefaultPolicy()
	policy.Rules = append(policy.Rules, ScoreRule{Label: "broken", Weight: 1.0})
	guard := NewSecurityGuard(policy, nil, zap.NewNop())

	verdict := guard.Analyze(context.Background(), &ThreatSignal{
		Content: "anything at all",
		Sender:  "someone@example.com",
	})

	if !verdict.IsSafe {
		t.Error("expected fail-open safe verdict")
	}
	if verdict.ThreatLevel != ThreatLevelLow {
		t.Errorf("expected LOW, got %s", verdict.ThreatLevel)
	}
	if !strings.Contains(verdict.Message, "Analysis error") {
		t.Errorf("expected failure message, got %q", verdict.Message)
	}
}

func TestClassificationShapes(t *testing.T) {
	tests := []struct {
		level     ThreatLevel
		category  string
		label     string
		action    string
	}{
		{ThreatLevelHigh, CategoryDanger, "Security/Danger", ActionArchive},
		{ThreatLevelMedium, CategorySpam, "Security/Spam", ActionArchive},
		{ThreatLevelLow, "", "", ""},
	}

	for _, tt := range tests {
		v := &SecurityVerdict{ThreatLevel: tt.level, Message: "m"}
		c := v.Classification()
		if c.Category != tt.category || c.LabelName != tt.label || c.Action != tt.action {
			t.Errorf("level %s: got %+v", tt.level, c)
		}
	}
}
