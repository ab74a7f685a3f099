package core

import (
	"regexp"
)

// ScoreRule is one weighted pattern in the scoring policy. The weight
// multiplies the number of non-overlapping matches in the analyzed text.
type ScoreRule struct {
	Label  string
	Regex  *regexp.Regexp
	Weight float64
}

// Policy is the data-driven scoring configuration: the weighted rule table
// plus every domain and keyword list the guard consults. Keeping it as a
// value lets the policy be tuned and tested apart from the engine.
type Policy struct {
	Version string

	// Weighted patterns applied to the lowercased subject+content text.
	Rules []ScoreRule

	// URLPattern locates link-looking substrings for URL inspection and
	// for the cap-bypass link indicator.
	URLPattern *regexp.Regexp

	// BrandVerifyPattern and VerifyAccountPattern are the phrase
	// combinations that bypass the keyword-score cap.
	BrandVerifyPattern   *regexp.Regexp
	VerifyAccountPattern *regexp.Regexp

	// PasswordHints bypass the cap when present in the analyzed text.
	// The list mixes English and Ukrainian, matching the mailboxes this
	// policy was tuned on.
	PasswordHints []string

	// BlacklistedDomains short-circuit analysis with a HIGH verdict.
	BlacklistedDomains []string

	// SuspiciousDomains bypass the cap and add a flat score bonus.
	SuspiciousDomains []string

	// URL inspection lists.
	ShortenerDomains []string
	HostKeywords     []string
	BrandNames       []string
}

// Rule labels reported in found_patterns.
const (
	RuleURL               = "url"
	RuleUrgencyAction     = "urgency_action"
	RuleBrandVerification = "brand_verification"
	RuleBrandMention      = "brand_mention"
	RuleActionKeyword     = "action_keyword"
	RuleMalwareKeyword    = "malware_keyword"
)

const urlPatternSrc = `(?:https?://|www\.)[^\s<>"']+`

// DefaultPolicy returns the built-in scoring policy. Patterns are compiled
// once here; the engine treats the returned value as read-only.
func DefaultPolicy() *Policy {
	return &Policy{
		Version: "2024-02",
		Rules: []ScoreRule{
			{
				Label:  RuleURL,
				Regex:  regexp.MustCompile(urlPatternSrc),
				Weight: 1.0,
			},
			{
				// Urgency phrase followed by an action request within
				// the same sentence-ish window.
				Label:  RuleUrgencyAction,
				Regex:  regexp.MustCompile(`(?:urgent|verify|suspended|expired)[^.!?\n]{0,100}?(?:click|update|confirm|login)`),
				Weight: 2.0,
			},
			{
				// Brand name near a verification keyword. The primary
				// phishing signal.
				Label:  RuleBrandVerification,
				Regex:  regexp.MustCompile(`(?:paypal|bank|amazon|microsoft|apple)[^.!?\n]{0,80}?(?:verification|verify|update|login|click)`),
				Weight: 3.0,
			},
			{
				Label:  RuleBrandMention,
				Regex:  regexp.MustCompile(`\b(?:paypal|bank|amazon|microsoft|apple)\b`),
				Weight: 0.5,
			},
			{
				Label:  RuleActionKeyword,
				Regex:  regexp.MustCompile(`\b(?:verification|verify|update|click|login|account|required)\b`),
				Weight: 1.0,
			},
			{
				Label:  RuleMalwareKeyword,
				Regex:  regexp.MustCompile(`\b(?:phishing|spam|malware|virus|trojan)\b`),
				Weight: 5.0,
			},
		},
		URLPattern:           regexp.MustCompile(urlPatternSrc),
		BrandVerifyPattern:   regexp.MustCompile(`(?:paypal|bank|amazon|microsoft|apple)[^.!?\n]{0,80}?(?:verification|verify|update)`),
		VerifyAccountPattern: regexp.MustCompile(`(?:verify|verification)[^.!?\n]{0,80}?(?:account|update|required)`),
		PasswordHints: []string{
			"password",
			"пароль",
			"введіть пароль",
		},
		BlacklistedDomains: []string{
			"tempmail.com",
			"10minutemail.com",
			"guerrillamail.com",
			"mailinator.com",
			"throwawaymail.com",
			"fakeinbox.com",
			"secure-paypal-login.com",
			"account-verify-center.com",
		},
		SuspiciousDomains: []string{
			"tempmail.com",
			"10minutemail.com",
			"guerrillamail.com",
			"mailinator.com",
		},
		ShortenerDomains: []string{
			"bit.ly",
			"tinyurl.com",
			"t.co",
			"goo.gl",
			"ow.ly",
		},
		HostKeywords: []string{
			"suspicious",
			"fake",
			"phishing",
			"malware",
			"virus",
		},
		BrandNames: []string{
			"paypal",
			"bank",
			"amazon",
			"microsoft",
			"apple",
			"google",
		},
	}
}
