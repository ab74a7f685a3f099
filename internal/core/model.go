package core

import (
	"time"
)

// ThreatLevel is the ordinal classification of an analyzed email.
type ThreatLevel string

const (
	ThreatLevelLow    ThreatLevel = "LOW"
	ThreatLevelMedium ThreatLevel = "MEDIUM"
	ThreatLevelHigh   ThreatLevel = "HIGH"
)

// Categories and actions attached to non-LOW verdicts.
const (
	CategoryDanger = "DANGER"
	CategorySpam   = "SPAM"
	ActionArchive  = "ARCHIVE"
)

// ThreatSignal carries the email fields available at classification time.
// It is built transiently by the caller and discarded after analysis.
type ThreatSignal struct {
	Content string
	Subject string
	Sender  string
	ReplyTo string
}

// SecurityVerdict is the result of a threat analysis.
type SecurityVerdict struct {
	IsSafe            bool
	ThreatLevel       ThreatLevel
	SuspiciousScore   float64
	FoundPatterns     []string
	Category          string
	RecommendedAction string
	Message           string
}

// Classification is the explicit shape consumed by downstream mailbox
// automation (labeling, archiving). Every field has a fixed type so the
// consumer never has to probe a loosely-typed map.
type Classification struct {
	Category          string
	LabelName         string
	Action            string
	Urgency           string
	Description       string
	ExtractedEntities []string
}

// Classification derives the mailbox-automation view of a verdict.
func (v *SecurityVerdict) Classification() Classification {
	switch v.ThreatLevel {
	case ThreatLevelHigh:
		return Classification{
			Category:          CategoryDanger,
			LabelName:         "Security/Danger",
			Action:            ActionArchive,
			Urgency:           "high",
			Description:       v.Message,
			ExtractedEntities: v.FoundPatterns,
		}
	case ThreatLevelMedium:
		return Classification{
			Category:          CategorySpam,
			LabelName:         "Security/Spam",
			Action:            ActionArchive,
			Urgency:           "normal",
			Description:       v.Message,
			ExtractedEntities: v.FoundPatterns,
		}
	default:
		return Classification{
			Urgency:     "none",
			Description: v.Message,
		}
	}
}

// CacheEntry is a per-sender reputation record kept by the cache adapters.
type CacheEntry struct {
	SenderEmail string
	ThreatLevel ThreatLevel
	Score       float32
	LastSeen    time.Time
	ExpiresAt   time.Time
}

// AuditEntry is one row of the triage audit trail.
type AuditEntry struct {
	Sender      string
	Subject     string
	ThreatLevel ThreatLevel
	Score       float64
	Category    string
	Action      string
	Patterns    []string
	Message     string
	RecordedAt  time.Time
}
