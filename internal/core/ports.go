package core

import (
	"context"
)

// ClassifierOracle is the secondary LLM signal consulted for borderline
// scores. The reply is free text expected to contain SAFE or DANGER.
type ClassifierOracle interface {
	// Judge classifies an email excerpt, returning the raw model reply
	Judge(ctx context.Context, subject, sender, excerpt string) (string, error)
}

// CacheRepository stores per-sender reputation entries.
type CacheRepository interface {
	// Get retrieves a cached entry for a sender
	Get(ctx context.Context, senderEmail string) (*CacheEntry, bool)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, senderEmail string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// AuditLog records triage outcomes for later review.
type AuditLog interface {
	// Record appends one audit entry
	Record(ctx context.Context, entry *AuditEntry) error

	// Close releases any underlying resources
	Close() error
}
