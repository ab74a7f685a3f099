package ports

import (
	"context"

	"github.com/olehk/security-guard/internal/core"
)

// EmailFilter defines the interface for email filtering front-ends
type EmailFilter interface {
	// ProcessEmail analyzes a single email and returns a verdict
	ProcessEmail(ctx context.Context, signal *core.ThreatSignal) (*core.SecurityVerdict, error)

	// Start starts the filter, blocking until it stops or fails
	Start(ctx context.Context) error

	// Stop stops the filter
	Stop() error
}
