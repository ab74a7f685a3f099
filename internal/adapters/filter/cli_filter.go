package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/triage"
)

// CliFilter analyzes a single email from the command line and prints the
// verdict to stdout.
type CliFilter struct {
	service *triage.Service
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *triage.Service, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail analyzes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, signal *core.ThreatSignal) (*core.SecurityVerdict, error) {
	f.logger.Debug("Processing email", zap.String("sender", signal.Sender))

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", signal.Sender)
	if signal.ReplyTo != "" {
		fmt.Printf("Reply-To: %s\n", signal.ReplyTo)
	}
	fmt.Printf("Subject: %s\n", signal.Subject)
	fmt.Printf("Body length: %d bytes\n", len(signal.Content))

	if f.verbose {
		preview := signal.Content
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n=== Analysis ===\n")
	startTime := time.Now()
	verdict := f.service.Triage(ctx, signal)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Safe: %t\n", verdict.IsSafe)
	fmt.Printf("Threat level: %s\n", verdict.ThreatLevel)
	fmt.Printf("Score: %.2f\n", verdict.SuspiciousScore)
	if verdict.Category != "" {
		fmt.Printf("Category: %s\n", verdict.Category)
		fmt.Printf("Recommended action: %s\n", verdict.RecommendedAction)
	}
	if len(verdict.FoundPatterns) > 0 {
		fmt.Printf("Found patterns: %s\n", strings.Join(verdict.FoundPatterns, ", "))
	}
	fmt.Printf("Message: %s\n", verdict.Message)
	fmt.Printf("Processing time: %v\n", duration)

	return verdict, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start(ctx context.Context) error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
