package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/mail"
	"os"

	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/adapters/filter"
	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/di"
	"github.com/olehk/security-guard/internal/ports"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run reads a single email, analyzes it and prints the verdict
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	oracle core.ClassifierOracle,
) error {
	defer logger.Sync()

	signal, err := readEmail(flags, logger)
	if err != nil {
		return err
	}

	verdict, err := emailFilter.ProcessEmail(context.Background(), signal)
	if err != nil {
		logger.Error("Failed to analyze email", zap.Error(err))
		return err
	}

	if closer, ok := oracle.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close oracle client", zap.Error(err))
		}
	}

	// Non-zero exit for anything above LOW so shell pipelines can branch
	if verdict.ThreatLevel != core.ThreatLevelLow {
		os.Exit(2)
	}

	return nil
}

// readEmail parses an email from the input file or stdin into a threat signal
func readEmail(flags *di.CLIFlags, logger *zap.Logger) (*core.ThreatSignal, error) {
	var emailReader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file %s: %w", flags.InputFile, err)
		}
		defer file.Close()
		emailReader = file
		logger.Debug("Reading email from file", zap.String("file", flags.InputFile))
	} else {
		emailReader = os.Stdin
		logger.Debug("Reading email from stdin")
	}

	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	body, err := filter.ExtractText(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract email body: %w", err)
	}

	return &core.ThreatSignal{
		Content: body,
		Subject: msg.Header.Get("Subject"),
		Sender:  msg.Header.Get("From"),
		ReplyTo: msg.Header.Get("Reply-To"),
	}, nil
}
