package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/adapters/bedrock"
	"github.com/olehk/security-guard/internal/adapters/gemini"
	"github.com/olehk/security-guard/internal/adapters/openai"
	"github.com/olehk/security-guard/internal/config"
	"github.com/olehk/security-guard/internal/core"
	"github.com/olehk/security-guard/internal/utils"
)

// OracleFactory creates classifier oracle clients
type OracleFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOracleFactory creates a new oracle factory
func NewOracleFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *OracleFactory {
	return &OracleFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateOracle creates a classifier oracle based on the configuration.
// Provider "none" returns a nil oracle; the guard then scores on patterns
// alone.
func (f *OracleFactory) CreateOracle() (core.ClassifierOracle, error) {
	llmConfig := f.cfg.GetLLM()

	switch llmConfig.Provider {
	case "none", "":
		f.logger.Info("No oracle configured, running pattern-only analysis")
		return nil, nil
	case "gemini":
		c := f.cfg.GetGemini()
		return gemini.NewOracleClient(
			c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxBodySize, f.logger, f.textProcessor)
	case "openai":
		c := f.cfg.GetOpenAI()
		return openai.NewOracleClient(
			c.APIKey, c.ModelName, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxBodySize, f.logger, f.textProcessor), nil
	case "bedrock":
		c := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(c.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return bedrock.NewOracleClient(
			client, c.ModelID, c.MaxTokens, c.Temperature, c.TopP,
			c.MaxBodySize, f.logger, f.textProcessor), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}
