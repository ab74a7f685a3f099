package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/olehk/security-guard/internal/utils"
)

// OracleClient is a ClassifierOracle implementation backed by Google Gemini
type OracleClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewOracleClient creates a new Gemini oracle client
func NewOracleClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*OracleClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &OracleClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `You are an email security analyst. Decide whether the email below is dangerous (phishing, credential theft, malware) or safe.
Reply with exactly one word: SAFE or DANGER.

Subject: %s
From: %s
Body:
%s`,
	}, nil
}

// Close closes the Gemini client
func (c *OracleClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Judge asks Gemini for a single-word SAFE/DANGER verdict on the excerpt
func (c *OracleClient) Judge(ctx context.Context, subject, sender, excerpt string) (string, error) {
	excerpt = c.textProcessor.ProcessText(excerpt, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, subject, sender, excerpt)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	reply := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	c.logger.Debug("Gemini verdict received",
		zap.String("model", c.modelName),
		zap.String("reply", reply))

	return reply, nil
}
