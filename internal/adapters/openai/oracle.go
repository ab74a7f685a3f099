package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/olehk/security-guard/internal/utils"
)

// OracleClient is a ClassifierOracle implementation backed by OpenAI
type OracleClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewOracleClient creates a new OpenAI oracle client
func NewOracleClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OracleClient {
	return &OracleClient{
		client:        openai.NewClient(apiKey),
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Decide whether the email below is dangerous (phishing, credential theft, malware) or safe.
Reply with exactly one word: SAFE or DANGER.

Subject: %s
From: %s
Body:
%s`,
	}
}

// Judge asks OpenAI for a single-word SAFE/DANGER verdict on the excerpt
func (c *OracleClient) Judge(ctx context.Context, subject, sender, excerpt string) (string, error) {
	excerpt = c.textProcessor.ProcessText(excerpt, c.maxBodySize)
	prompt := fmt.Sprintf(c.promptFormat, subject, sender, excerpt)

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an email security analyst. Respond with exactly one word: SAFE or DANGER.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI")
	}

	reply := resp.Choices[0].Message.Content
	c.logger.Debug("OpenAI verdict received",
		zap.String("model", c.modelName),
		zap.String("processing_id", resp.ID),
		zap.String("reply", reply))

	return reply, nil
}
