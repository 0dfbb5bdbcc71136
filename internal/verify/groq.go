package verify

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/truth-market/internal/config"
	"github.com/truth-market/internal/logging"
	"github.com/truth-market/internal/models"
	"github.com/truth-market/internal/types"
)

const promptTemplate = `Analyze this claim and respond with either TRUE or FALSE followed by a brief explanation.

Claim: %q

Format your response exactly like this:
TRUE - [your explanation]
OR
FALSE - [your explanation]`

// defaultConfidence is used when a definite verdict carries no explicit
// percentage in the reply.
const defaultConfidence = 85

var confidencePattern = regexp.MustCompile(`(\d{1,3})%`)

// GroqVerifier verifies claims through Groq's OpenAI-compatible chat
// completion API.
type GroqVerifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewGroqVerifier creates a verifier backed by the Groq API
func NewGroqVerifier(cfg config.VerifyConfig) *GroqVerifier {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &GroqVerifier{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

// Verify sends the claim to the chat completion endpoint and parses the
// textual reply into a verdict.
func (g *GroqVerifier) Verify(ctx context.Context, claim string) (*models.Verification, error) {
	logger := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(promptTemplate, claim),
			},
		},
		MaxTokens:   256,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no content in AI response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	verdict, confidence := parseReply(content)

	logger.WithFields(map[string]interface{}{
		"verdict":    verdict,
		"confidence": confidence,
		"model":      g.model,
	}).Info("AI verification completed")

	return &models.Verification{
		Verdict:    verdict,
		Confidence: confidence,
		Reasoning:  content,
		Verifier:   fmt.Sprintf("GROQ AI (%s)", g.model),
		Timestamp:  time.Now().UTC(),
	}, nil
}

// parseReply classifies the reply by keyword presence. Both keywords present
// or both absent means the model hedged; that resolves to UNCERTAIN.
func parseReply(content string) (types.Verdict, int) {
	upper := strings.ToUpper(content)
	hasTrue := strings.Contains(upper, "TRUE")
	hasFalse := strings.Contains(upper, "FALSE")

	switch {
	case hasTrue && !hasFalse:
		return types.VerdictTrue, extractConfidence(content)
	case hasFalse && !hasTrue:
		return types.VerdictFalse, extractConfidence(content)
	default:
		return types.VerdictUncertain, 50
	}
}

func extractConfidence(content string) int {
	match := confidencePattern.FindStringSubmatch(content)
	if match == nil {
		return defaultConfidence
	}

	value, err := strconv.Atoi(match[1])
	if err != nil || value > 100 {
		return defaultConfidence
	}
	return value
}
