package openai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const rerankPrompt = `Rate how relevant the passage is to the query on a scale from 0.0 to 1.0.
Reply with only the number.

Query: %s

Passage: %s`

// Reranker scores (query, passage) pairs jointly with a small instruct
// model. Slower than bi-encoder similarity but sees both texts at once.
type Reranker struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// RerankerConfig holds the rerank provider settings.
type RerankerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewReranker creates an OpenAI-compatible rerank scorer.
func NewReranker(cfg *RerankerConfig) *Reranker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Reranker{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Score implements domain.Reranker.
func (r *Reranker) Score(ctx context.Context, query, candidate string) (float64, error) {
	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(rerankPrompt, query, candidate)},
		},
		Temperature: 0,
		MaxTokens:   8,
	})
	if err != nil {
		return 0, parseAPIError("rerank", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("empty rerank response")
	}
	return parseScore(resp.Choices[0].Message.Content)
}

// parseScore reads the model's numeric reply and clamps it to [0,1].
func parseScore(text string) (float64, error) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0, fmt.Errorf("blank rerank score")
	}
	score, err := strconv.ParseFloat(strings.TrimSuffix(fields[0], "."), 64)
	if err != nil {
		return 0, fmt.Errorf("parse rerank score %q: %w", text, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
