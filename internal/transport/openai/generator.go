package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/marketmind/researchd/internal/domain"
)

// templateParams tune sampling per prompt template. HyDE wants a short
// creative passage; report synthesis wants longer, steadier output.
var templateParams = map[domain.TemplateID]struct {
	temperature float32
	maxTokens   int
}{
	domain.TemplateHyde:    {temperature: 0.7, maxTokens: 150},
	domain.TemplateQuick:   {temperature: 0.3, maxTokens: 600},
	domain.TemplateDeep:    {temperature: 0.3, maxTokens: 1500},
	domain.TemplateSuggest: {temperature: 0.5, maxTokens: 200},
}

// Generator is a chat-completion text provider.
type Generator struct {
	client *openai.Client
	model  string
	user   string
	logger *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	User    string
	Logger  *zap.Logger
}

// NewGenerator creates an OpenAI-compatible chat completion provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		user:   cfg.User,
		logger: cfg.Logger,
	}
}

// Complete implements domain.Generator. One retry on transient API
// failure, then the error surfaces for the caller's degradation path.
func (g *Generator) Complete(ctx context.Context, prompt string, template domain.TemplateID) (string, error) {
	params, ok := templateParams[template]
	if !ok {
		params = templateParams[domain.TemplateQuick]
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: params.temperature,
		MaxTokens:   params.maxTokens,
		User:        g.user,
	}

	text, err := g.complete(ctx, req)
	if err != nil && isTransient(err) && ctx.Err() == nil {
		g.logger.Warn("generation retry after transient error", zap.Error(err))
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
		text, err = g.complete(ctx, req)
	}
	if err != nil {
		return "", fmt.Errorf("complete %s: %w", template, errors.Join(err, domain.ErrGenerationUnavailable))
	}
	return text, nil
}

func (g *Generator) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// isTransient reports whether the API error is worth one retry.
func isTransient(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	return false
}
