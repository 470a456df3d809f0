package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	DefaultModel     = anthropic.ModelClaude3_5HaikuLatest
	defaultMaxTokens = 1024
)

var ErrMissingAnthropicKey = errors.New("anthropic API key is not configured")

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// AnthropicGenerator drafts email copy with the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	model  anthropic.Model
}

func NewAnthropicGenerator(config AnthropicConfig, opts ...option.RequestOption) (*AnthropicGenerator, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAnthropicKey
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(config.BaseURL))
	}

	model := anthropic.Model(config.Model)
	if model == "" {
		model = DefaultModel
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(append(clientOpts, opts...)...),
		model:  model,
	}, nil
}

func (g *AnthropicGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: defaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: prompt.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages request failed: %w", err)
	}

	var parts []string

	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}

	return strings.Join(parts, "\n"), nil
}
