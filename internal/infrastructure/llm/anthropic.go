package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"TipCurator/internal/config"
	"TipCurator/internal/ports"
)

const (
	maxTokens             = 1024
	defaultAnthropicModel = anthropic.Model("claude-haiku-4-5")
)

// AnthropicCompleter implements ports.Completer with the Messages API.
type AnthropicCompleter struct {
	client *anthropic.Client
	model  anthropic.Model
}

var _ ports.Completer = (*AnthropicCompleter)(nil)

// NewAnthropicCompleter builds a completer from provider configuration.
func NewAnthropicCompleter(cfg config.ProviderConfig) *AnthropicCompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(withTrailingSlash(cfg.BaseURL)))
	}

	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = defaultAnthropicModel
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicCompleter{
		client: &client,
		model:  model,
	}
}

// Complete sends one user turn and returns the first text block.
func (c *AnthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("no response from anthropic")
	}

	return resp.Content[0].Text, nil
}
