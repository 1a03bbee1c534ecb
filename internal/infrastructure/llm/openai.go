package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"TipCurator/internal/config"
	"TipCurator/internal/ports"
)

const requestTimeout = 30 * time.Second

// OpenAICompleter implements ports.Completer backed by OpenAI-compatible chat APIs.
// Gemini is reached through its OpenAI-compatible endpoint with the same client.
type OpenAICompleter struct {
	client *openai.Client
	model  openai.ChatModel
}

var _ ports.Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter builds a completer from provider configuration.
func NewOpenAICompleter(cfg config.ProviderConfig) *OpenAICompleter {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(withTrailingSlash(cfg.BaseURL)))
	}

	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}

	client := openai.NewClient(opts...)
	return &OpenAICompleter{
		client: &client,
		model:  model,
	}
}

// Complete sends a system and user message and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}

func withTrailingSlash(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}
