// Package llm wraps the OpenAI-compatible chat completion API behind the
// small interface the pipeline consumes.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"tubemind/config"
	"tubemind/core"
)

// Completer is the text-in/text-out completion collaborator. Errors carry
// core.ErrCompletion.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client calls an OpenAI-compatible chat endpoint.
type Client struct {
	cli   *openai.Client
	model string
}

// NewClient builds a Client from config (API key, base URL, chat model).
func NewClient(cfg *config.Config) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{cli: openai.NewClientWithConfig(clientConfig), model: cfg.ChatModel}
}

// OpenAI exposes the underlying client for collaborators that share the
// endpoint (transcription, store-side embeddings).
func (c *Client) OpenAI() *openai.Client { return c.cli }

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})

	resp, err := c.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", core.ErrCompletion)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
