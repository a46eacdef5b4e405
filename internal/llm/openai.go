package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient adapts the OpenAI chat-completions API to the Client contract.
// It also covers OpenAI-compatible endpoints via a custom base URL.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-backed completion client.
func NewOpenAI(cfg Config) *OpenAIClient {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Complete sends one completion request and returns the reply text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
		}
		return "", fmt.Errorf("call completion service: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion response contained no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
