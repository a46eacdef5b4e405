// Package llm provides clients for external text-completion services. The
// rest of the application treats a completion call as an opaque round-trip:
// role-tagged messages in, one text block out.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Message is one role-tagged turn in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single completion call.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Client is the completion-service contract used by the conversation
// controller. Implementations must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// APIError carries the upstream HTTP status so handlers can pass auth and
// rate-limit failures through distinctly.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("completion service returned status %d: %s", e.StatusCode, e.Message)
}

// Config holds provider-independent client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider names for New.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// New constructs the client for the named provider.
func New(provider string, cfg Config) (Client, error) {
	switch provider {
	case ProviderAnthropic, "":
		return NewAnthropic(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}
