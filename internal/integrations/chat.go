package integrations

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/julianshen/docsmith/internal/provider"
	"github.com/julianshen/docsmith/internal/wiki"
)

// DefaultMaxTokens bounds each AI reply when the config leaves it unset.
const DefaultMaxTokens = 2048

// Chatter adapts an LLMProvider to the wiki.AIChat capability by collecting
// streamed text into a single reply. System messages are folded into the
// request's system prompt.
type Chatter struct {
	provider  provider.LLMProvider
	model     string
	maxTokens int

	calls        atomic.Int64
	inputTokens  atomic.Int64
	outputTokens atomic.Int64
}

// Usage totals the provider traffic of a Chatter.
type Usage struct {
	Calls        int `json:"calls"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// NewChatter creates a new Chatter.
func NewChatter(p provider.LLMProvider, model string, maxTokens int) *Chatter {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chatter{provider: p, model: model, maxTokens: maxTokens}
}

// Chat sends messages to the LLM and returns the full response text.
func (c *Chatter) Chat(ctx context.Context, messages []wiki.ChatMessage) (string, error) {
	req := provider.CompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
	}
	var system []string
	for _, m := range messages {
		switch m.Role {
		case "system":
			system = append(system, m.Content)
		case "assistant":
			req.Messages = append(req.Messages, provider.NewAssistantMessage(m.Content))
		default:
			req.Messages = append(req.Messages, provider.NewUserMessage(m.Content))
		}
	}
	req.System = strings.Join(system, "\n\n")
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("llm chat: no user message")
	}

	c.calls.Add(1)
	ch, err := c.provider.Stream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm chat: %w", err)
	}

	var b strings.Builder
	var streamErr error
	for evt := range ch {
		switch evt.Type {
		case provider.EventTextDelta:
			b.WriteString(evt.Text)
		case provider.EventError:
			if streamErr == nil {
				streamErr = evt.Error
			}
		}
		if evt.InputTokens > 0 || evt.OutputTokens > 0 {
			c.inputTokens.Add(int64(evt.InputTokens))
			c.outputTokens.Add(int64(evt.OutputTokens))
		}
	}
	// The channel is drained before returning so the provider goroutine exits.
	if streamErr != nil {
		return "", fmt.Errorf("llm stream error: %w", streamErr)
	}

	return b.String(), nil
}

// Usage returns the totals accumulated so far.
func (c *Chatter) Usage() Usage {
	return Usage{
		Calls:        int(c.calls.Load()),
		InputTokens:  int(c.inputTokens.Load()),
		OutputTokens: int(c.outputTokens.Load()),
	}
}
