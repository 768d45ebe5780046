package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/julianshen/docsmith/internal/provider"
)

// DefaultBaseURL is the public Anthropic API endpoint.
const DefaultBaseURL = "https://api.anthropic.com"

func init() {
	provider.RegisterProvider("anthropic", func(baseURL, apiKey string, _ map[string]string) (provider.LLMProvider, error) {
		if baseURL == "" {
			baseURL = DefaultBaseURL
		}
		return New(baseURL, apiKey), nil
	})
}

// Provider implements the LLMProvider interface for the Anthropic API.
type Provider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a new Anthropic provider.
func New(baseURL, apiKey string) *Provider {
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// apiRequest is the request body sent to the Anthropic API.
type apiRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Stream      bool         `json:"stream"`
	System      string       `json:"system,omitempty"`
	Messages    []apiMessage `json:"messages"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiMessage struct {
	Role    string                  `json:"role"`
	Content []provider.ContentBlock `json:"content"`
}

// Stream sends a completion request to the Anthropic API and returns a channel
// of StreamEvents parsed from the SSE response.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	body, err := p.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	respBody, err := provider.PostJSON(ctx, p.client, p.baseURL+"/v1/messages", map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": "2023-06-01",
	}, body)
	if err != nil {
		return nil, err
	}

	ch := make(chan provider.StreamEvent)
	go p.processStream(ctx, respBody, ch)
	return ch, nil
}

func (p *Provider) buildRequestBody(req provider.CompletionRequest) ([]byte, error) {
	apiReq := apiRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Stream:    true,
		System:    req.System,
	}
	if req.Temperature != nil {
		temp := *req.Temperature
		apiReq.Temperature = &temp
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: msg.Role, Content: msg.Content})
	}
	return json.Marshal(apiReq)
}

// processStream reads SSE events from the response body and sends StreamEvents
// to the channel as they arrive. It closes both the body and the channel when done.
func (p *Provider) processStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamEvent) {
	defer close(ch)
	defer body.Close()

	var inputTokens int
	scanner := provider.NewSSEScanner(body)
	for scanner.Next() {
		if ctx.Err() != nil {
			provider.Emit(context.Background(), ch, provider.StreamEvent{Type: provider.EventError, Error: ctx.Err()})
			return
		}

		evt := p.convertSSEEvent(scanner.Event(), &inputTokens)
		if evt == nil {
			continue
		}
		if !provider.Emit(ctx, ch, *evt) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		provider.Emit(ctx, ch, provider.StreamEvent{Type: provider.EventError, Error: err})
	}
}

// convertSSEEvent converts a raw SSE event into a StreamEvent. Token usage
// from message_start is carried until message_delta reports output usage.
func (p *Provider) convertSSEEvent(evt provider.SSEEvent, inputTokens *int) *provider.StreamEvent {
	switch evt.Event {
	case "message_start":
		var parsed struct {
			Message struct {
				Usage struct {
					InputTokens int `json:"input_tokens"`
				} `json:"usage"`
			} `json:"message"`
		}
		if err := json.Unmarshal([]byte(evt.Data), &parsed); err == nil {
			*inputTokens = parsed.Message.Usage.InputTokens
		}
		return nil
	case "content_block_delta":
		return handleContentBlockDelta(evt.Data)
	case "message_delta":
		var parsed struct {
			Usage struct {
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		}
		if err := json.Unmarshal([]byte(evt.Data), &parsed); err != nil {
			return nil
		}
		return &provider.StreamEvent{Type: "usage", InputTokens: *inputTokens, OutputTokens: parsed.Usage.OutputTokens}
	case "message_stop":
		return &provider.StreamEvent{Type: provider.EventStop}
	case "error":
		var parsed struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal([]byte(evt.Data), &parsed); err != nil {
			return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("stream error: %s", evt.Data)}
		}
		return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message)}
	default:
		return nil
	}
}

func handleContentBlockDelta(data string) *provider.StreamEvent {
	var parsed struct {
		Delta struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"delta"`
	}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return &provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("parsing content_block_delta: %w", err)}
	}
	if parsed.Delta.Type != "text_delta" {
		return nil
	}
	return &provider.StreamEvent{Type: provider.EventTextDelta, Text: parsed.Delta.Text}
}
