package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strings"

	"github.com/julianshen/docsmith/internal/provider"
)

func init() {
	provider.RegisterProvider("openai", func(baseURL, apiKey string, extraHeaders map[string]string) (provider.LLMProvider, error) {
		if baseURL == "" {
			return nil, fmt.Errorf("openai: base URL is required")
		}
		return New(baseURL, apiKey, extraHeaders), nil
	})
}

// Provider implements the LLMProvider interface for OpenAI-compatible APIs.
type Provider struct {
	baseURL string
	headers map[string]string
	client  *http.Client
}

// New creates a new OpenAI-compatible provider.
func New(baseURL, apiKey string, extraHeaders map[string]string) *Provider {
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	maps.Copy(headers, extraHeaders)
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: headers,
		client:  &http.Client{},
	}
}

// apiRequest is the request body sent to the OpenAI API.
type apiRequest struct {
	Model         string         `json:"model"`
	Messages      []apiMessage   `json:"messages"`
	MaxTokens     int            `json:"max_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	Stream        bool           `json:"stream"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatChunk is one streamed chat.completion.chunk.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Stream sends a completion request to the OpenAI-compatible API and returns a
// channel of StreamEvents.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	body, err := p.buildRequestBody(req)
	if err != nil {
		return nil, fmt.Errorf("building request body: %w", err)
	}

	respBody, err := provider.PostJSON(ctx, p.client, p.baseURL+"/chat/completions", p.headers, body)
	if err != nil {
		return nil, err
	}

	ch := make(chan provider.StreamEvent)
	go p.processStream(ctx, respBody, ch)
	return ch, nil
}

func (p *Provider) buildRequestBody(req provider.CompletionRequest) ([]byte, error) {
	apiReq := apiRequest{
		Model:         req.Model,
		MaxTokens:     req.MaxTokens,
		Temperature:   req.Temperature,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	}

	if req.System != "" {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, apiMessage{Role: msg.Role, Content: msg.Text()})
	}

	return json.Marshal(apiReq)
}

// processStream reads "data:" lines until [DONE] and converts each chunk into
// StreamEvents. It closes both the body and the channel when done.
func (p *Provider) processStream(ctx context.Context, body io.ReadCloser, ch chan<- provider.StreamEvent) {
	defer close(ch)
	defer body.Close()

	scanner := provider.NewSSEScanner(body)
	for scanner.Next() {
		data := scanner.Event().Data
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			provider.Emit(ctx, ch, provider.StreamEvent{Type: provider.EventStop})
			return
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			provider.Emit(ctx, ch, provider.StreamEvent{Type: provider.EventError, Error: fmt.Errorf("parsing chunk: %w", err)})
			return
		}
		for _, evt := range convertChunk(chunk) {
			if !provider.Emit(ctx, ch, evt) {
				return
			}
		}
	}

	if err := scanner.Err(); err != nil {
		provider.Emit(ctx, ch, provider.StreamEvent{Type: provider.EventError, Error: err})
		return
	}
	// Some compatible servers close the stream without [DONE].
	provider.Emit(ctx, ch, provider.StreamEvent{Type: provider.EventStop})
}

func convertChunk(chunk chatChunk) []provider.StreamEvent {
	if chunk.Error != nil {
		return []provider.StreamEvent{{Type: provider.EventError, Error: fmt.Errorf("stream error: %s", chunk.Error.Message)}}
	}
	var events []provider.StreamEvent
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != nil && *choice.Delta.Content != "" {
			events = append(events, provider.StreamEvent{Type: provider.EventTextDelta, Text: *choice.Delta.Content})
		}
	}
	if chunk.Usage != nil {
		events = append(events, provider.StreamEvent{
			Type:         "usage",
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
		})
	}
	return events
}
