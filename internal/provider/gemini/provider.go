package gemini

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"github.com/julianshen/docsmith/internal/provider"
)

func init() {
	provider.RegisterProvider("gemini", func(baseURL, apiKey string, _ map[string]string) (provider.LLMProvider, error) {
		return New(context.Background(), baseURL, apiKey)
	})
}

// Provider implements the LLMProvider interface on top of the official genai
// client. Gemini replies are requested whole and replayed as a single
// text delta followed by a stop event.
type Provider struct {
	cli *genai.Client
}

// New creates a Gemini provider. An empty baseURL uses the public endpoint.
func New(ctx context.Context, baseURL, apiKey string) (*Provider, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Provider{cli: cli}, nil
}

// Stream issues one GenerateContent call and returns its text as events.
func (p *Provider) Stream(ctx context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	resp, err := p.cli.Models.GenerateContent(ctx, req.Model, toContents(req.Messages), generateConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	events := []provider.StreamEvent{{Type: provider.EventTextDelta, Text: text}}
	if u := resp.UsageMetadata; u != nil {
		events = append(events, provider.StreamEvent{
			Type:         "usage",
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		})
	}
	events = append(events, provider.StreamEvent{Type: provider.EventStop})

	ch := make(chan provider.StreamEvent, len(events))
	for _, evt := range events {
		ch <- evt
	}
	close(ch)
	return ch, nil
}

func toContents(messages []provider.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text(), role))
	}
	return contents
}

func generateConfig(req provider.CompletionRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature != nil {
		temp := float32(*req.Temperature)
		cfg.Temperature = &temp
	}
	return cfg
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini generate: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini generate: response has no text (finish reason %s)", resp.Candidates[0].FinishReason)
	}
	return b.String(), nil
}
