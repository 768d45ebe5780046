package integrations

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/docsmith/internal/provider"
	"github.com/julianshen/docsmith/internal/wiki"
)

type mockProvider struct {
	events []provider.StreamEvent
	err    error

	mu   sync.Mutex
	reqs []provider.CompletionRequest
}

func (m *mockProvider) Stream(_ context.Context, req provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan provider.StreamEvent, len(m.events))
	for _, evt := range m.events {
		ch <- evt
	}
	close(ch)
	return ch, nil
}

func TestChatterCollectsText(t *testing.T) {
	mp := &mockProvider{
		events: []provider.StreamEvent{
			{Type: provider.EventTextDelta, Text: "Hello"},
			{Type: provider.EventTextDelta, Text: " world"},
			{Type: "usage", InputTokens: 9, OutputTokens: 2},
			{Type: provider.EventStop},
		},
	}

	c := NewChatter(mp, "test-model", 0)
	result, err := c.Chat(context.Background(), []wiki.ChatMessage{
		{Role: "system", Content: "Be terse."},
		{Role: "user", Content: "Say hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", result)

	require.Len(t, mp.reqs, 1)
	req := mp.reqs[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
	assert.Equal(t, "Be terse.", req.System)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "Say hi", req.Messages[0].Text())

	assert.Equal(t, Usage{Calls: 1, InputTokens: 9, OutputTokens: 2}, c.Usage())
}

func TestChatterKeepsConversationOrder(t *testing.T) {
	mp := &mockProvider{events: []provider.StreamEvent{{Type: provider.EventTextDelta, Text: "ok"}}}
	c := NewChatter(mp, "m", 100)

	_, err := c.Chat(context.Background(), []wiki.ChatMessage{
		{Role: "user", Content: "q1"},
		{Role: "assistant", Content: "a1"},
		{Role: "user", Content: "q2"},
	})
	require.NoError(t, err)

	msgs := mp.reqs[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"user", "assistant", "user"}, []string{msgs[0].Role, msgs[1].Role, msgs[2].Role})
	assert.Equal(t, 100, mp.reqs[0].MaxTokens)
	assert.Empty(t, mp.reqs[0].System)
}

func TestChatterNoUserMessage(t *testing.T) {
	c := NewChatter(&mockProvider{}, "m", 0)
	_, err := c.Chat(context.Background(), []wiki.ChatMessage{{Role: "system", Content: "only system"}})
	assert.ErrorContains(t, err, "no user message")
}

func TestChatterProviderError(t *testing.T) {
	c := NewChatter(&mockProvider{err: assert.AnError}, "m", 0)
	_, err := c.Chat(context.Background(), []wiki.ChatMessage{{Role: "user", Content: "x"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestChatterStreamError(t *testing.T) {
	mp := &mockProvider{
		events: []provider.StreamEvent{
			{Type: provider.EventTextDelta, Text: "partial"},
			{Type: provider.EventError, Error: assert.AnError},
		},
	}
	_, err := NewChatter(mp, "m", 0).Chat(context.Background(), []wiki.ChatMessage{{Role: "user", Content: "fail"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// slowMockProvider sends an event after the error, simulating a provider
// goroutine that still has events to deliver.
type slowMockProvider struct {
	done chan struct{}
}

func (m *slowMockProvider) Stream(_ context.Context, _ provider.CompletionRequest) (<-chan provider.StreamEvent, error) {
	ch := make(chan provider.StreamEvent)
	go func() {
		defer close(m.done)
		defer close(ch)
		ch <- provider.StreamEvent{Type: provider.EventError, Error: assert.AnError}
		ch <- provider.StreamEvent{Type: provider.EventTextDelta, Text: "trailing"}
	}()
	return ch, nil
}

func TestChatterDrainsChannelOnError(t *testing.T) {
	mp := &slowMockProvider{done: make(chan struct{})}
	_, err := NewChatter(mp, "m", 0).Chat(context.Background(), []wiki.ChatMessage{{Role: "user", Content: "fail"}})
	require.Error(t, err)

	select {
	case <-mp.done:
	case <-time.After(time.Second):
		t.Fatal("provider goroutine blocked on an undrained channel")
	}
}
