package integrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/julianshen/docsmith/internal/wiki"
)

// ResponseStore persists AI replies across runs.
type ResponseStore interface {
	CachedResponse(key string) (string, bool, error)
	CacheResponse(key, model, response string) error
}

// CacheStats counts cache outcomes for one CachedChat.
type CacheStats struct {
	MemoryHits int `json:"memory_hits"`
	StoreHits  int `json:"store_hits"`
	Misses     int `json:"misses"`
}

// CachedChat memoizes an AIChat. Replies are looked up in an in-memory LRU,
// then in the optional persistent store, before calling through. Failed
// calls are never cached.
type CachedChat struct {
	next  wiki.AIChat
	model string
	mem   *lru.Cache[string, string]
	store ResponseStore

	memHits   atomic.Int64
	storeHits atomic.Int64
	misses    atomic.Int64
}

// NewCachedChat wraps next. store may be nil; size defaults to 256.
func NewCachedChat(next wiki.AIChat, model string, size int, store ResponseStore) (*CachedChat, error) {
	if size <= 0 {
		size = 256
	}
	mem, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &CachedChat{next: next, model: model, mem: mem, store: store}, nil
}

// CacheKey hashes the model and conversation into a stable key.
func CacheKey(model string, messages []wiki.ChatMessage) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Chat returns a cached reply when one exists, otherwise calls through and
// remembers a successful reply.
func (c *CachedChat) Chat(ctx context.Context, messages []wiki.ChatMessage) (string, error) {
	key := CacheKey(c.model, messages)
	if v, ok := c.mem.Get(key); ok {
		c.memHits.Add(1)
		return v, nil
	}
	if c.store != nil {
		v, ok, err := c.store.CachedResponse(key)
		if err != nil {
			log.Printf("WARNING: AI cache lookup failed: %v", err)
		} else if ok {
			c.storeHits.Add(1)
			c.mem.Add(key, v)
			return v, nil
		}
	}

	c.misses.Add(1)
	reply, err := c.next.Chat(ctx, messages)
	if err != nil {
		return "", err
	}
	c.mem.Add(key, reply)
	if c.store != nil {
		if err := c.store.CacheResponse(key, c.model, reply); err != nil {
			log.Printf("WARNING: AI cache write failed: %v", err)
		}
	}
	return reply, nil
}

// Stats returns the cache outcomes so far.
func (c *CachedChat) Stats() CacheStats {
	return CacheStats{
		MemoryHits: int(c.memHits.Load()),
		StoreHits:  int(c.storeHits.Load()),
		Misses:     int(c.misses.Load()),
	}
}
