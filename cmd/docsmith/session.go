// cmd/docsmith/session.go
package main

import (
	"log"

	"github.com/julianshen/docsmith/internal/config"
	"github.com/julianshen/docsmith/internal/integrations"
	"github.com/julianshen/docsmith/internal/output"
	"github.com/julianshen/docsmith/internal/provider"
	"github.com/julianshen/docsmith/internal/runner"
	"github.com/julianshen/docsmith/internal/store"
	"github.com/julianshen/docsmith/internal/wiki"
)

// session holds the long-lived collaborators of a generate invocation.
// Each of them is optional: a failure to open one degrades the run instead
// of aborting it.
type session struct {
	store   *store.Store
	chatter *integrations.Chatter
	cache   *integrations.CachedChat
	ai      wiki.AIChat

	providerName string
	model        string
}

type sessionOptions struct {
	noAI      bool
	noHistory bool
}

// newProvider is swapped in tests.
var newProvider = provider.NewProvider

func openSession(cfg *config.Config, opts sessionOptions) *session {
	s := &session{providerName: cfg.Provider.Default, model: cfg.Provider.Model}

	if !opts.noHistory {
		path, err := cfg.StorePath()
		if err != nil {
			log.Printf("WARNING: store disabled: %v", err)
		} else if path != "" {
			st, err := store.NewStore(path)
			if err != nil {
				log.Printf("WARNING: store disabled: %v", err)
			} else {
				s.store = st
			}
		}
	}

	aiWanted := cfg.Features.DomainGrouping || cfg.Features.Enrichment
	if opts.noAI || !aiWanted {
		return s
	}

	p, err := newProvider(cfg)
	if err != nil {
		log.Printf("WARNING: AI features disabled: %v", err)
		return s
	}
	s.chatter = integrations.NewChatter(p, cfg.Provider.Model, cfg.Provider.MaxTokens)
	s.ai = s.chatter

	var rs integrations.ResponseStore
	if s.store != nil && cfg.Store.CacheAI {
		rs = s.store
	}
	cache, err := integrations.NewCachedChat(s.chatter, cfg.Provider.Model, cfg.Store.LRUSize, rs)
	if err != nil {
		log.Printf("WARNING: AI cache disabled: %v", err)
		return s
	}
	s.cache = cache
	s.ai = cache
	return s
}

// recorder returns the run history sink, or nil when no store is open.
func (s *session) recorder() runner.Recorder {
	if s.store == nil {
		return nil
	}
	return s.store
}

// aiSummary reports provider traffic, or nil when AI was not used.
func (s *session) aiSummary() *output.AISummary {
	if s.chatter == nil {
		return nil
	}
	u := s.chatter.Usage()
	sum := &output.AISummary{
		Provider:     s.providerName,
		Model:        s.model,
		Calls:        u.Calls,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
	}
	if s.cache != nil {
		st := s.cache.Stats()
		sum.CacheHits = st.MemoryHits + st.StoreHits
	}
	return sum
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("WARNING: closing store: %v", err)
		}
	}
}
