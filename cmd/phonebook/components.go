package main

import (
	"errors"
	"log"
	"time"

	"github.com/obudai/phonebook-rag/internal/answer"
	"github.com/obudai/phonebook-rag/internal/config"
	"github.com/obudai/phonebook-rag/internal/embedding"
	"github.com/obudai/phonebook-rag/internal/ingest"
	"github.com/obudai/phonebook-rag/internal/retrieval"
	"github.com/obudai/phonebook-rag/internal/textindex"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// components bundles the wired service parts the subcommands share.
type components struct {
	store     vectorstore.Store
	embedder  *embedding.Service
	textIndex *textindex.Index // nil when disabled
	engine    *retrieval.Engine
	generator *answer.Generator // nil without an API key
}

func buildComponents(cfg *config.Config) (*components, error) {
	var store vectorstore.Store
	if cfg.Qdrant.LocalPath != "" {
		local, err := vectorstore.NewLocalStore(cfg.Qdrant.LocalPath, cfg.Qdrant.Collection)
		if err != nil {
			return nil, err
		}
		store = local
	} else {
		store = vectorstore.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection,
			time.Duration(cfg.Qdrant.TimeoutSec)*time.Second)
	}

	embedder, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		return nil, err
	}

	var textIndex *textindex.Index
	if cfg.TextIndexEnabled() && cfg.TextIndex.Path != "" {
		textIndex, err = textindex.Open(cfg.TextIndex.Path)
		if err != nil {
			log.Printf("warning: text index unavailable: %v", err)
			textIndex = nil
		}
	}

	var lexical retrieval.TextSearcher
	if textIndex != nil {
		lexical = textIndex
	}
	engine := retrieval.NewEngine(store, embedder, lexical)

	generator, err := answer.NewGenerator(&cfg.LLM)
	if err != nil {
		if !errors.Is(err, answer.ErrGeneratorUnavailable) {
			return nil, err
		}
		log.Printf("warning: %v, queries will fail until an API key is configured", err)
		generator = nil
	}

	return &components{
		store:     store,
		embedder:  embedder,
		textIndex: textIndex,
		engine:    engine,
		generator: generator,
	}, nil
}

// newCoordinator builds the ingestion coordinator over the shared
// components. Progress rendering is for interactive runs only.
func (c *components) newCoordinator(cfg *config.Config, progress bool) *ingest.Coordinator {
	var textIndexer ingest.TextIndexer
	if c.textIndex != nil {
		textIndexer = c.textIndex
	}
	return ingest.NewCoordinator(ingest.Options{
		Store:      c.store,
		Embedder:   c.embedder,
		TextIndex:  textIndexer,
		RosterPath: cfg.Roster.Path,
		Progress:   ingest.NewEmbedProgress(progress && ingest.DefaultProgressEnabled()),
		BatchSize:  cfg.Embedding.BatchSize,
	})
}

func (c *components) close() {
	if c.textIndex != nil {
		_ = c.textIndex.Close()
	}
	if local, ok := c.store.(*vectorstore.LocalStore); ok {
		_ = local.Close()
	}
}
