package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/obudai/phonebook-rag/internal/roster"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// Embedder is the slice of the embedding service the engine needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// TextSearcher is an optional lexical index consulted when the vector
// search comes back empty. Exact names survive a lexical lookup even when
// the embedding misses them.
type TextSearcher interface {
	SearchText(ctx context.Context, query string, limit int) ([]vectorstore.ScoredDocument, error)
}

// Request describes one retrieval call. ScoreThreshold nil means the
// adaptive threshold decides; a non-nil value overrides it entirely.
type Request struct {
	Query          string
	TopK           int
	ScoreThreshold *float32
}

// Engine runs query preprocessing, embedding and scored vector search.
type Engine struct {
	store    vectorstore.Store
	embedder Embedder
	lexical  TextSearcher
}

func NewEngine(store vectorstore.Store, embedder Embedder, lexical TextSearcher) *Engine {
	return &Engine{store: store, embedder: embedder, lexical: lexical}
}

// Search retrieves the best matching roster entries for a query.
//
// A missing collection surfaces as vectorstore.ErrCollectionMissing so the
// caller can answer "not ready" instead of failing. Any other storage
// error degrades to an empty result set; answering with nothing beats
// answering with a 500 while Qdrant restarts.
func (e *Engine) Search(ctx context.Context, req Request) ([]vectorstore.ScoredDocument, error) {
	if req.TopK <= 0 {
		req.TopK = 5
	}

	normalized := NormalizeQuery(req.Query)
	if normalized == "" {
		return nil, fmt.Errorf("query is empty")
	}
	expanded := ExpandSynonyms(normalized)

	vector, err := e.embedder.Embed(ctx, roster.QueryText(expanded))
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	threshold := AdaptiveThreshold(normalized, req.TopK)
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}

	hits, err := e.store.Search(ctx, vector, req.TopK, threshold)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionMissing) {
			return nil, err
		}
		log.Printf("vector search failed, returning no hits: %v", err)
		return nil, nil
	}

	if len(hits) == 0 && e.lexical != nil {
		return e.lexicalFallback(ctx, normalized, req.TopK), nil
	}
	return hits, nil
}

func (e *Engine) lexicalFallback(ctx context.Context, query string, limit int) []vectorstore.ScoredDocument {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return nil
	}
	hits, err := e.lexical.SearchText(ctx, strings.Join(keywords, " "), limit)
	if err != nil {
		log.Printf("lexical fallback failed: %v", err)
		return nil
	}
	return hits
}
