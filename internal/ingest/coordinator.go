package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/obudai/phonebook-rag/internal/roster"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// State tracks where the ingestion lifecycle currently is. It replaces ad
// hoc boolean flags so concurrent reindex requests cannot interleave
// collection deletes and writes.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrAlreadyRunning is returned when an ingestion is requested while one
// is in flight.
var ErrAlreadyRunning = errors.New("ingestion already running")

// Embedder is the slice of the embedding service ingestion needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TextIndexer receives the parsed roster after a successful vector
// ingestion. Rebuild failures are logged, never fatal.
type TextIndexer interface {
	Rebuild(records []roster.Record) error
}

// Coordinator serializes roster ingestion. All collection lifecycle
// operations go through it.
type Coordinator struct {
	store      vectorstore.Store
	embedder   Embedder
	textIndex  TextIndexer
	rosterPath string
	progress   ProgressReporter
	batchSize  int

	mu       sync.Mutex
	state    State
	lastErr  error
	docCount int
}

type Options struct {
	Store      vectorstore.Store
	Embedder   Embedder
	TextIndex  TextIndexer // optional
	RosterPath string
	Progress   ProgressReporter // optional
	BatchSize  int
}

func NewCoordinator(opts Options) *Coordinator {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Coordinator{
		store:      opts.Store,
		embedder:   opts.Embedder,
		textIndex:  opts.TextIndex,
		rosterPath: opts.RosterPath,
		progress:   opts.Progress,
		batchSize:  batchSize,
	}
}

// Status is a snapshot of the coordinator. Err is only meaningful for
// StateFailed; Documents is the count of the last successful run.
type Status struct {
	State     State
	Err       error
	Documents int
}

func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, Err: c.lastErr, Documents: c.docCount}
}

// Run executes one ingestion. With force false an existing collection is
// left alone; with force true it is dropped and rebuilt from the roster
// file. Returns the number of ingested documents.
func (c *Coordinator) Run(ctx context.Context, force bool) (int, error) {
	if !c.begin() {
		return 0, ErrAlreadyRunning
	}

	count, err := c.run(ctx, force)
	c.finish(count, err)
	return count, err
}

func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRunning {
		return false
	}
	c.state = StateRunning
	c.lastErr = nil
	return true
}

func (c *Coordinator) finish(count int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
		return
	}
	c.state = StateComplete
	c.docCount = count
}

func (c *Coordinator) run(ctx context.Context, force bool) (int, error) {
	if !c.store.IsConnected(ctx) {
		return 0, fmt.Errorf("vector store is not reachable")
	}

	exists, err := c.store.CollectionExists(ctx)
	if err != nil {
		return 0, fmt.Errorf("check collection: %w", err)
	}
	if exists && !force {
		log.Printf("collection already exists, skipping ingestion")
		count, err := c.store.Count(ctx)
		if err != nil {
			return 0, nil
		}
		return count, nil
	}

	path, err := ResolveRosterPath(c.rosterPath)
	if err != nil {
		return 0, err
	}
	log.Printf("ingesting roster file: %s", path)

	records, err := roster.ParseFile(path)
	if err != nil {
		return 0, err
	}

	kept := make([]roster.Record, 0, len(records))
	for _, rec := range records {
		if !rec.Empty() {
			kept = append(kept, rec)
		}
	}
	if len(kept) == 0 {
		return 0, fmt.Errorf("roster file %s contains no usable records", path)
	}

	vectors, err := c.embedRecords(ctx, kept)
	if err != nil {
		return 0, err
	}

	if exists {
		if err := c.store.DeleteCollection(ctx); err != nil {
			return 0, fmt.Errorf("drop collection for reindex: %w", err)
		}
	}
	if err := c.store.CreateCollection(ctx, len(vectors[0])); err != nil {
		return 0, err
	}

	docs := make([]vectorstore.Document, 0, len(kept))
	for i, rec := range kept {
		payload := rec.Payload()
		id := roster.DocumentID(payload)
		payload["content"] = rec.Passage()
		docs = append(docs, vectorstore.Document{
			ID:      id,
			Vector:  vectors[i],
			Payload: payload,
		})
	}
	if err := c.store.UpsertDocuments(ctx, docs); err != nil {
		return 0, fmt.Errorf("upsert documents: %w", err)
	}

	if c.textIndex != nil {
		if err := c.textIndex.Rebuild(kept); err != nil {
			log.Printf("warning: text index rebuild failed: %v", err)
		}
	}

	log.Printf("ingestion complete: %d documents", len(docs))
	return len(docs), nil
}

// embedRecords embeds passages in batches, reporting progress per batch.
func (c *Coordinator) embedRecords(ctx context.Context, records []roster.Record) ([][]float32, error) {
	passages := make([]string, len(records))
	for i, rec := range records {
		passages[i] = rec.Passage()
	}

	if c.progress != nil {
		c.progress.Start(len(passages))
		defer c.progress.Finish()
	}

	vectors := make([][]float32, 0, len(passages))
	for start := 0; start < len(passages); start += c.batchSize {
		end := start + c.batchSize
		if end > len(passages) {
			end = len(passages)
		}
		batch, err := c.embedder.EmbedBatch(ctx, passages[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed passages %d-%d: %w", start, end, err)
		}
		vectors = append(vectors, batch...)
		if c.progress != nil {
			c.progress.Increment(end - start)
		}
	}

	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("passage %d produced no embedding", i)
		}
	}
	return vectors, nil
}

// EnsureIngested is the startup path: it runs a non-forced ingestion in
// the background and only logs failures, so the server comes up even when
// Qdrant or the roster file is missing.
func (c *Coordinator) EnsureIngested(ctx context.Context) {
	go func() {
		if _, err := c.Run(ctx, false); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			log.Printf("background ingestion failed: %v", err)
		}
	}()
}
