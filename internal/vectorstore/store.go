package vectorstore

import (
	"context"
	"errors"
)

// Document is a roster entry ready for storage: a stable point ID, the
// passage embedding and the full payload.
type Document struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// ScoredDocument is a search hit with its cosine similarity score.
type ScoredDocument struct {
	ID      string
	Score   float32
	Payload map[string]string
}

// ErrCollectionMissing is returned by Search and Count when the collection
// has not been created yet. Callers treat it as "index not ready", not as
// a hard failure.
var ErrCollectionMissing = errors.New("collection does not exist")

// Store is the vector database surface the service needs. Implemented by
// QdrantStore for production and LocalStore for offline and test runs.
type Store interface {
	// IsConnected probes the backend. Probe failures degrade to false.
	IsConnected(ctx context.Context) bool

	// CollectionExists reports whether the collection has been created.
	CollectionExists(ctx context.Context) (bool, error)

	// CreateCollection creates the collection for the given vector size.
	// Creating an already-existing collection is not an error.
	CreateCollection(ctx context.Context, vectorSize int) error

	// UpsertDocuments writes documents in batches. Re-upserting an ID
	// replaces the stored point.
	UpsertDocuments(ctx context.Context, docs []Document) error

	// Search returns up to limit documents ordered by descending score,
	// dropping hits below scoreThreshold.
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]ScoredDocument, error)

	// DeleteCollection drops the collection and all its points.
	DeleteCollection(ctx context.Context) error

	// Count returns the number of stored points.
	Count(ctx context.Context) (int, error)
}

// upsertBatchSize is the number of points written per storage request.
const upsertBatchSize = 100
