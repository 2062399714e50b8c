package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// QdrantStore talks to Qdrant over its REST API. Large roster upserts can
// take a while on a cold instance, so the HTTP timeout is generous.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// indexedPayloadFields get keyword payload indexes so department and
// faculty filters stay fast as the roster grows.
var indexedPayloadFields = []string{"Department", "Company"}

func NewQdrantStore(url, apiKey, collection string, timeout time.Duration) *QdrantStore {
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	return &QdrantStore{
		baseURL:    strings.TrimRight(url, "/"),
		apiKey:     apiKey,
		collection: collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Collection returns the collection name the store operates on.
func (s *QdrantStore) Collection() string {
	return s.collection
}

// IsConnected probes the Qdrant root endpoint.
func (s *QdrantStore) IsConnected(ctx context.Context) bool {
	_, err := s.doRequest(ctx, http.MethodGet, "/collections", nil)
	return err == nil
}

// CollectionExists checks for the collection by fetching its info.
func (s *QdrantStore) CollectionExists(ctx context.Context) (bool, error) {
	_, err := s.doRequest(ctx, http.MethodGet, "/collections/"+s.collection, nil)
	if err == nil {
		return true, nil
	}
	var statusErr *qdrantStatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

// CreateCollection creates the collection with cosine distance. Creation is
// attempted unconditionally and an "already exists" response is treated as
// success, so concurrent creators cannot race between check and create.
func (s *QdrantStore) CreateCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size: %d", vectorSize)
	}
	req := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
		"optimizers_config": map[string]any{
			"indexing_threshold": 10000,
			"memmap_threshold":   20000,
		},
	}
	_, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.collection, req)
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}

	s.createPayloadIndexes(ctx)
	return nil
}

// createPayloadIndexes is best-effort: a failed index never blocks
// ingestion, search just runs unindexed.
func (s *QdrantStore) createPayloadIndexes(ctx context.Context) {
	for _, field := range indexedPayloadFields {
		req := map[string]any{
			"field_name":   field,
			"field_schema": "keyword",
		}
		_, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.collection+"/index?wait=true", req)
		if err != nil && !isAlreadyExists(err) {
			log.Printf("warning: payload index on %s not created: %v", field, err)
		}
	}
}

// UpsertDocuments writes documents in fixed-size batches so a single
// oversized request cannot stall the whole ingestion.
func (s *QdrantStore) UpsertDocuments(ctx context.Context, docs []Document) error {
	for start := 0; start < len(docs); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		points := make([]map[string]any, 0, end-start)
		for _, doc := range docs[start:end] {
			points = append(points, map[string]any{
				"id":      doc.ID,
				"vector":  doc.Vector,
				"payload": doc.Payload,
			})
		}
		req := map[string]any{"points": points}
		_, err := s.doRequest(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", req)
		if err != nil {
			return fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Search runs a scored vector search with payloads attached.
func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]ScoredDocument, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"with_payload":    true,
		"score_threshold": scoreThreshold,
	}
	data, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", req)
	if err != nil {
		var statusErr *qdrantStatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrCollectionMissing, s.collection)
		}
		return nil, err
	}

	var parsed struct {
		Result []struct {
			ID      any            `json:"id"`
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}

	docs := make([]ScoredDocument, 0, len(parsed.Result))
	for _, item := range parsed.Result {
		docs = append(docs, ScoredDocument{
			ID:      fmt.Sprintf("%v", item.ID),
			Score:   item.Score,
			Payload: stringPayload(item.Payload),
		})
	}
	return docs, nil
}

// DeleteCollection drops the collection. Deleting a collection that does
// not exist is not an error.
func (s *QdrantStore) DeleteCollection(ctx context.Context) error {
	_, err := s.doRequest(ctx, http.MethodDelete, "/collections/"+s.collection, nil)
	if err != nil {
		var statusErr *qdrantStatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil
		}
		return fmt.Errorf("delete collection %s: %w", s.collection, err)
	}
	return nil
}

// Count returns the exact point count.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	req := map[string]any{"exact": true}
	data, err := s.doRequest(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count", req)
	if err != nil {
		var statusErr *qdrantStatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return 0, fmt.Errorf("%w: %s", ErrCollectionMissing, s.collection)
		}
		return 0, err
	}

	var parsed struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return 0, fmt.Errorf("parse count response: %w", err)
	}
	return parsed.Result.Count, nil
}

type qdrantStatusError struct {
	Code int
	Body string
}

func (e *qdrantStatusError) Error() string {
	return fmt.Sprintf("qdrant status %d: %s", e.Code, e.Body)
}

func isAlreadyExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists")
}

func (s *QdrantStore) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		buf = bytes.NewBuffer(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &qdrantStatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return data, nil
}

// stringPayload flattens a JSON payload into the string map the rest of
// the pipeline works with. Non-string values are formatted.
func stringPayload(payload map[string]any) map[string]string {
	out := make(map[string]string, len(payload))
	for k, v := range payload {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}
