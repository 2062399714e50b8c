package vectorstore

import (
	"context"
	"errors"
	"testing"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), "obuda_phonebook")
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 3); err != nil {
		t.Fatal(err)
	}

	docs := []Document{
		{ID: "a", Vector: []float32{1, 0, 0}, Payload: map[string]string{"DisplayName": "Kovács János"}},
		{ID: "b", Vector: []float32{0, 1, 0}, Payload: map[string]string{"DisplayName": "Nagy Éva"}},
		{ID: "c", Vector: []float32{0.9, 0.1, 0}, Payload: map[string]string{"DisplayName": "Kiss Péter"}},
	}
	if err := store.UpsertDocuments(ctx, docs); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, []float32{1, 0, 0}, 2, 0.1)
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Best match first, scores descending.
	if hits[0].ID != "a" || hits[1].ID != "c" {
		t.Errorf("hit order = %s, %s", hits[0].ID, hits[1].ID)
	}
	if hits[0].Score < hits[1].Score {
		t.Error("scores should be descending")
	}
	if hits[0].Payload["DisplayName"] != "Kovács János" {
		t.Errorf("payload = %v", hits[0].Payload)
	}
}

func TestLocalStoreThresholdFiltersHits(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDocuments(ctx, []Document{
		{ID: "near", Vector: []float32{1, 0}},
		{ID: "far", Vector: []float32{0, 1}},
	}); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, []float32{1, 0}, 10, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "near" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestLocalStoreUpsertReplacesByID(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	first := []Document{{ID: "a", Vector: []float32{1, 0}, Payload: map[string]string{"TelephoneNumber": "111"}}}
	second := []Document{{ID: "a", Vector: []float32{1, 0}, Payload: map[string]string{"TelephoneNumber": "222"}}}

	if err := store.UpsertDocuments(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDocuments(ctx, second); err != nil {
		t.Fatal(err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1 after re-upsert", count)
	}

	hits, err := store.Search(ctx, []float32{1, 0}, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Payload["TelephoneNumber"] != "222" {
		t.Errorf("payload not replaced: %v", hits[0].Payload)
	}
}

func TestLocalStoreMissingCollection(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	if _, err := store.Search(ctx, []float32{1, 0}, 5, 0); !errors.Is(err, ErrCollectionMissing) {
		t.Errorf("Search() error = %v, want ErrCollectionMissing", err)
	}
	if _, err := store.Count(ctx); !errors.Is(err, ErrCollectionMissing) {
		t.Errorf("Count() error = %v, want ErrCollectionMissing", err)
	}
}

func TestLocalStoreDeleteCollection(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDocuments(ctx, []Document{{ID: "a", Vector: []float32{1, 0}}}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteCollection(ctx); err != nil {
		t.Fatal(err)
	}

	exists, err := store.CollectionExists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("collection should be gone after delete")
	}
}

func TestLocalStoreNegativeThresholdKeepsAll(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertDocuments(ctx, []Document{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{-1, 0}},
	}); err != nil {
		t.Fatal(err)
	}

	hits, err := store.Search(ctx, []float32{1, 0}, 10, -1.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2 with threshold -1.0", len(hits))
	}
}
