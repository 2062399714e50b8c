package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeQdrant is a minimal in-memory stand-in for the Qdrant REST API.
type fakeQdrant struct {
	collections map[string]int
	points      map[string]map[string]any
	failUpserts bool
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{
		collections: make(map[string]int),
		points:      make(map[string]map[string]any),
	}
}

func (f *fakeQdrant) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{}})
	})
	mux.HandleFunc("GET /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.collections[r.PathValue("name")]; !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{}})
	})
	mux.HandleFunc("PUT /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if _, ok := f.collections[name]; ok {
			http.Error(w, `{"status":{"error":"Collection already exists"}}`, http.StatusConflict)
			return
		}
		var body struct {
			Vectors struct {
				Size int `json:"size"`
			} `json:"vectors"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.collections[name] = body.Vectors.Size
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true})
	})
	mux.HandleFunc("DELETE /collections/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if _, ok := f.collections[name]; !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		delete(f.collections, name)
		f.points = make(map[string]map[string]any)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true})
	})
	mux.HandleFunc("PUT /collections/{name}/index", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true})
	})
	mux.HandleFunc("PUT /collections/{name}/points", func(w http.ResponseWriter, r *http.Request) {
		if f.failUpserts {
			http.Error(w, `{"status":{"error":"write failed"}}`, http.StatusInternalServerError)
			return
		}
		var body struct {
			Points []map[string]any `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, p := range body.Points {
			f.points[p["id"].(string)] = p
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": true})
	})
	mux.HandleFunc("POST /collections/{name}/points/search", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.collections[r.PathValue("name")]; !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		results := make([]map[string]any, 0, len(f.points))
		for id, p := range f.points {
			results = append(results, map[string]any{
				"id": id, "score": 0.9, "payload": p["payload"],
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": results})
	})
	mux.HandleFunc("POST /collections/{name}/points/count", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := f.collections[r.PathValue("name")]; !ok {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"count": len(f.points)},
		})
	})
	return mux
}

func newTestStore(t *testing.T) (*QdrantStore, *fakeQdrant) {
	t.Helper()
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewQdrantStore(srv.URL, "", "obuda_phonebook", 5*time.Second), fake
}

func TestQdrantCreateCollectionIdempotent(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 1024); err != nil {
		t.Fatalf("CreateCollection() error: %v", err)
	}
	// The second create hits "already exists" and succeeds anyway.
	if err := store.CreateCollection(ctx, 1024); err != nil {
		t.Fatalf("repeat CreateCollection() error: %v", err)
	}
	if fake.collections["obuda_phonebook"] != 1024 {
		t.Errorf("collection size = %d", fake.collections["obuda_phonebook"])
	}
}

func TestQdrantCollectionExists(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	exists, err := store.CollectionExists(ctx)
	if err != nil {
		t.Fatalf("CollectionExists() error: %v", err)
	}
	if exists {
		t.Error("collection should not exist yet")
	}

	if err := store.CreateCollection(ctx, 4); err != nil {
		t.Fatal(err)
	}
	exists, err = store.CollectionExists(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("collection should exist after create")
	}
}

func TestQdrantUpsertAndCount(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 4); err != nil {
		t.Fatal(err)
	}

	docs := []Document{
		{ID: "a", Vector: []float32{1, 0, 0, 0}, Payload: map[string]string{"DisplayName": "Kovács János"}},
		{ID: "b", Vector: []float32{0, 1, 0, 0}, Payload: map[string]string{"DisplayName": "Nagy Éva"}},
	}
	if err := store.UpsertDocuments(ctx, docs); err != nil {
		t.Fatalf("UpsertDocuments() error: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}
}

func TestQdrantSearchMissingCollection(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Search(context.Background(), []float32{1, 0}, 5, 0.1)
	if !errors.Is(err, ErrCollectionMissing) {
		t.Errorf("Search() error = %v, want ErrCollectionMissing", err)
	}
}

func TestQdrantUpsertFailureSurfacesBatch(t *testing.T) {
	store, fake := newTestStore(t)
	ctx := context.Background()
	if err := store.CreateCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}

	fake.failUpserts = true
	err := store.UpsertDocuments(ctx, []Document{{ID: "a", Vector: []float32{1, 0}}})
	if err == nil {
		t.Fatal("expected upsert failure")
	}
}

func TestQdrantDeleteCollectionIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateCollection(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteCollection(ctx); err != nil {
		t.Fatalf("DeleteCollection() error: %v", err)
	}
	// Dropping an absent collection is a no-op.
	if err := store.DeleteCollection(ctx); err != nil {
		t.Fatalf("repeat DeleteCollection() error: %v", err)
	}
}

func TestQdrantIsConnected(t *testing.T) {
	store, _ := newTestStore(t)
	if !store.IsConnected(context.Background()) {
		t.Error("IsConnected() should be true against the fake")
	}

	down := NewQdrantStore("http://127.0.0.1:1", "", "obuda_phonebook", time.Second)
	if down.IsConnected(context.Background()) {
		t.Error("IsConnected() should be false for an unreachable host")
	}
}
