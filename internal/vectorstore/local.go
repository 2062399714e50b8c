package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// LocalStore is a SQLite-backed Store for offline runs and tests. It scans
// every point on search, which is fine for a staff directory but is not a
// substitute for Qdrant at scale.
type LocalStore struct {
	db         *sql.DB
	collection string
	mu         sync.Mutex
}

func NewLocalStore(path, collection string) (*LocalStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("local_path is required for local vector store")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	dbPath := filepath.Join(path, "vectors.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	store := &LocalStore{db: db, collection: collection}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *LocalStore) initSchema() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, stmt := range pragmas {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init vector db: %w", err)
		}
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS collections (
			name TEXT PRIMARY KEY,
			dims INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS points (
			id TEXT,
			collection TEXT,
			payload TEXT,
			vector TEXT,
			PRIMARY KEY (id, collection)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_points_collection ON points (collection);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init vector db: %w", err)
		}
	}
	return nil
}

// IsConnected pings the database file.
func (s *LocalStore) IsConnected(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func (s *LocalStore) CollectionExists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM collections WHERE name = ?`, s.collection).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *LocalStore) CreateCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("invalid vector size: %d", vectorSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name, dims) VALUES (?, ?)`,
		s.collection, vectorSize)
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

func (s *LocalStore) UpsertDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO points
		(id, collection, payload, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, doc := range docs {
		payloadJSON, err := json.Marshal(doc.Payload)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		vectorJSON, err := encodeVector(doc.Vector)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			doc.ID, s.collection, string(payloadJSON), vectorJSON,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *LocalStore) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32) ([]ScoredDocument, error) {
	if limit <= 0 {
		limit = 5
	}
	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionMissing, s.collection)
	}

	queryVec, queryNorm := toFloat64Vector(vector)
	if len(queryVec) == 0 || queryNorm == 0 {
		return nil, fmt.Errorf("vector query is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload, vector FROM points WHERE collection = ?`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []ScoredDocument
	for rows.Next() {
		var id, payloadJSON, vectorJSON string
		if err := rows.Scan(&id, &payloadJSON, &vectorJSON); err != nil {
			return nil, err
		}
		vec, err := decodeVector(vectorJSON)
		if err != nil {
			continue
		}
		score := float32(cosineSimilarity(queryVec, vec, queryNorm))
		if score < scoreThreshold {
			continue
		}
		var payload map[string]string
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			continue
		}
		hits = append(hits, ScoredDocument{ID: id, Score: score, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *LocalStore) DeleteCollection(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM points WHERE collection = ?`, s.collection); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collections WHERE name = ?`, s.collection); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *LocalStore) Count(ctx context.Context) (int, error) {
	exists, err := s.CollectionExists(ctx)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrCollectionMissing, s.collection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM points WHERE collection = ?`, s.collection).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func encodeVector(vec []float32) (string, error) {
	data := make([]float64, len(vec))
	for i, val := range vec {
		data[i] = float64(val)
	}
	out, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeVector(raw string) ([]float64, error) {
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func toFloat64Vector(vec []float32) ([]float64, float64) {
	out := make([]float64, len(vec))
	var sum float64
	for i, val := range vec {
		v := float64(val)
		out[i] = v
		sum += v * v
	}
	return out, math.Sqrt(sum)
}

func cosineSimilarity(query []float64, vec []float64, queryNorm float64) float64 {
	if len(query) == 0 || len(vec) == 0 || queryNorm == 0 {
		return 0
	}
	if len(query) != len(vec) {
		return 0
	}
	var dot float64
	var norm float64
	for i, val := range vec {
		dot += query[i] * val
		norm += val * val
	}
	if norm == 0 {
		return 0
	}
	return dot / (queryNorm * math.Sqrt(norm))
}
