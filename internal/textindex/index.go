package textindex

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/obudai/phonebook-rag/internal/roster"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// Index is a lexical index over the roster, used as a fallback when the
// vector search finds nothing. Exact names and phone numbers match here
// even when the embedding space misses them.
type Index struct {
	path string

	mu    sync.Mutex
	index bleve.Index
}

// storedFields are the payload fields kept in the index so hits can be
// served without a round trip to the vector store.
var storedFields = []string{
	roster.FieldDisplayName,
	roster.FieldTitle,
	roster.FieldDepartment,
	roster.FieldCompany,
	roster.FieldTelephoneNumber,
	roster.FieldUPN,
	roster.FieldOUPath,
	"content",
}

// Open opens the index at path, creating an empty one if needed.
func Open(path string) (*Index, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open text index: %w", err)
	}
	return &Index{path: path, index: index}, nil
}

// Rebuild replaces the index contents with the given records. The old
// index is dropped first so removed staff disappear from lexical results.
func (ix *Index) Rebuild(records []roster.Record) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.index != nil {
		if err := ix.index.Close(); err != nil {
			return fmt.Errorf("close text index: %w", err)
		}
		ix.index = nil
	}
	if err := os.RemoveAll(ix.path); err != nil {
		return fmt.Errorf("reset text index dir: %w", err)
	}

	index, err := bleve.New(ix.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create text index: %w", err)
	}

	batch := index.NewBatch()
	for _, rec := range records {
		if rec.Empty() {
			continue
		}
		payload := rec.Payload()
		doc := make(map[string]string, len(payload)+1)
		for k, v := range payload {
			doc[k] = v
		}
		doc["content"] = rec.Passage()
		if err := batch.Index(roster.DocumentID(payload), doc); err != nil {
			_ = index.Close()
			return fmt.Errorf("index record: %w", err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return fmt.Errorf("write text index batch: %w", err)
	}

	ix.index = index
	return nil
}

// SearchText runs a boosted disjunction query across names, departments
// and passage text.
func (ix *Index) SearchText(ctx context.Context, query string, limit int) ([]vectorstore.ScoredDocument, error) {
	if limit <= 0 {
		limit = 5
	}

	ix.mu.Lock()
	index := ix.index
	ix.mu.Unlock()
	if index == nil {
		return nil, fmt.Errorf("text index is closed")
	}

	nameQuery := bleve.NewMatchQuery(query)
	nameQuery.SetField(roster.FieldDisplayName)
	nameQuery.SetBoost(2.0)
	departmentQuery := bleve.NewMatchQuery(query)
	departmentQuery.SetField(roster.FieldDepartment)
	departmentQuery.SetBoost(1.5)
	contentQuery := bleve.NewMatchQuery(query)
	contentQuery.SetField("content")
	contentQuery.SetBoost(1.0)

	disjunction := bleve.NewDisjunctionQuery(
		[]blevequery.Query{nameQuery, departmentQuery, contentQuery}...)

	req := bleve.NewSearchRequestOptions(disjunction, limit, 0, false)
	req.Fields = storedFields

	res, err := index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}

	docs := make([]vectorstore.ScoredDocument, 0, len(res.Hits))
	for _, hit := range res.Hits {
		payload := make(map[string]string, len(storedFields))
		for _, field := range storedFields {
			val, _ := hit.Fields[field].(string)
			payload[field] = val
		}
		docs = append(docs, vectorstore.ScoredDocument{
			ID:      hit.ID,
			Score:   float32(hit.Score),
			Payload: payload,
		})
	}
	return docs, nil
}

// Count returns the number of indexed entries.
func (ix *Index) Count() (uint64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.index == nil {
		return 0, fmt.Errorf("text index is closed")
	}
	return ix.index.DocCount()
}

func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.index == nil {
		return nil
	}
	err := ix.index.Close()
	ix.index = nil
	return err
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultField = "content"

	docMapping := bleve.NewDocumentMapping()

	for _, field := range storedFields {
		fieldMapping := bleve.NewTextFieldMapping()
		fieldMapping.Store = true
		fieldMapping.Index = true
		docMapping.AddFieldMappingsAt(field, fieldMapping)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
