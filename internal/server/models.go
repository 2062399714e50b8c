package server

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query          string   `json:"query" binding:"required"`
	Language       string   `json:"language"`
	TopK           int      `json:"top_k"`
	ScoreThreshold *float32 `json:"score_threshold"`
}

// SearchResult is one retrieved roster entry in a query response.
type SearchResult struct {
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata"`
	Content  string            `json:"content"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Answer   string         `json:"answer"`
	Sources  []SearchResult `json:"sources"`
	Language string         `json:"language"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	QdrantConnected  bool   `json:"qdrant_connected"`
	CollectionExists bool   `json:"collection_exists"`
	IngestionState   string `json:"ingestion_state"`
}

// CollectionInfoResponse is the body of GET /collection-info.
type CollectionInfoResponse struct {
	Name        string `json:"name"`
	PointsCount int    `json:"points_count"`
}

// ReindexResponse is the body of a successful reindex call.
type ReindexResponse struct {
	Message        string `json:"message"`
	DocumentsCount int    `json:"documents_count"`
}
