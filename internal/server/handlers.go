package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/obudai/phonebook-rag/internal/answer"
	"github.com/obudai/phonebook-rag/internal/ingest"
	"github.com/obudai/phonebook-rag/internal/retrieval"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()

	connected := s.store.IsConnected(ctx)
	exists := false
	if connected {
		var err error
		exists, err = s.store.CollectionExists(ctx)
		if err != nil {
			exists = false
		}
	}

	status := "degraded"
	if connected && exists {
		status = "healthy"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:           status,
		QdrantConnected:  connected,
		CollectionExists: exists,
		IngestionState:   s.ingestor.Status().State.String(),
	})
}

func (s *Server) handleCollectionInfo(c *gin.Context) {
	ctx := c.Request.Context()

	if !s.store.IsConnected(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vector store not connected"})
		return
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": "collection does not exist"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, CollectionInfoResponse{
		Name:        s.cfg.Qdrant.Collection,
		PointsCount: count,
	})
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Language == "" {
		req.Language = s.cfg.Search.DefaultLanguage
	}
	if req.Language != "hu" && req.Language != "en" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported language: %s", req.Language)})
		return
	}
	if req.TopK == 0 {
		req.TopK = s.cfg.Search.DefaultTopK
	}
	if req.TopK < 1 || req.TopK > s.cfg.Search.MaxTopK {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("top_k must be between 1 and %d", s.cfg.Search.MaxTopK),
		})
		return
	}

	if s.generator == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "LLM engine not available. Please check OPENAI_API_KEY.",
		})
		return
	}

	ctx := c.Request.Context()

	hits, err := s.engine.Search(ctx, retrieval.Request{
		Query:          req.Query,
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionMissing) {
			c.JSON(http.StatusOK, QueryResponse{
				Answer:   answer.NotReadyMessage(req.Language),
				Sources:  []SearchResult{},
				Language: req.Language,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("error processing query: %v", err)})
		return
	}

	if len(hits) == 0 {
		c.JSON(http.StatusOK, QueryResponse{
			Answer:   answer.NoResultsMessage(req.Language),
			Sources:  []SearchResult{},
			Language: req.Language,
		})
		return
	}

	generated, err := s.generator.Generate(ctx, req.Query, hits, req.Language)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("error processing query: %v", err)})
		return
	}

	sources := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, SearchResult{
			Score:    hit.Score,
			Metadata: hit.Payload,
			Content:  hit.Payload["content"],
		})
	}

	c.JSON(http.StatusOK, QueryResponse{
		Answer:   generated,
		Sources:  sources,
		Language: req.Language,
	})
}

func (s *Server) handleReindex(c *gin.Context) {
	count, err := s.ingestor.Run(c.Request.Context(), true)
	if err != nil {
		if errors.Is(err, ingest.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "reindexing already in progress"})
			return
		}
		log.Printf("reindex failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("error during reindexing: %v", err)})
		return
	}

	c.JSON(http.StatusOK, ReindexResponse{
		Message:        "Reindexing completed successfully",
		DocumentsCount: count,
	})
}
