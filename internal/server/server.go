package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/obudai/phonebook-rag/internal/config"
	"github.com/obudai/phonebook-rag/internal/ingest"
	"github.com/obudai/phonebook-rag/internal/retrieval"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// SearchEngine is the retrieval surface the handlers call.
type SearchEngine interface {
	Search(ctx context.Context, req retrieval.Request) ([]vectorstore.ScoredDocument, error)
}

// AnswerGenerator phrases retrieved entries into an answer. A nil
// generator means no API key was configured; queries then fail with an
// explicit error instead of a silent fallback.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, docs []vectorstore.ScoredDocument, language string) (string, error)
}

// Ingestor is the coordinator surface the reindex endpoint drives.
type Ingestor interface {
	Run(ctx context.Context, force bool) (int, error)
	Status() ingest.Status
}

// Server wires the HTTP layer over the service components.
type Server struct {
	cfg       *config.Config
	store     vectorstore.Store
	engine    SearchEngine
	generator AnswerGenerator
	ingestor  Ingestor
}

func New(cfg *config.Config, store vectorstore.Store, engine SearchEngine, generator AnswerGenerator, ingestor Ingestor) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		engine:    engine,
		generator: generator,
		ingestor:  ingestor,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), corsMiddleware())

	router.GET("/health", s.handleHealth)
	router.GET("/collection-info", s.handleCollectionInfo)
	router.POST("/query", s.handleQuery)
	// GET kept alongside POST so a reindex can be triggered from a browser.
	router.POST("/reindex", s.handleReindex)
	router.GET("/reindex", s.handleReindex)

	s.mountFrontend(router)

	return router
}

// mountFrontend serves the static frontend when a directory is configured,
// otherwise the root answers with a plain API banner.
func (s *Server) mountFrontend(router *gin.Engine) {
	staticDir := s.cfg.Server.StaticDir
	indexPath := filepath.Join(staticDir, "index.html")
	if staticDir != "" {
		if _, err := os.Stat(indexPath); err == nil {
			router.Static("/static", staticDir)
			router.GET("/", func(c *gin.Context) {
				c.File(indexPath)
			})
			return
		}
	}
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Óbuda University Phonebook RAG API"})
	})
}

// Run starts the HTTP server on the configured address.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	return s.Router().Run(addr)
}

// corsMiddleware allows any origin. The frontend is served from other
// hosts during development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
