package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/obudai/phonebook-rag/internal/config"
)

// statusReport is the machine-readable form of the status subcommand.
type statusReport struct {
	QdrantConnected  bool   `json:"qdrant_connected"`
	Collection       string `json:"collection"`
	CollectionExists bool   `json:"collection_exists"`
	PointsCount      int    `json:"points_count"`
	EmbeddingModel   string `json:"embedding_model"`
	LLMModel         string `json:"llm_model"`
	LLMConfigured    bool   `json:"llm_configured"`
}

// handleStatus implements the status subcommand
func handleStatus(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output status as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    phonebook status [options]

DESCRIPTION:
    Report vector store connectivity, collection state and configured
    models.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    phonebook status
    phonebook status -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer comps.close()

	ctx := context.Background()
	report := statusReport{
		Collection:     cfg.Qdrant.Collection,
		EmbeddingModel: cfg.Embedding.Model,
		LLMModel:       cfg.LLM.Model,
		LLMConfigured:  comps.generator != nil,
	}

	report.QdrantConnected = comps.store.IsConnected(ctx)
	if report.QdrantConnected {
		exists, err := comps.store.CollectionExists(ctx)
		if err != nil {
			log.Fatalf("Failed to check collection: %v", err)
		}
		report.CollectionExists = exists
		if exists {
			count, err := comps.store.Count(ctx)
			if err != nil {
				log.Fatalf("Failed to count points: %v", err)
			}
			report.PointsCount = count
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("Failed to encode status: %v", err)
		}
		return
	}

	fmt.Printf("Vector store:    %s\n", boolWord(report.QdrantConnected, "connected", "unreachable"))
	fmt.Printf("Collection:      %s (%s)\n", report.Collection,
		boolWord(report.CollectionExists, "exists", "missing"))
	if report.CollectionExists {
		fmt.Printf("Points:          %d\n", report.PointsCount)
	}
	fmt.Printf("Embedding model: %s\n", report.EmbeddingModel)
	fmt.Printf("LLM model:       %s (%s)\n", report.LLMModel,
		boolWord(report.LLMConfigured, "configured", "no API key"))
}

func boolWord(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
