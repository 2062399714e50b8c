package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/obudai/phonebook-rag/internal/config"
	"github.com/obudai/phonebook-rag/internal/retrieval"
	"github.com/obudai/phonebook-rag/internal/roster"
	"github.com/obudai/phonebook-rag/internal/vectorstore"
)

// handleSearch implements the search subcommand
func handleSearch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var topK int
	var threshold float64
	var jsonOutput bool
	var keyword bool
	fs.IntVar(&topK, "k", 0, "Number of results (defaults to the configured top_k)")
	fs.Float64Var(&threshold, "threshold", -2, "Minimum similarity score (overrides the adaptive threshold)")
	fs.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&keyword, "keyword", false, "Search the lexical text index instead of the vector index")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    phonebook search [options] <query>

DESCRIPTION:
    Run a retrieval-only query against the collection and print the
    matching roster entries with their similarity scores. No answer is
    generated; use the serve subcommand for full question answering.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Find the dean's office
    phonebook search "ki a dékán"

    # More hits, machine readable
    phonebook search -k 10 -json "Kovács tanszékvezető"

    # Exact-name lookup without embeddings
    phonebook search -keyword "Kovács"
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: No query specified\n\n")
		fs.Usage()
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")

	comps, err := buildComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer comps.close()

	if topK <= 0 {
		topK = cfg.Search.DefaultTopK
	}

	var hits []vectorstore.ScoredDocument
	if keyword {
		if comps.textIndex == nil {
			log.Fatalf("Text index is disabled, cannot run a keyword search")
		}
		hits, err = comps.textIndex.SearchText(context.Background(), query, topK)
		if err != nil {
			log.Fatalf("Keyword search failed: %v", err)
		}
	} else {
		req := retrieval.Request{Query: query, TopK: topK}
		if threshold >= -1 {
			t := float32(threshold)
			req.ScoreThreshold = &t
		}
		hits, err = comps.engine.Search(context.Background(), req)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(hits); err != nil {
			log.Fatalf("Failed to encode results: %v", err)
		}
		return
	}

	if len(hits) == 0 {
		fmt.Println("No results.")
		return
	}
	for i, hit := range hits {
		fmt.Printf("%d. %s (score %.4f)\n", i+1, hit.Payload[roster.FieldDisplayName], hit.Score)
		if title := hit.Payload[roster.FieldTitle]; title != "" {
			fmt.Printf("   %s\n", title)
		}
		if dept := hit.Payload[roster.FieldDepartment]; dept != "" {
			fmt.Printf("   %s\n", dept)
		}
		if phone := hit.Payload[roster.FieldTelephoneNumber]; phone != "" {
			fmt.Printf("   tel: %s\n", phone)
		}
		if upn := hit.Payload[roster.FieldUPN]; upn != "" {
			fmt.Printf("   email: %s\n", upn)
		}
	}
}
