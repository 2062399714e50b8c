package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/obudai/phonebook-rag/internal/config"
)

// handleIngest implements the ingest subcommand
func handleIngest(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)

	var force bool
	var rosterPath string
	fs.BoolVar(&force, "force", false, "Drop the collection and rebuild it from the roster file")
	fs.StringVar(&rosterPath, "roster", "", "Roster file or glob (overrides config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    phonebook ingest [options]

DESCRIPTION:
    Parse the staff roster, embed each entry and upsert the vectors into
    the collection. Without -force an existing collection is left alone.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Populate the collection if it does not exist yet
    phonebook ingest

    # Rebuild from a specific export
    phonebook ingest -force -roster ./exports/telefonkonyv-2026-08.csv
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if rosterPath != "" {
		cfg.Roster.Path = rosterPath
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer comps.close()

	coordinator := comps.newCoordinator(cfg, true)
	count, err := coordinator.Run(context.Background(), force)
	if err != nil {
		log.Fatalf("Ingestion failed: %v", err)
	}

	fmt.Printf("Ingested %d documents into collection %q\n", count, cfg.Qdrant.Collection)
}
