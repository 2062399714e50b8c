package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/obudai/phonebook-rag/internal/config"
	"github.com/obudai/phonebook-rag/internal/server"
)

// handleServe implements the serve subcommand
func handleServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	var port int
	var noIngest bool
	fs.IntVar(&port, "port", 0, "Override listen port")
	fs.BoolVar(&noIngest, "no-ingest", false, "Skip background ingestion on startup")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    phonebook serve [options]

DESCRIPTION:
    Run the HTTP API server. On startup a background ingestion populates
    the collection unless it already exists.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Serve on the configured port
    phonebook serve

    # Serve on a specific port without touching the collection
    phonebook serve -port 8080 -no-ingest
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer comps.close()

	coordinator := comps.newCoordinator(cfg, false)
	if !noIngest {
		coordinator.EnsureIngested(context.Background())
	}

	srv := server.New(cfg, comps.store, comps.engine, generatorOrNil(comps), coordinator)
	log.Printf("Serving on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// generatorOrNil keeps the nil-ness of the generator visible through the
// server.AnswerGenerator interface.
func generatorOrNil(comps *components) server.AnswerGenerator {
	if comps.generator == nil {
		return nil
	}
	return comps.generator
}
