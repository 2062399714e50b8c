package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/obudai/phonebook-rag/internal/config"
)

// handleDrop implements the drop subcommand
func handleDrop(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("drop", flag.ExitOnError)

	var yes bool
	fs.BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    phonebook drop [options]

DESCRIPTION:
    Delete the collection from the vector store. The next ingest or
    server start rebuilds it from the roster file.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    phonebook drop
    phonebook drop -yes
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if !yes {
		fmt.Printf("Delete collection %q? [y/N] ", cfg.Qdrant.Collection)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer comps.close()

	if err := comps.store.DeleteCollection(context.Background()); err != nil {
		log.Fatalf("Failed to delete collection: %v", err)
	}
	fmt.Printf("Collection %q deleted\n", cfg.Qdrant.Collection)
}
