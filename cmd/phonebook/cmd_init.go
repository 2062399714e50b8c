package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/obudai/phonebook-rag/internal/config"
)

// handleInit implements the init subcommand. It runs before config
// loading so it works on a fresh machine.
func handleInit(configPath string, args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    phonebook [-config <path>] init

DESCRIPTION:
    Write a commented configuration template to the config path
    (default ~/.phonebook/config/phonebook.yaml). An existing file is
    never overwritten.

EXAMPLES:
    phonebook init
    phonebook -config ./phonebook.yaml init
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	path := configPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		path = filepath.Join(homeDir, ".phonebook", "config", "phonebook.yaml")
	}

	created, err := config.WriteDefaultTemplate(path)
	if err != nil {
		log.Fatalf("Failed to write config template: %v", err)
	}
	if !created {
		fmt.Printf("Config already exists at %s, leaving it untouched\n", path)
		return
	}
	fmt.Printf("Wrote config template to %s\n", path)
	fmt.Println("Edit it (at minimum set qdrant.url, roster.path and OPENAI_API_KEY), then run: phonebook ingest")
}
