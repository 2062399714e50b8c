package internal

import (
	"fmt"
	"os"
)

const Version = "1.0.0"

// PrintUsage writes the top-level help text to stderr.
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `phonebook - RAG service for the Óbuda University staff directory

Version: %s

USAGE:
    phonebook [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.phonebook/config/phonebook.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    serve
        Run the HTTP API server (background ingestion on startup)

    ingest
        Ingest the roster file into the vector store

    search
        Run a retrieval query from the command line

    status
        Show vector store and collection status

    drop
        Delete the collection from the vector store

    init
        Create a default config file

EXAMPLES:
    # Create a config template and edit it
    phonebook init

    # Ingest the roster
    phonebook ingest

    # Force a full rebuild
    phonebook ingest -force

    # Start the API server
    phonebook serve

    # Query from the shell
    phonebook search "Györök György telefonszáma"

    # Show collection status
    phonebook status

For detailed help on each command, use:
    phonebook <command> -help
`, Version)
}

// PrintConfigExample writes a ready-to-edit config example to stderr.
func PrintConfigExample() {
	homeDir, _ := os.UserHomeDir()
	configPath := fmt.Sprintf("%s/.phonebook/config/phonebook.yaml", homeDir)

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

qdrant:
  url: http://localhost:6333
  collection: obuda_phonebook

embedding:
  base_url: https://api.openai.com/v1
  api_key: your-api-key
  model: intfloat/multilingual-e5-large

llm:
  api_key: your-api-key
  model: gpt-4o-mini

roster:
  path: data/*.csv

Or run 'phonebook init' to create the template, then edit it.
Environment variables (QDRANT_URL, OPENAI_API_KEY, DATA_PATH, ...) override the file.
`, configPath)
}
