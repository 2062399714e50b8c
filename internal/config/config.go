package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Roster    RosterConfig    `yaml:"roster,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	TextIndex TextIndexConfig `yaml:"text_index,omitempty"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty"`
	StaticDir string `yaml:"static_dir,omitempty"` // optional directory served at /
}

// QdrantConfig holds vector database configuration
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	TimeoutSec int    `yaml:"timeout_sec,omitempty"`

	// LocalPath switches storage to the embedded SQLite store.
	// If set, URL is ignored. Mainly useful for tests and offline runs.
	LocalPath string `yaml:"local_path,omitempty"`
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Model     string `yaml:"model,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty"`
}

// LLMConfig holds answer generation configuration
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url,omitempty"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
}

// RosterConfig holds roster ingestion configuration
type RosterConfig struct {
	// Path is a file path or doublestar glob; the newest match wins.
	Path string `yaml:"path,omitempty"`
}

// SearchConfig holds retrieval configuration
type SearchConfig struct {
	DefaultTopK     int    `yaml:"default_top_k,omitempty"`
	MaxTopK         int    `yaml:"max_top_k,omitempty"`
	DefaultLanguage string `yaml:"default_language,omitempty"` // "hu" | "en"
}

// TextIndexConfig holds the lexical fallback index configuration
type TextIndexConfig struct {
	// Path to the bleve index directory.
	// If empty, uses ~/.phonebook/data/<collection>.bleve
	Path    string `yaml:"path,omitempty"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// Load loads configuration from the default config file
// Default location: ~/.phonebook/config/phonebook.yaml
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadFromFile(filepath.Join(homeDir, ".phonebook", "config", "phonebook.yaml"))
}

// LoadFromFile loads configuration from a specific file. Values from the
// process environment (and a .env file in the working directory, if present)
// override the file.
func LoadFromFile(path string) (*Config, error) {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			homeDir, _ := os.UserHomeDir()
			defaultPath := filepath.Join(homeDir, ".phonebook", "config", "phonebook.yaml")
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv builds a configuration from environment variables alone,
// without requiring a config file. Used by `phonebook serve` in containers
// where only env vars are provided.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	cfg.applyEnvOverrides()

	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with -config flag\n"+
		"  3. Run 'phonebook init' to create a config template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// applyEnvOverrides applies environment variable overrides. The variable
// names match the ones the deployment tooling already exports.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.Qdrant.URL = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.Qdrant.APIKey = v
	}
	if v := os.Getenv("QDRANT_COLLECTION"); v != "" {
		c.Qdrant.Collection = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Embedding.APIKey = v
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("DATA_PATH"); v != "" {
		c.Roster.Path = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() error {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}

	if c.Qdrant.URL == "" && c.Qdrant.LocalPath == "" {
		c.Qdrant.URL = "http://localhost:6333"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "obuda_phonebook"
	}
	if c.Qdrant.TimeoutSec == 0 {
		c.Qdrant.TimeoutSec = 300
	}
	if c.Qdrant.LocalPath != "" {
		c.Qdrant.LocalPath = expandPath(c.Qdrant.LocalPath)
	}

	if c.Embedding.BaseURL == "" {
		c.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "intfloat/multilingual-e5-large"
	}
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = 100
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}

	if c.Roster.Path != "" {
		c.Roster.Path = expandPath(c.Roster.Path)
	}

	if c.Search.DefaultTopK == 0 {
		c.Search.DefaultTopK = 5
	}
	if c.Search.MaxTopK == 0 {
		c.Search.MaxTopK = 20
	}
	if c.Search.DefaultLanguage == "" {
		c.Search.DefaultLanguage = "hu"
	}

	if c.TextIndex.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			c.TextIndex.Path = filepath.Join(homeDir, ".phonebook", "data",
				c.Qdrant.Collection+".bleve")
		}
	} else {
		c.TextIndex.Path = expandPath(c.TextIndex.Path)
	}
	if c.TextIndex.Enabled == nil {
		enabled := true
		c.TextIndex.Enabled = &enabled
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got: %d", c.Server.Port)
	}

	if c.Qdrant.URL == "" && c.Qdrant.LocalPath == "" {
		return fmt.Errorf("qdrant requires either url or local_path")
	}

	if c.Embedding.BatchSize <= 0 || c.Embedding.BatchSize > 1000 {
		return fmt.Errorf("embedding batch_size must be between 1 and 1000, got: %d", c.Embedding.BatchSize)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be between 0 and 2, got: %g", c.LLM.Temperature)
	}

	if c.Search.DefaultTopK < 1 || c.Search.DefaultTopK > c.Search.MaxTopK {
		return fmt.Errorf("search default_top_k must be between 1 and %d, got: %d",
			c.Search.MaxTopK, c.Search.DefaultTopK)
	}

	switch c.Search.DefaultLanguage {
	case "hu", "en":
	default:
		return fmt.Errorf("unsupported default language: %s", c.Search.DefaultLanguage)
	}

	return nil
}

// TextIndexEnabled reports whether the lexical fallback index is on.
func (c *Config) TextIndexEnabled() bool {
	return c.TextIndex.Enabled == nil || *c.TextIndex.Enabled
}

const defaultConfigTemplate = `# Phonebook RAG service configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.phonebook/config/phonebook.yaml
#
# Environment variables override this file:
#   QDRANT_URL, QDRANT_API_KEY, QDRANT_COLLECTION, OPENAI_API_KEY,
#   OPENAI_BASE_URL, EMBEDDING_MODEL, LLM_MODEL, DATA_PATH, PORT

server:
  host: 0.0.0.0
  port: 8000

qdrant:
  url: http://localhost:6333
  collection: obuda_phonebook
  timeout_sec: 300

embedding:
  base_url: https://api.openai.com/v1
  # api_key: your-api-key
  model: intfloat/multilingual-e5-large
  batch_size: 100

llm:
  base_url: https://api.openai.com/v1
  # api_key: your-api-key
  model: gpt-4o-mini
  temperature: 0.3
  max_tokens: 500

roster:
  # File path or glob; the newest matching export is ingested.
  path: data/*.csv

search:
  default_top_k: 5
  max_top_k: 20
  default_language: hu
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
