package internal

import (
	"github.com/obudai/phonebook-rag/internal/config"
)

// LoadConfig resolves the effective configuration. An explicit path is
// required to exist; without one, a missing default config file falls
// back to environment variables so containerized deployments need no
// file at all.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}

	cfg, err := config.Load()
	if err != nil {
		if config.IsConfigNotFound(err) {
			return config.LoadFromEnv()
		}
		return nil, err
	}
	return cfg, nil
}
