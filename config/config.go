package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ollama/ollama/envconfig"
)

type OllamaConfig struct {
	Host        string `toml:"host"`
	ModelFilter string `toml:"model_filter"`
}

type ChatConfig struct {
	KeepPartialOnError bool `toml:"keep_partial_on_error"`
}

type Config struct {
	DataDirectory string       `toml:"data_directory"`
	Debug         bool         `toml:"debug"`
	Ollama        OllamaConfig `toml:"ollama"`
	Chat          ChatConfig   `toml:"chat"`
}

// HistoryDirName is the directory under the data directory holding one
// record per session.
const HistoryDirName = "chat_histories"

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) HistoryDir() string {
	return filepath.Join(c.DataDir(), HistoryDirName)
}

// OllamaHost returns the configured server URL. An empty host falls back to
// OLLAMA_HOST, which the Ollama module resolves to http://127.0.0.1:11434
// when unset.
func (c *Config) OllamaHost() string {
	if host := strings.TrimSpace(c.Ollama.Host); host != "" {
		return strings.TrimRight(host, "/")
	}
	return envconfig.Host().String()
}

func (c *Config) ModelFilter() string {
	if c.Ollama.ModelFilter == "" {
		return DefaultModelFilter
	}
	return c.Ollama.ModelFilter
}

// Load reads the config file from the platform config directory, writing the
// commented template first if it does not exist yet.
func Load() (*Config, error) {
	path := GetConfigFilePath()
	if !FileExists(path) {
		if err := CreateDefaultConfig(path); err != nil {
			return nil, fmt.Errorf("failed to create config: %w", err)
		}
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	// Ensure data directory has correct permissions (fix if needed)
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
