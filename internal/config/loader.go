package config

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// envPrefix namespaces the environment variables read by Load.
	envPrefix = "BRANDFORGE_"
)

// Load reads configuration from an optional YAML file, then overrides
// with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (BRANDFORGE_EMBEDDINGS_BASE_URL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// The configPath parameter is optional; an empty path loads from
// environment and defaults only. A path that exists but fails
// validation (world-readable permissions, over 1MB) is an error.
//
// Environment variables map to YAML fields by stripping the prefix,
// lowercasing, and splitting section from field on the first
// underscore:
//
//	BRANDFORGE_LOG_LEVEL              -> log.level
//	BRANDFORGE_EMBEDDINGS_BASE_URL    -> embeddings.base_url
//	BRANDFORGE_ENGINE_WRITE_BACK_TIMEOUT -> engine.write_back_timeout
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			// Open once and validate through the descriptor to avoid a
			// TOCTOU race between stat and read.
			f, err := os.Open(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to open config file: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
			if err := validateConfigFileProperties(info); err != nil {
				return nil, fmt.Errorf("config file validation failed: %w", err)
			}

			content, err := io.ReadAll(f)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	// Config files may carry API keys, so reject group/world access.
	// Skip on Windows (different permission model).
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	if cfg.Embeddings.Kind == "" {
		cfg.Embeddings.Kind = "ollama"
	}
	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:11434"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "nomic-embed-text"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "memory"
	}
	if cfg.VectorStore.Provider == "chromem" && cfg.VectorStore.Chromem.Path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.VectorStore.Chromem.Path = home + "/.config/brandforge/vectorstore"
		}
	}
}
