// Package embeddings provides embedding generation via multiple providers.
//
// Providers turn text into fixed-length vectors for similarity search.
// Supported backends: any OpenAI-compatible API (OpenAI, TEI) and Ollama.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for embedding operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownProvider indicates an unrecognized provider kind.
	// Surfaced at construction time, not first use.
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)

// Kind identifies a supported embedding backend.
type Kind string

const (
	// KindOpenAI is any OpenAI-compatible embedding API (OpenAI, TEI).
	KindOpenAI Kind = "openai"
	// KindOllama is a local Ollama server.
	KindOllama Kind = "ollama"
)

// Provider is the interface for embedding providers.
type Provider interface {
	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments generates embeddings for multiple texts.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension for the configured model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Kind selects the backend: "openai" or "ollama". Default: "openai".
	Kind Kind

	// BaseURL is the API base URL. Required for ollama; for openai it
	// defaults to the public OpenAI endpoint and accepts TEI URLs.
	BaseURL string

	// Model is the embedding model name.
	Model string

	// APIKey is the API key (optional for TEI and ollama).
	APIKey string

	// Dimension overrides the detected embedding dimension.
	Dimension int

	// Timeout bounds every embedding call. Default: 30s.
	Timeout time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Kind == "" {
		c.Kind = KindOpenAI
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Dimension == 0 {
		c.Dimension = detectDimension(c.Model)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Kind == KindOllama && c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required for ollama", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	return nil
}

// detectDimension returns the embedding dimension for a model name.
// Falls back to 768 for unknown models.
func detectDimension(model string) int {
	switch {
	case strings.Contains(model, "text-embedding-3-large"):
		return 3072
	case strings.Contains(model, "text-embedding-3-small"),
		strings.Contains(model, "ada-002"):
		return 1536
	case strings.Contains(model, "mxbai-embed-large"),
		strings.Contains(model, "large"):
		return 1024
	case strings.Contains(model, "small"), strings.Contains(model, "mini"):
		return 384
	default:
		return 768
	}
}

// NewProvider creates an embedding provider based on the configuration.
// Unknown kinds are rejected here so misconfiguration is caught at startup.
func NewProvider(cfg Config) (Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Kind {
	case KindOpenAI:
		return newOpenAIProvider(cfg)
	case KindOllama:
		return newOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Kind)
	}
}
