package embeddings

import (
	"context"
	"fmt"
	"time"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// ollamaProvider generates embeddings through a local Ollama server.
type ollamaProvider struct {
	embedder  *lcembeddings.EmbedderImpl
	dimension int
	timeout   time.Duration
}

func newOllamaProvider(cfg Config) (*ollamaProvider, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ollama client: %w", err)
	}

	embedder, err := lcembeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &ollamaProvider{
		embedder:  embedder,
		dimension: cfg.Dimension,
		timeout:   cfg.Timeout,
	}, nil
}

func (p *ollamaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vector, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vector, nil
}

func (p *ollamaProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return vectors, nil
}

func (p *ollamaProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; the client is plain HTTP.
func (p *ollamaProvider) Close() error {
	return nil
}

var _ Provider = (*ollamaProvider)(nil)
