package embeddings

import (
	"context"
	"fmt"
	"time"

	lcembeddings "github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// openaiProvider generates embeddings through any OpenAI-compatible API.
// This covers both the hosted OpenAI endpoint and self-hosted TEI servers
// exposing the same wire format.
type openaiProvider struct {
	embedder  *lcembeddings.EmbedderImpl
	dimension int
	timeout   time.Duration
}

func newOpenAIProvider(cfg Config) (*openaiProvider, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// langchaingo requires a token; TEI ignores it.
		apiKey = "placeholder"
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := lcembeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &openaiProvider{
		embedder:  embedder,
		dimension: cfg.Dimension,
		timeout:   cfg.Timeout,
	}, nil
}

func (p *openaiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
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

func (p *openaiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
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

func (p *openaiProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op; the client is plain HTTP.
func (p *openaiProvider) Close() error {
	return nil
}

var _ Provider = (*openaiProvider)(nil)
