// Package llm adapts chat model backends behind a single Provider
// interface. Adapters exist for Gemini, Ollama and OpenAI-compatible
// endpoints, all driven through langchaingo so the invocation path is
// shared and only construction and health probing differ per backend.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// Kind identifies a model backend family.
type Kind string

const (
	KindGemini Kind = "gemini"
	KindOllama Kind = "ollama"
	KindOpenAI Kind = "openai"
)

// Valid reports whether the kind is a known backend family.
func (k Kind) Valid() bool {
	switch k {
	case KindGemini, KindOllama, KindOpenAI:
		return true
	}
	return false
}

var (
	// ErrInvalidConfig indicates a provider configuration error.
	ErrInvalidConfig = errors.New("invalid provider config")

	// ErrUnknownKind indicates an unrecognized backend kind.
	ErrUnknownKind = errors.New("unknown provider kind")

	// ErrGenerationFailed wraps backend invocation errors.
	ErrGenerationFailed = errors.New("generation failed")
)

const (
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 60 * time.Second

	// DefaultPingTimeout bounds a health probe.
	DefaultPingTimeout = 2 * time.Second

	// charsPerToken is the estimate used when the backend reports no
	// token usage.
	charsPerToken = 4
)

// TokenUsage reports prompt and completion token counts. Estimated
// counts are marked so downstream accounting can tell them apart.
type TokenUsage struct {
	Prompt     int
	Completion int
	Total      int
	Estimated  bool
}

// Generation is the result of a single model invocation.
type Generation struct {
	Content  string
	Usage    TokenUsage
	Duration time.Duration
}

// Options tune a single invocation. Zero values leave the backend
// default in place.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Provider is a single model backend.
type Provider interface {
	// Name returns the registry name, e.g. "gemini-pro".
	Name() string

	// Kind returns the backend family.
	Kind() Kind

	// CostWeight is the relative cost per generated token, used to
	// order providers of equal preference. Lower is cheaper.
	CostWeight() float64

	// Invoke generates a completion for the prompt.
	Invoke(ctx context.Context, prompt string, opts Options) (*Generation, error)

	// Ping reports whether the backend currently answers. It must
	// return within the configured ping timeout.
	Ping(ctx context.Context) bool
}

// Config describes one provider instance.
type Config struct {
	Name        string        `koanf:"name"`
	Kind        Kind          `koanf:"kind"`
	Model       string        `koanf:"model"`
	APIKey      string        `koanf:"api_key"`
	BaseURL     string        `koanf:"base_url"`
	CostWeight  float64       `koanf:"cost_weight"`
	Timeout     time.Duration `koanf:"timeout"`
	PingTimeout time.Duration `koanf:"ping_timeout"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = DefaultPingTimeout
	}
	if c.Name == "" {
		c.Name = c.Model
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: kind %q", ErrUnknownKind, c.Kind)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	switch c.Kind {
	case KindGemini:
		if c.APIKey == "" {
			return fmt.Errorf("%w: gemini requires an API key", ErrInvalidConfig)
		}
	case KindOllama:
		if c.BaseURL == "" {
			return fmt.Errorf("%w: ollama requires a base URL", ErrInvalidConfig)
		}
	case KindOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("%w: openai requires an API key", ErrInvalidConfig)
		}
	}
	return nil
}

// NewProvider builds a provider for the configured backend kind.
func NewProvider(ctx context.Context, config Config) (Provider, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Kind {
	case KindGemini:
		return newGemini(ctx, config)
	case KindOllama:
		return newOllama(config)
	case KindOpenAI:
		return newOpenAI(config)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, config.Kind)
}

// provider is the shared langchaingo-backed implementation. Backends
// differ only in construction and the ping function.
type provider struct {
	name       string
	kind       Kind
	model      llms.Model
	costWeight float64
	timeout    time.Duration
	ping       func(ctx context.Context) bool
}

var _ Provider = (*provider)(nil)

func (p *provider) Name() string        { return p.name }
func (p *provider) Kind() Kind          { return p.kind }
func (p *provider) CostWeight() float64 { return p.costWeight }

func (p *provider) Invoke(ctx context.Context, prompt string, opts Options) (*Generation, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var callOpts []llms.CallOption
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}

	start := time.Now()
	resp, err := p.model.GenerateContent(ctx,
		[]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, prompt)},
		callOpts...)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGenerationFailed, p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s: empty response", ErrGenerationFailed, p.name)
	}

	choice := resp.Choices[0]
	return &Generation{
		Content:  choice.Content,
		Usage:    usageFromChoice(prompt, choice),
		Duration: elapsed,
	}, nil
}

func (p *provider) Ping(ctx context.Context) bool {
	return p.ping(ctx)
}

// probePing runs a minimal generation as the health check. Used by
// backends without a cheap status endpoint.
func probePing(p *provider, pingTimeout time.Duration) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		_, err := p.model.GenerateContent(ctx,
			[]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, "ping")},
			llms.WithMaxTokens(1))
		return err == nil
	}
}

// usageFromChoice extracts token usage from the backend's generation
// info, falling back to a character-count estimate.
func usageFromChoice(prompt string, choice *llms.ContentChoice) TokenUsage {
	if choice.GenerationInfo != nil {
		promptTokens, pok := intInfo(choice.GenerationInfo, "PromptTokens")
		completionTokens, cok := intInfo(choice.GenerationInfo, "CompletionTokens")
		if pok && cok {
			return TokenUsage{
				Prompt:     promptTokens,
				Completion: completionTokens,
				Total:      promptTokens + completionTokens,
			}
		}
	}
	return EstimateUsage(prompt, choice.Content)
}

func intInfo(info map[string]any, key string) (int, bool) {
	v, ok := info[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// EstimateUsage approximates token counts at four characters per token.
func EstimateUsage(prompt, completion string) TokenUsage {
	p := len(prompt) / charsPerToken
	c := len(completion) / charsPerToken
	return TokenUsage{Prompt: p, Completion: c, Total: p + c, Estimated: true}
}
