// Package orchestrator routes generation requests across registered
// model providers. Each task category carries an ordered preference
// list; providers are tried one attempt each, preferred first, with the
// remaining registered providers as the fallback tail. Provider health
// is cached with a TTL so a dead backend is skipped instead of eating
// its timeout on every request.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/brandforge/brandforge/internal/llm"
)

var tracer = otel.Tracer("brandforge/orchestrator")

// Category classifies an invocation by task so routing can prefer the
// model families that handle it best.
type Category string

const (
	CategoryWebsite Category = "website_generation"
	CategoryEmail   Category = "email_generation"
	CategoryChatbot Category = "chatbot"
	CategoryImage   Category = "image_generation"
	CategoryGeneral Category = "general"
)

// Valid reports whether the category is one of the known task classes.
func (c Category) Valid() bool {
	switch c {
	case CategoryWebsite, CategoryEmail, CategoryChatbot, CategoryImage, CategoryGeneral:
		return true
	}
	return false
}

var (
	// ErrNoProviders indicates an invoke against an empty registry.
	ErrNoProviders = errors.New("no providers registered")

	// ErrDuplicateProvider indicates a name collision at registration.
	ErrDuplicateProvider = errors.New("provider already registered")
)

// DefaultPreferences returns the built-in category routing table.
// Callers may override per category via Config.Preferences.
func DefaultPreferences() map[Category][]string {
	return map[Category][]string{
		CategoryWebsite: {"gemini-pro", "ollama-llama3"},
		CategoryEmail:   {"gemini-pro", "ollama-mistral"},
		CategoryChatbot: {"gemini-pro", "ollama-llama3"},
		CategoryImage:   {"gemini-pro-vision"},
		CategoryGeneral: {"gemini-pro", "ollama-llama3"},
	}
}

// DefaultHealthTTL is how long a ping result stays trusted.
const DefaultHealthTTL = 30 * time.Second

// Config controls routing and health caching.
type Config struct {
	// Preferences overrides entries of the default routing table.
	Preferences map[Category][]string `koanf:"preferences"`

	// HealthTTL is the ping cache lifetime.
	HealthTTL time.Duration `koanf:"health_ttl"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.HealthTTL <= 0 {
		c.HealthTTL = DefaultHealthTTL
	}
	defaults := DefaultPreferences()
	if c.Preferences == nil {
		c.Preferences = defaults
		return
	}
	for cat, chain := range defaults {
		if _, ok := c.Preferences[cat]; !ok {
			c.Preferences[cat] = chain
		}
	}
}

// Result is a successful invocation outcome. ModelRequested is the
// category's first preference; ModelUsed is the provider that actually
// answered. FallbackUsed is set whenever they differ.
type Result struct {
	Content        string
	ModelUsed      string
	ModelRequested string
	FallbackUsed   bool
	Usage          llm.TokenUsage
	Duration       time.Duration
}

// Attempt records one provider try within a failed invocation.
type Attempt struct {
	Provider string
	Err      error
	Duration time.Duration
}

// ExhaustedError reports that every provider in the fallback chain
// failed. It is distinct from a single-provider failure so callers can
// tell "the backend hiccuped" from "nothing can serve this".
type ExhaustedError struct {
	Category Category
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	names := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		names = append(names, a.Provider)
	}
	return fmt.Sprintf("all providers failed for category %s (tried: %s)",
		e.Category, strings.Join(names, ", "))
}

// Orchestrator is an explicitly constructed provider registry with
// preference-ordered fallback. Safe for concurrent use.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	mu        sync.RWMutex
	providers map[string]llm.Provider
	order     []string

	health *healthCache
}

// New creates an Orchestrator with an empty registry.
func New(cfg Config, logger *zap.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		logger:    logger,
		providers: make(map[string]llm.Provider),
		health:    newHealthCache(cfg.HealthTTL),
	}
}

// Register adds a provider to the registry. Registration order is the
// fallback order for providers outside a category's preference list.
func (o *Orchestrator) Register(p llm.Provider) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.providers[p.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name())
	}
	o.providers[p.Name()] = p
	o.order = append(o.order, p.Name())
	registeredProviders.Set(float64(len(o.order)))
	return nil
}

// Providers returns the registered provider names in registration order.
func (o *Orchestrator) Providers() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// chain returns the fallback order for a category: the preference list
// filtered to registered providers, then every remaining registered
// provider in registration order. Unknown categories use the general
// preferences.
func (o *Orchestrator) chain(category Category) []llm.Provider {
	o.mu.RLock()
	defer o.mu.RUnlock()

	prefs, ok := o.cfg.Preferences[category]
	if !ok {
		prefs = o.cfg.Preferences[CategoryGeneral]
	}

	seen := make(map[string]bool, len(o.order))
	out := make([]llm.Provider, 0, len(o.order))
	for _, name := range prefs {
		if p, ok := o.providers[name]; ok && !seen[name] {
			out = append(out, p)
			seen[name] = true
		}
	}
	for _, name := range o.order {
		if !seen[name] {
			out = append(out, o.providers[name])
			seen[name] = true
		}
	}
	return out
}

// Invoke runs the prompt against the category's fallback chain. Each
// provider gets at most one attempt. Providers with a fresh unhealthy
// ping result are deferred to a second pass that only runs if every
// trusted provider failed. A timeout counts as a failure.
func (o *Orchestrator) Invoke(ctx context.Context, category Category, prompt string, opts llm.Options) (*Result, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.Invoke")
	defer span.End()
	span.SetAttributes(attribute.String("task.category", string(category)))

	chain := o.chain(category)
	if len(chain) == 0 {
		span.SetStatus(codes.Error, ErrNoProviders.Error())
		return nil, ErrNoProviders
	}
	requested := chain[0].Name()

	var (
		attempts []Attempt
		deferred []llm.Provider
	)

	try := func(p llm.Provider) (*Result, bool) {
		start := time.Now()
		gen, err := p.Invoke(ctx, prompt, opts)
		elapsed := time.Since(start)
		// A cancelled caller context says nothing about the provider.
		if ctx.Err() == nil {
			o.health.set(p.Name(), err == nil)
		}
		if err != nil {
			invocationsTotal.WithLabelValues(string(category), p.Name(), "error").Inc()
			o.logger.Warn("provider invocation failed",
				zap.String("provider", p.Name()),
				zap.String("category", string(category)),
				zap.Error(err))
			attempts = append(attempts, Attempt{Provider: p.Name(), Err: err, Duration: elapsed})
			return nil, false
		}
		invocationsTotal.WithLabelValues(string(category), p.Name(), "success").Inc()
		invocationDuration.WithLabelValues(p.Name()).Observe(elapsed.Seconds())
		fallback := p.Name() != requested
		if fallback {
			fallbacksTotal.WithLabelValues(string(category)).Inc()
		}
		return &Result{
			Content:        gen.Content,
			ModelUsed:      p.Name(),
			ModelRequested: requested,
			FallbackUsed:   fallback,
			Usage:          gen.Usage,
			Duration:       elapsed,
		}, true
	}

	for _, p := range chain {
		if healthy, cached := o.health.get(p.Name()); cached && !healthy {
			deferred = append(deferred, p)
			continue
		}
		if res, ok := try(p); ok {
			span.SetStatus(codes.Ok, "")
			return res, nil
		}
	}

	// Every trusted provider failed; give the cached-unhealthy ones a
	// direct shot before declaring exhaustion.
	for _, p := range deferred {
		if res, ok := try(p); ok {
			span.SetStatus(codes.Ok, "")
			return res, nil
		}
	}

	exhausted := &ExhaustedError{Category: category, Attempts: attempts}
	exhaustionsTotal.WithLabelValues(string(category)).Inc()
	span.RecordError(exhausted)
	span.SetStatus(codes.Error, "all providers failed")
	return nil, exhausted
}
