// Package config provides configuration loading for brandforge.
//
// Configuration is loaded from a YAML file, then overridden by
// environment variables, with hardcoded defaults filling the gaps.
package config

import (
	"fmt"

	"github.com/brandforge/brandforge/internal/assembler"
	"github.com/brandforge/brandforge/internal/conversation"
	"github.com/brandforge/brandforge/internal/embeddings"
	"github.com/brandforge/brandforge/internal/engine"
	"github.com/brandforge/brandforge/internal/llm"
	"github.com/brandforge/brandforge/internal/orchestrator"
	"github.com/brandforge/brandforge/internal/telemetry"
	"github.com/brandforge/brandforge/internal/vectorstore"
)

// Config holds the complete brandforge configuration.
type Config struct {
	Log          LogConfig          `koanf:"log"`
	Embeddings   EmbeddingsConfig   `koanf:"embeddings"`
	VectorStore  VectorStoreConfig  `koanf:"vectorstore"`
	Assembler    AssemblerConfig    `koanf:"assembler"`
	Conversation ConversationConfig `koanf:"conversation"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Engine       EngineConfig       `koanf:"engine"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

// TelemetryConfig holds tracing configuration.
type TelemetryConfig struct {
	Enabled         bool     `koanf:"enabled"`
	ServiceName     string   `koanf:"service_name"`
	ServiceVersion  string   `koanf:"service_version"`
	Endpoint        string   `koanf:"endpoint"`
	Protocol        string   `koanf:"protocol"`
	Insecure        bool     `koanf:"insecure"`
	SamplingRate    float64  `koanf:"sampling_rate"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // console, json
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	Kind      string   `koanf:"kind"` // openai, ollama
	BaseURL   string   `koanf:"base_url"`
	Model     string   `koanf:"model"`
	APIKey    Secret   `koanf:"api_key"`
	Dimension int      `koanf:"dimension"`
	Timeout   Duration `koanf:"timeout"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	Provider string        `koanf:"provider"` // memory, chromem
	Chromem  ChromemConfig `koanf:"chromem"`
}

// ChromemConfig holds the embedded chromem store configuration.
type ChromemConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// AssemblerConfig holds context assembly tuning.
type AssemblerConfig struct {
	TopK           int     `koanf:"top_k"`
	ScoreThreshold float32 `koanf:"score_threshold"`
	RecentTurns    int     `koanf:"recent_turns"`
}

// ConversationConfig holds session history tuning.
type ConversationConfig struct {
	TurnCap int `koanf:"turn_cap"`
}

// OrchestratorConfig holds model routing configuration.
type OrchestratorConfig struct {
	HealthTTL Duration         `koanf:"health_ttl"`
	Providers []ProviderConfig `koanf:"providers"`
}

// ProviderConfig describes one model provider entry.
type ProviderConfig struct {
	Name        string   `koanf:"name"`
	Kind        string   `koanf:"kind"` // gemini, ollama, openai
	Model       string   `koanf:"model"`
	APIKey      Secret   `koanf:"api_key"`
	BaseURL     string   `koanf:"base_url"`
	CostWeight  float64  `koanf:"cost_weight"`
	Timeout     Duration `koanf:"timeout"`
	PingTimeout Duration `koanf:"ping_timeout"`
}

// EngineConfig holds invocation pipeline tuning.
type EngineConfig struct {
	WriteBackTimeout Duration `koanf:"write_back_timeout"`
}

// Validate checks the full configuration tree.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	switch c.VectorStore.Provider {
	case "memory", "chromem":
	default:
		return fmt.Errorf("invalid vectorstore provider: %q", c.VectorStore.Provider)
	}

	ec := c.EmbeddingsProviderConfig()
	ec.ApplyDefaults()
	if err := ec.Validate(); err != nil {
		return fmt.Errorf("embeddings: %w", err)
	}

	seen := make(map[string]bool, len(c.Orchestrator.Providers))
	for i, p := range c.Orchestrator.Providers {
		pc := providerConfig(p)
		pc.ApplyDefaults()
		if err := pc.Validate(); err != nil {
			return fmt.Errorf("provider %d (%s): %w", i, p.Name, err)
		}
		if seen[pc.Name] {
			return fmt.Errorf("provider %d: duplicate name %q", i, pc.Name)
		}
		seen[pc.Name] = true
	}
	return nil
}

// EmbeddingsProviderConfig maps the embeddings section onto the
// provider package's config.
func (c *Config) EmbeddingsProviderConfig() embeddings.Config {
	return embeddings.Config{
		Kind:      embeddings.Kind(c.Embeddings.Kind),
		BaseURL:   c.Embeddings.BaseURL,
		Model:     c.Embeddings.Model,
		APIKey:    c.Embeddings.APIKey.Value(),
		Dimension: c.Embeddings.Dimension,
		Timeout:   c.Embeddings.Timeout.Duration(),
	}
}

// MemoryStoreConfig maps onto the in-memory vector store config.
func (c *Config) MemoryStoreConfig() vectorstore.MemoryConfig {
	return vectorstore.MemoryConfig{VectorSize: c.Embeddings.Dimension}
}

// ChromemStoreConfig maps onto the chromem vector store config.
func (c *Config) ChromemStoreConfig() vectorstore.ChromemConfig {
	return vectorstore.ChromemConfig{
		Path:       c.VectorStore.Chromem.Path,
		Compress:   c.VectorStore.Chromem.Compress,
		VectorSize: c.Embeddings.Dimension,
	}
}

// AssemblerComponentConfig maps onto the assembler config.
func (c *Config) AssemblerComponentConfig() assembler.Config {
	return assembler.Config{
		TopK:           c.Assembler.TopK,
		ScoreThreshold: c.Assembler.ScoreThreshold,
		RecentTurns:    c.Assembler.RecentTurns,
	}
}

// ConversationStoreConfig maps onto the conversation store config.
func (c *Config) ConversationStoreConfig() conversation.MemoryStoreConfig {
	return conversation.MemoryStoreConfig{TurnCap: c.Conversation.TurnCap}
}

// OrchestratorComponentConfig maps onto the orchestrator config.
func (c *Config) OrchestratorComponentConfig() orchestrator.Config {
	return orchestrator.Config{HealthTTL: c.Orchestrator.HealthTTL.Duration()}
}

// ProviderConfigs maps the provider entries onto llm configs.
func (c *Config) ProviderConfigs() []llm.Config {
	out := make([]llm.Config, len(c.Orchestrator.Providers))
	for i, p := range c.Orchestrator.Providers {
		out[i] = providerConfig(p)
	}
	return out
}

func providerConfig(p ProviderConfig) llm.Config {
	return llm.Config{
		Name:        p.Name,
		Kind:        llm.Kind(p.Kind),
		Model:       p.Model,
		APIKey:      p.APIKey.Value(),
		BaseURL:     p.BaseURL,
		CostWeight:  p.CostWeight,
		Timeout:     p.Timeout.Duration(),
		PingTimeout: p.PingTimeout.Duration(),
	}
}

// EngineComponentConfig maps onto the engine config.
func (c *Config) EngineComponentConfig() engine.Config {
	return engine.Config{WriteBackTimeout: c.Engine.WriteBackTimeout.Duration()}
}

// TelemetryComponentConfig maps onto the telemetry config.
func (c *Config) TelemetryComponentConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:         c.Telemetry.Enabled,
		ServiceName:     c.Telemetry.ServiceName,
		ServiceVersion:  c.Telemetry.ServiceVersion,
		Endpoint:        c.Telemetry.Endpoint,
		Protocol:        c.Telemetry.Protocol,
		Insecure:        c.Telemetry.Insecure,
		SamplingRate:    c.Telemetry.SamplingRate,
		ShutdownTimeout: c.Telemetry.ShutdownTimeout.Duration(),
	}
}
