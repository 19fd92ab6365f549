// Package main implements the brandforge CLI for tenant context
// operations: seeding business profiles, contextual generation, context
// search and tenant purging.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/brandforge/brandforge/internal/assembler"
	"github.com/brandforge/brandforge/internal/config"
	"github.com/brandforge/brandforge/internal/conversation"
	"github.com/brandforge/brandforge/internal/embeddings"
	"github.com/brandforge/brandforge/internal/engine"
	"github.com/brandforge/brandforge/internal/llm"
	"github.com/brandforge/brandforge/internal/logging"
	"github.com/brandforge/brandforge/internal/orchestrator"
	"github.com/brandforge/brandforge/internal/profile"
	"github.com/brandforge/brandforge/internal/telemetry"
	"github.com/brandforge/brandforge/internal/vectorstore"
)

var (
	configPath string
	tenantID   string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "brandforge",
	Short: "Context-aware AI generation for small businesses",
	Long: `brandforge assembles per-tenant business context and routes generation
requests across configured model providers with health-aware fallback.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config YAML")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "", "tenant ID")
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(healthCmd)
}

// app bundles everything a command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *engine.Engine
	orch   *orchestrator.Orchestrator
	store  vectorstore.Store
	embed  embeddings.Provider
	tel    *telemetry.Telemetry
}

func (a *app) close() {
	a.engine.Flush()
	if err := a.tel.Shutdown(context.Background()); err != nil {
		a.logger.Warn("telemetry shutdown", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing vector store", zap.Error(err))
	}
	if err := a.embed.Close(); err != nil {
		a.logger.Warn("closing embedder", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// buildApp wires config, logging, providers and the engine.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, cfg.TelemetryComponentConfig())
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	if tel.Degraded() {
		logger.Warn("telemetry exporter unavailable, tracing disabled")
	}

	embedder, err := embeddings.NewProvider(cfg.EmbeddingsProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("building embeddings provider: %w", err)
	}

	var store vectorstore.Store
	switch cfg.VectorStore.Provider {
	case "chromem":
		store, err = vectorstore.NewChromemStore(cfg.ChromemStoreConfig(), logger)
	default:
		store, err = vectorstore.NewMemoryStore(cfg.MemoryStoreConfig(), logger)
	}
	if err != nil {
		return nil, fmt.Errorf("building vector store: %w", err)
	}

	orch := orchestrator.New(cfg.OrchestratorComponentConfig(), logger)
	for _, pc := range cfg.ProviderConfigs() {
		p, err := llm.NewProvider(ctx, pc)
		if err != nil {
			return nil, fmt.Errorf("building provider %s: %w", pc.Name, err)
		}
		if err := orch.Register(p); err != nil {
			return nil, err
		}
	}

	profiles := profile.NewMemoryRepository()
	convs := conversation.NewMemoryStore(cfg.ConversationStoreConfig(), logger)
	asm := assembler.New(cfg.AssemblerComponentConfig(), profiles, store, embedder, convs, logger)
	eng := engine.New(cfg.EngineComponentConfig(), asm, orch, embedder, store, profiles, convs, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		engine: eng,
		orch:   orch,
		store:  store,
		embed:  embedder,
		tel:    tel,
	}, nil
}

func requireTenant() error {
	if tenantID == "" {
		return fmt.Errorf("--tenant is required")
	}
	return nil
}
