// Package engine is the contextual invocation pipeline. It ties the
// context assembler, the model orchestrator and the tenant stores
// together: assemble context, compose the prompt, invoke a model, then
// write the interaction back into conversation history and the vector
// store asynchronously.
package engine

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

	"github.com/brandforge/brandforge/internal/assembler"
	"github.com/brandforge/brandforge/internal/conversation"
	"github.com/brandforge/brandforge/internal/embeddings"
	"github.com/brandforge/brandforge/internal/llm"
	"github.com/brandforge/brandforge/internal/orchestrator"
	"github.com/brandforge/brandforge/internal/profile"
	"github.com/brandforge/brandforge/internal/vectorstore"
)

var tracer = otel.Tracer("brandforge/engine")

var (
	// ErrInvalidRequest indicates a request missing required fields.
	ErrInvalidRequest = errors.New("invalid request")
)

// DefaultBasePrompt is used when a request carries no base instructions.
const DefaultBasePrompt = "You are a helpful AI assistant for small businesses."

// DefaultWriteBackTimeout bounds the async context write-back.
const DefaultWriteBackTimeout = 10 * time.Second

// invoker routes prompts across model providers.
type invoker interface {
	Invoke(ctx context.Context, category orchestrator.Category, prompt string, opts llm.Options) (*orchestrator.Result, error)
}

// contextAssembler builds the context block for a tenant query.
type contextAssembler interface {
	Assemble(ctx context.Context, tenantID, sessionID, query string) assembler.Assembled
}

// Config controls pipeline behavior.
type Config struct {
	WriteBackTimeout time.Duration `koanf:"write_back_timeout"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.WriteBackTimeout <= 0 {
		c.WriteBackTimeout = DefaultWriteBackTimeout
	}
}

// Request describes one contextual invocation.
type Request struct {
	TenantID    string
	SessionID   string
	Category    orchestrator.Category
	Query       string
	BasePrompt  string
	SaveContext bool
	Options     llm.Options
}

// InvocationResult is the pipeline outcome. ContextUsed reports whether
// any assembled context made it into the prompt.
type InvocationResult struct {
	Content        string
	ModelUsed      string
	ModelRequested string
	FallbackUsed   bool
	Usage          llm.TokenUsage
	Duration       time.Duration
	ContextUsed    bool
}

// Engine executes contextual invocations for tenants.
type Engine struct {
	cfg       Config
	assembler contextAssembler
	orch      invoker
	embedder  embeddings.Provider
	store     vectorstore.Store
	profiles  profile.Repository
	convs     conversation.Store
	logger    *zap.Logger

	writeBacks sync.WaitGroup
}

// New creates an Engine from its collaborators.
func New(cfg Config, asm contextAssembler, orch invoker, embedder embeddings.Provider, store vectorstore.Store, profiles profile.Repository, convs conversation.Store, logger *zap.Logger) *Engine {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		assembler: asm,
		orch:      orch,
		embedder:  embedder,
		store:     store,
		profiles:  profiles,
		convs:     convs,
		logger:    logger,
	}
}

// Invoke assembles context, composes the prompt and routes it through
// the orchestrator. When SaveContext is set and the request carries a
// session, the interaction is written back asynchronously; write-back
// failures are logged and never surface to the caller.
func (e *Engine) Invoke(ctx context.Context, req Request) (*InvocationResult, error) {
	ctx, span := tracer.Start(ctx, "engine.Invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant.id", req.TenantID),
		attribute.String("task.category", string(req.Category)),
	)

	if req.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant ID is required", ErrInvalidRequest)
	}
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if req.Category == "" {
		req.Category = orchestrator.CategoryGeneral
	}
	if req.BasePrompt == "" {
		req.BasePrompt = DefaultBasePrompt
	}

	assembled := e.assembler.Assemble(ctx, req.TenantID, req.SessionID, req.Query)
	prompt := composePrompt(assembled.Text, req.BasePrompt, req.Query)

	res, err := e.orch.Invoke(ctx, req.Category, prompt, req.Options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invocation failed")
		return nil, err
	}

	if req.SaveContext && req.SessionID != "" {
		e.writeBacks.Add(1)
		go e.writeBack(req, res)
	}

	span.SetStatus(codes.Ok, "")
	return &InvocationResult{
		Content:        res.Content,
		ModelUsed:      res.ModelUsed,
		ModelRequested: res.ModelRequested,
		FallbackUsed:   res.FallbackUsed,
		Usage:          res.Usage,
		Duration:       res.Duration,
		ContextUsed:    assembled.Text != "",
	}, nil
}

// Flush waits for all in-flight write-backs. Call before shutdown and
// in tests that assert on written context.
func (e *Engine) Flush() {
	e.writeBacks.Wait()
}

// writeBack records the interaction in conversation history and, when
// the query looks durable, promotes it into the vector store. Runs on
// its own context so request cancellation cannot lose the write.
func (e *Engine) writeBack(req Request, res *orchestrator.Result) {
	defer e.writeBacks.Done()

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.WriteBackTimeout)
	defer cancel()

	key := conversation.SessionKey{TenantID: req.TenantID, SessionID: req.SessionID}
	if _, err := e.convs.AppendTurn(ctx, key, conversation.RoleUser, req.Query, nil); err != nil {
		e.logger.Warn("write-back: appending user turn failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
	}
	meta := map[string]interface{}{
		"model":       res.ModelUsed,
		"token_count": res.Usage.Total,
	}
	if _, err := e.convs.AppendTurn(ctx, key, conversation.RoleAssistant, res.Content, meta); err != nil {
		e.logger.Warn("write-back: appending assistant turn failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
	}

	if !conversation.ShouldPromote(req.Query) {
		return
	}

	embedding, err := e.embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		e.logger.Warn("write-back: embedding query failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
		return
	}
	doc := vectorstore.Document{
		Content:   req.Query,
		Embedding: embedding,
		Metadata: map[string]interface{}{
			"source":       "conversation",
			"context_type": string(req.Category),
			"session_id":   req.SessionID,
			"importance":   conversation.ImportanceScore(req.Query),
			"extracted_at": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if _, err := e.store.AddDocuments(ctx, req.TenantID, []vectorstore.Document{doc}); err != nil {
		e.logger.Warn("write-back: promoting query failed",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
	}
}

// composePrompt layers context, base instructions and the user query
// into the final prompt. An empty context block is omitted entirely.
func composePrompt(contextText, basePrompt, query string) string {
	var b strings.Builder
	if contextText != "" {
		b.WriteString(contextText)
		b.WriteString("\n\n")
	}
	b.WriteString(basePrompt)
	b.WriteString("\n\nUser Query: ")
	b.WriteString(query)
	b.WriteString("\n\nPlease provide a response that:\n")
	b.WriteString("1. Takes into account the company's specific context and preferences\n")
	b.WriteString("2. Maintains consistency with the company's brand voice and communication tone\n")
	b.WriteString("3. References relevant business information when appropriate\n")
	b.WriteString("4. Provides actionable and relevant advice\n\n")
	b.WriteString("Response:")
	return b.String()
}
