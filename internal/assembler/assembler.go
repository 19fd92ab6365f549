// Package assembler builds the context block injected ahead of model
// prompts. It layers three sources in a fixed order: the tenant's
// business profile, vector-retrieved documents relevant to the query,
// and the tail of the active conversation session.
//
// Each source degrades independently. A failed lookup is logged and its
// section omitted; Assemble never returns an error so a cold vector
// store or an unreachable embedding backend cannot block generation.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/brandforge/brandforge/internal/conversation"
	"github.com/brandforge/brandforge/internal/embeddings"
	"github.com/brandforge/brandforge/internal/profile"
	"github.com/brandforge/brandforge/internal/vectorstore"
)

var tracer = otel.Tracer("brandforge/assembler")

const (
	// DefaultTopK is the number of retrieved documents included per query.
	DefaultTopK = 3

	// DefaultScoreThreshold filters retrieved documents below this
	// cosine similarity.
	DefaultScoreThreshold = 0.7

	// DefaultRecentTurns is the number of trailing conversation turns
	// included in the context block.
	DefaultRecentTurns = 4
)

// Config controls retrieval depth and filtering.
type Config struct {
	TopK           int     `koanf:"top_k"`
	ScoreThreshold float32 `koanf:"score_threshold"`
	RecentTurns    int     `koanf:"recent_turns"`
}

// ApplyDefaults fills zero values with production defaults.
func (c *Config) ApplyDefaults() {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.ScoreThreshold <= 0 {
		c.ScoreThreshold = DefaultScoreThreshold
	}
	if c.RecentTurns <= 0 {
		c.RecentTurns = DefaultRecentTurns
	}
}

// Assembled is the result of a context assembly pass. Text is empty when
// no source produced a section.
type Assembled struct {
	Text           string
	HasProfile     bool
	RetrievedCount int
	TurnCount      int
}

// Assembler composes context blocks from profiles, the vector store and
// conversation history.
type Assembler struct {
	cfg      Config
	profiles profile.Repository
	store    vectorstore.Store
	embedder embeddings.Provider
	convs    conversation.Store
	logger   *zap.Logger
}

// New creates an Assembler. Any dependency may be nil; the matching
// section is skipped.
func New(cfg Config, profiles profile.Repository, store vectorstore.Store, embedder embeddings.Provider, convs conversation.Store, logger *zap.Logger) *Assembler {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{
		cfg:      cfg,
		profiles: profiles,
		store:    store,
		embedder: embedder,
		convs:    convs,
		logger:   logger,
	}
}

// Assemble builds the context block for a tenant's query. Sections are
// appended in order: business profile, retrieved context, recent
// conversation. Sections with no content are omitted.
func (a *Assembler) Assemble(ctx context.Context, tenantID, sessionID, query string) Assembled {
	ctx, span := tracer.Start(ctx, "assembler.Assemble")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	var (
		out      Assembled
		sections []string
	)

	if section, ok := a.profileSection(ctx, tenantID); ok {
		sections = append(sections, section)
		out.HasProfile = true
	}

	if section, n := a.retrievedSection(ctx, tenantID, query); n > 0 {
		sections = append(sections, section)
		out.RetrievedCount = n
	}

	if section, n := a.conversationSection(ctx, tenantID, sessionID); n > 0 {
		sections = append(sections, section)
		out.TurnCount = n
	}

	out.Text = strings.Join(sections, "\n\n")
	span.SetAttributes(
		attribute.Bool("assembler.has_profile", out.HasProfile),
		attribute.Int("assembler.retrieved", out.RetrievedCount),
		attribute.Int("assembler.turns", out.TurnCount),
	)
	span.SetStatus(codes.Ok, "")
	return out
}

func (a *Assembler) profileSection(ctx context.Context, tenantID string) (string, bool) {
	if a.profiles == nil {
		return "", false
	}
	p, err := a.profiles.Get(ctx, tenantID)
	if err != nil {
		if !errors.Is(err, profile.ErrNotFound) {
			a.logger.Warn("profile lookup failed",
				zap.String("tenant_id", tenantID),
				zap.Error(err))
		}
		return "", false
	}

	description := p.Description
	if description == "" {
		description = "Not provided"
	}
	audience := p.TargetAudience
	if audience == "" {
		audience = "General audience"
	}
	tone := p.Tone
	if tone == "" {
		tone = "professional"
	}

	return fmt.Sprintf("Company: %s\nBusiness Type: %s\nDescription: %s\nTarget Audience: %s\nCommunication Tone: %s",
		p.Name, p.BusinessType, description, audience, tone), true
}

func (a *Assembler) retrievedSection(ctx context.Context, tenantID, query string) (string, int) {
	if a.store == nil || a.embedder == nil || query == "" {
		return "", 0
	}
	embedding, err := a.embedder.EmbedQuery(ctx, query)
	if err != nil {
		a.logger.Warn("query embedding failed, skipping retrieval",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return "", 0
	}

	results, err := a.store.Query(ctx, tenantID, embedding, a.cfg.TopK)
	if err != nil {
		a.logger.Warn("context retrieval failed",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return "", 0
	}

	var contents []string
	for _, r := range results {
		if r.Score < a.cfg.ScoreThreshold {
			continue
		}
		contents = append(contents, r.Document.Content)
	}
	if len(contents) == 0 {
		return "", 0
	}
	return "Relevant Business Context:\n" + strings.Join(contents, "\n"), len(contents)
}

func (a *Assembler) conversationSection(ctx context.Context, tenantID, sessionID string) (string, int) {
	if a.convs == nil || sessionID == "" {
		return "", 0
	}
	key := conversation.SessionKey{TenantID: tenantID, SessionID: sessionID}
	turns, err := a.convs.RecentTurns(ctx, key, a.cfg.RecentTurns)
	if err != nil {
		a.logger.Warn("conversation lookup failed",
			zap.String("tenant_id", tenantID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		return "", 0
	}
	if len(turns) == 0 {
		return "", 0
	}

	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", turn.Role, turn.Content))
	}
	return "Recent Conversation:\n" + strings.Join(lines, "\n"), len(turns)
}
