package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/brandforge/brandforge/internal/profile"
	"github.com/brandforge/brandforge/internal/vectorstore"
)

// SeedTenant stores the business profile and loads its seed documents
// into the vector store. The returned count is documents actually
// inserted, so repeated seeding with the same profile returns 0.
func (e *Engine) SeedTenant(ctx context.Context, tenantID string, p profile.Profile) (int, error) {
	ctx, span := tracer.Start(ctx, "engine.SeedTenant")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	if err := e.profiles.Upsert(ctx, tenantID, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile upsert failed")
		return 0, fmt.Errorf("upserting profile: %w", err)
	}

	seeds := profile.SeedDocuments(p)
	if len(seeds) == 0 {
		span.SetStatus(codes.Ok, "")
		return 0, nil
	}

	contents := make([]string, len(seeds))
	for i, s := range seeds {
		contents[i] = s.Content
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, contents)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return 0, fmt.Errorf("embedding seed documents: %w", err)
	}
	if len(vectors) != len(seeds) {
		return 0, fmt.Errorf("embedding seed documents: got %d vectors for %d documents", len(vectors), len(seeds))
	}

	docs := make([]vectorstore.Document, len(seeds))
	for i, s := range seeds {
		docs[i] = vectorstore.Document{
			Content:   s.Content,
			Embedding: vectors[i],
			Metadata:  s.Metadata,
		}
	}
	added, err := e.store.AddDocuments(ctx, tenantID, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storing seed documents failed")
		return 0, fmt.Errorf("storing seed documents: %w", err)
	}

	e.logger.Info("seeded tenant context",
		zap.String("tenant_id", tenantID),
		zap.Int("documents", added))
	span.SetAttributes(attribute.Int("seed.added", added))
	span.SetStatus(codes.Ok, "")
	return added, nil
}

// SearchContext embeds the query and returns the tenant's most similar
// documents, best first.
func (e *Engine) SearchContext(ctx context.Context, tenantID, query string, limit int) ([]vectorstore.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "engine.SearchContext")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	embedding, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := e.store.Query(ctx, tenantID, embedding, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("querying context: %w", err)
	}
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// PurgeTenant removes the tenant's vector collection, conversation
// sessions and profile. Idempotent; a tenant that was never seeded
// purges cleanly.
func (e *Engine) PurgeTenant(ctx context.Context, tenantID string) error {
	ctx, span := tracer.Start(ctx, "engine.PurgeTenant")
	defer span.End()
	span.SetAttributes(attribute.String("tenant.id", tenantID))

	if err := e.store.DeleteTenant(ctx, tenantID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "vector purge failed")
		return fmt.Errorf("purging vector collection: %w", err)
	}
	if err := e.convs.DeleteTenant(ctx, tenantID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "conversation purge failed")
		return fmt.Errorf("purging conversations: %w", err)
	}
	if err := e.profiles.Delete(ctx, tenantID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile purge failed")
		return fmt.Errorf("purging profile: %w", err)
	}

	e.logger.Info("purged tenant", zap.String("tenant_id", tenantID))
	span.SetStatus(codes.Ok, "")
	return nil
}
