// Package vectorstore provides per-tenant vector storage with similarity search.
//
// Each tenant owns an isolated collection of embedded documents. No operation
// may read or write another tenant's data: cross-tenant leakage is a
// correctness bug, not a quality issue. Queries against unknown tenants
// return empty results rather than errors so that cold-start tenants behave
// like tenants with no knowledge yet.
package vectorstore

import (
	"context"
	"errors"
)

// MaxBatchSize is the hard cap on documents per AddDocuments call.
const MaxBatchSize = 100

// dedupPrefixLen is the number of leading characters used for
// content-prefix deduplication. A new document is skipped when an existing
// document's content equals it or contains its first dedupPrefixLen
// characters as a substring. This is a cheap heuristic to keep repeated
// seeding from bloating a tenant's index with near-identical facts.
const dedupPrefixLen = 50

// Sentinel errors for vector store operations.
var (
	// ErrInvalidConfig indicates invalid store configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrBatchTooLarge is returned when a batch exceeds MaxBatchSize.
	// The batch is rejected as a whole; nothing is applied.
	ErrBatchTooLarge = errors.New("document batch exceeds maximum size")

	// ErrInvalidDocument indicates a document with empty content or an
	// embedding whose length does not match the store dimension.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidTenant indicates an empty tenant identifier.
	ErrInvalidTenant = errors.New("invalid tenant identifier")
)

// Store is the interface for per-tenant vector storage.
//
// Implementations:
//   - MemoryStore: in-process reference implementation (default)
//   - ChromemStore: embedded chromem-go with on-disk persistence
//
// The rest of the engine must not depend on which is active.
type Store interface {
	// AddDocuments adds documents to a tenant's collection.
	//
	// The batch is validated up front (size cap, non-empty content, uniform
	// embedding dimension) and rejected as a whole on any violation - no
	// partial application. Documents that duplicate existing content (exact
	// match or 50-character-prefix containment) are skipped.
	//
	// Returns the number of documents actually inserted, which may be less
	// than len(docs) due to deduplication.
	AddDocuments(ctx context.Context, tenantID string, docs []Document) (int, error)

	// Query returns up to limit documents most similar to the embedding,
	// ordered by descending cosine similarity with ties broken by
	// most-recent-insertion-first.
	//
	// A query against an unknown or empty tenant returns an empty result,
	// not an error.
	Query(ctx context.Context, tenantID string, embedding []float32, limit int) ([]SearchResult, error)

	// DeleteTenant removes the tenant's entire collection. Idempotent.
	DeleteTenant(ctx context.Context, tenantID string) error

	// Count returns the number of documents stored for the tenant.
	Count(ctx context.Context, tenantID string) (int, error)

	// Close releases resources held by the store.
	Close() error
}

// dedupPrefix returns the prefix of content used for deduplication.
func dedupPrefix(content string) string {
	runes := []rune(content)
	if len(runes) <= dedupPrefixLen {
		return content
	}
	return string(runes[:dedupPrefixLen])
}
