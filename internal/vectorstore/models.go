package vectorstore

import "time"

// Document is a unit of tenant knowledge held in the vector store.
//
// Documents are immutable once stored except for metadata corrections.
// They are created when a tenant profile is seeded or when an interaction
// is promoted into long-term memory, and removed only by an explicit
// tenant purge.
type Document struct {
	// ID is the unique identifier. Auto-generated when empty.
	ID string

	// Content is the text content of the document.
	Content string

	// Embedding is the precomputed vector for Content.
	// Its length must match the store's configured dimension.
	Embedding []float32

	// Metadata contains additional key-value pairs.
	// Common fields: source, category, importance, session_id.
	Metadata map[string]interface{}

	// TenantID is the owning tenant. Set by the store on insert.
	TenantID string

	// CreatedAt is the insertion timestamp. Set by the store when zero.
	CreatedAt time.Time
}

// SearchResult is a document matched by a similarity query.
type SearchResult struct {
	Document

	// Score is the cosine similarity to the query (higher = more similar).
	Score float32
}
