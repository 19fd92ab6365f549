package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// timeNow is a variable for testing purposes (allows mocking time).
var timeNow = time.Now

var memoryTracer = otel.Tracer("brandforge.vectorstore.memory")

// MemoryConfig holds configuration for the in-memory vector store.
type MemoryConfig struct {
	// VectorSize is the expected embedding dimension.
	// Must match the embedding provider's output dimension.
	// Default: 768.
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *MemoryConfig) ApplyDefaults() {
	if c.VectorSize == 0 {
		c.VectorSize = 768
	}
}

// Validate validates the configuration.
func (c *MemoryConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// memoryEntry pairs a stored document with its insertion sequence number.
// The sequence breaks similarity ties: most recent insertion wins.
type memoryEntry struct {
	doc Document
	seq uint64
}

// tenantCollection holds one tenant's documents in insertion order.
type tenantCollection struct {
	entries []memoryEntry
}

// MemoryStore is the in-process reference implementation of Store.
//
// Exact search with no external index is acceptable because per-tenant
// document counts are small (tens to low hundreds). Contents are held
// per-tenant behind a single RWMutex; appends are atomic at batch
// granularity so a concurrent query never observes a half-written document.
type MemoryStore struct {
	config MemoryConfig
	logger *zap.Logger

	mu      sync.RWMutex
	tenants map[string]*tenantCollection
	seq     uint64
}

// NewMemoryStore creates a new in-memory vector store.
func NewMemoryStore(config MemoryConfig, logger *zap.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	logger.Info("memory vector store initialized",
		zap.Int("vector_size", config.VectorSize),
	)

	return &MemoryStore{
		config:  config,
		logger:  logger,
		tenants: make(map[string]*tenantCollection),
	}, nil
}

// validateBatch checks the whole batch before anything is applied.
func (s *MemoryStore) validateBatch(tenantID string, docs []Document) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	if len(docs) > MaxBatchSize {
		return fmt.Errorf("%w: %d documents (max %d)", ErrBatchTooLarge, len(docs), MaxBatchSize)
	}
	for i, doc := range docs {
		if strings.TrimSpace(doc.Content) == "" {
			return fmt.Errorf("%w: document %d has empty content", ErrInvalidDocument, i)
		}
		if len(doc.Embedding) != s.config.VectorSize {
			return fmt.Errorf("%w: document %d has embedding dimension %d, want %d",
				ErrInvalidDocument, i, len(doc.Embedding), s.config.VectorSize)
		}
	}
	return nil
}

// AddDocuments adds documents to the tenant's collection with dedup.
func (s *MemoryStore) AddDocuments(ctx context.Context, tenantID string, docs []Document) (int, error) {
	_, span := memoryTracer.Start(ctx, "MemoryStore.AddDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return 0, nil
	}
	if err := s.validateBatch(tenantID, docs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.tenants[tenantID]
	if coll == nil {
		coll = &tenantCollection{}
		s.tenants[tenantID] = coll
	}

	added := 0
	for _, doc := range docs {
		if s.isDuplicate(coll, doc.Content) {
			s.logger.Debug("skipping duplicate document",
				zap.String("tenant_id", tenantID),
				zap.String("prefix", dedupPrefix(doc.Content)),
			)
			continue
		}

		if doc.ID == "" {
			doc.ID = "doc_" + uuid.NewString()
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = timeNow()
		}
		doc.TenantID = tenantID
		doc.Embedding = append([]float32(nil), doc.Embedding...)

		s.seq++
		coll.entries = append(coll.entries, memoryEntry{doc: doc, seq: s.seq})
		added++
	}

	span.SetAttributes(attribute.Int("documents_added", added))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents",
		zap.String("tenant_id", tenantID),
		zap.Int("requested", len(docs)),
		zap.Int("added", added),
	)

	return added, nil
}

// isDuplicate reports whether content duplicates an existing document.
// Caller must hold the lock.
func (s *MemoryStore) isDuplicate(coll *tenantCollection, content string) bool {
	prefix := dedupPrefix(content)
	for _, e := range coll.entries {
		if e.doc.Content == content || strings.Contains(e.doc.Content, prefix) {
			return true
		}
	}
	return false
}

// Query returns the limit most similar documents for the tenant.
func (s *MemoryStore) Query(ctx context.Context, tenantID string, embedding []float32, limit int) ([]SearchResult, error) {
	_, span := memoryTracer.Start(ctx, "MemoryStore.Query")
	defer span.End()
	span.SetAttributes(attribute.Int("limit", limit))

	if tenantID == "" {
		return nil, ErrInvalidTenant
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, limit)
	}
	if len(embedding) != s.config.VectorSize {
		return nil, fmt.Errorf("%w: query embedding dimension %d, want %d",
			ErrInvalidDocument, len(embedding), s.config.VectorSize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.tenants[tenantID]
	if coll == nil || len(coll.entries) == 0 {
		span.SetStatus(codes.Ok, "empty tenant")
		return []SearchResult{}, nil
	}

	type scored struct {
		entry memoryEntry
		score float32
	}
	candidates := make([]scored, 0, len(coll.entries))
	for _, e := range coll.entries {
		score := cosineSimilarity(embedding, e.doc.Embedding)
		if math.IsNaN(float64(score)) {
			continue
		}
		candidates = append(candidates, scored{entry: e, score: score})
	}

	// Descending similarity; ties broken by most recent insertion first.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.seq > candidates[j].entry.seq
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]SearchResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = SearchResult{
			Document: candidates[i].entry.doc,
			Score:    candidates[i].score,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(results)))
	span.SetStatus(codes.Ok, "success")
	return results, nil
}

// DeleteTenant removes the tenant's collection. Idempotent.
func (s *MemoryStore) DeleteTenant(ctx context.Context, tenantID string) error {
	_, span := memoryTracer.Start(ctx, "MemoryStore.DeleteTenant")
	defer span.End()

	if tenantID == "" {
		return ErrInvalidTenant
	}

	s.mu.Lock()
	delete(s.tenants, tenantID)
	s.mu.Unlock()

	span.SetStatus(codes.Ok, "success")
	s.logger.Info("deleted tenant collection", zap.String("tenant_id", tenantID))
	return nil
}

// Count returns the number of documents stored for the tenant.
func (s *MemoryStore) Count(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, ErrInvalidTenant
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll := s.tenants[tenantID]
	if coll == nil {
		return 0, nil
	}
	return len(coll.entries), nil
}

// Close releases resources. No-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Returns NaN when either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return float32(math.NaN())
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
