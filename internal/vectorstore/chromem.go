package vectorstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("brandforge.vectorstore.chromem")

// ChromemConfig holds configuration for the chromem-go backed store.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	// Empty means a non-persistent in-memory chromem DB.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// VectorSize is the expected embedding dimension. Default: 768.
	VectorSize int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.VectorSize == 0 {
		c.VectorSize = 768
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ChromemStore implements Store on top of chromem-go, an embeddable vector
// database with optional gob-file persistence. Each tenant maps to its own
// collection, so isolation is structural rather than filter-based.
//
// Deduplication on this path uses deterministic content-hash document IDs:
// re-adding identical content is a no-op. Prefix-containment dedup is not
// enforced here because chromem does not expose content listing; the
// MemoryStore is the reference for the full heuristic.
type ChromemStore struct {
	db     *chromem.DB
	config ChromemConfig
	logger *zap.Logger
}

// NewChromemStore creates a new ChromemStore with the given configuration.
func NewChromemStore(config ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	var db *chromem.DB
	if config.Path == "" {
		db = chromem.NewDB()
	} else {
		path, err := expandPath(config.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding path: %w", err)
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", path, err)
		}
		db, err = chromem.NewPersistentDB(path, config.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	logger.Info("chromem vector store initialized",
		zap.String("path", config.Path),
		zap.Bool("compress", config.Compress),
		zap.Int("vector_size", config.VectorSize),
	)

	return &ChromemStore{
		db:     db,
		config: config,
		logger: logger,
	}, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// collectionName maps a tenant ID to a chromem collection name.
// Only alphanumerics and underscores are kept; a hash prefix avoids
// collisions when sanitization strips everything.
func collectionName(tenantID string) string {
	var b strings.Builder
	b.WriteString("tenant_")
	wrote := false
	for _, r := range strings.ToLower(tenantID) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			wrote = true
		case r == '-' || r == '_' || r == ' ' || r == '.':
			b.WriteRune('_')
		}
	}
	if !wrote {
		hash := sha256.Sum256([]byte(tenantID))
		return "tenant_h_" + hex.EncodeToString(hash[:8])
	}
	return b.String()
}

// contentID derives a deterministic document ID from content.
func contentID(content string) string {
	hash := sha256.Sum256([]byte(content))
	return "doc_" + hex.EncodeToString(hash[:16])
}

// embeddingFuncStub rejects accidental in-store embedding. All embeddings
// are computed upstream by the embedding provider; passing nil would make
// chromem fall back to its OpenAI default.
func embeddingFuncStub(context.Context, string) ([]float32, error) {
	return nil, errors.New("embeddings must be computed by the embedding provider")
}

func (s *ChromemStore) validateBatch(tenantID string, docs []Document) error {
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

// AddDocuments adds documents to the tenant's collection.
func (s *ChromemStore) AddDocuments(ctx context.Context, tenantID string, docs []Document) (int, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddDocuments")
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

	collection, err := s.db.GetOrCreateCollection(collectionName(tenantID), nil, embeddingFuncStub)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("getting/creating collection for tenant %s: %w", tenantID, err)
	}

	var chromemDocs []chromem.Document
	queued := make(map[string]bool, len(docs))
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = contentID(doc.Content)
		}
		// Deterministic IDs make re-adds of identical content no-ops.
		// The queued set catches duplicates within the same batch, which
		// the GetByID pre-check cannot see.
		if queued[id] {
			continue
		}
		if _, err := collection.GetByID(ctx, id); err == nil {
			continue
		}
		queued[id] = true

		meta := convertMetadataToString(doc.Metadata)
		if meta == nil {
			meta = make(map[string]string, 2)
		}
		meta["tenant_id"] = tenantID
		meta["created_at"] = timeNow().Format(time.RFC3339)

		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        id,
			Content:   doc.Content,
			Metadata:  meta,
			Embedding: doc.Embedding,
		})
	}

	if len(chromemDocs) > 0 {
		// Concurrency of 1 since embeddings are already computed.
		if err := collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("adding documents: %w", err)
		}
	}

	span.SetAttributes(attribute.Int("documents_added", len(chromemDocs)))
	span.SetStatus(codes.Ok, "success")

	s.logger.Debug("added documents to chromem",
		zap.String("tenant_id", tenantID),
		zap.Int("requested", len(docs)),
		zap.Int("added", len(chromemDocs)),
	)

	return len(chromemDocs), nil
}

// Query performs similarity search in the tenant's collection.
func (s *ChromemStore) Query(ctx context.Context, tenantID string, embedding []float32, limit int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Query")
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

	collection := s.db.GetCollection(collectionName(tenantID), embeddingFuncStub)
	if collection == nil {
		span.SetStatus(codes.Ok, "unknown tenant")
		return []SearchResult{}, nil
	}

	// chromem requires nResults <= document count.
	count := collection.Count()
	if count == 0 {
		return []SearchResult{}, nil
	}
	if limit > count {
		limit = count
	}

	results, err := collection.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection for tenant %s: %w", tenantID, err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		createdAt, _ := time.Parse(time.RFC3339, r.Metadata["created_at"])
		searchResults[i] = SearchResult{
			Document: Document{
				ID:        r.ID,
				Content:   r.Content,
				Embedding: r.Embedding,
				Metadata:  convertMetadataFromString(r.Metadata),
				TenantID:  tenantID,
				CreatedAt: createdAt,
			},
			Score: r.Similarity,
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(searchResults)))
	span.SetStatus(codes.Ok, "success")
	return searchResults, nil
}

// DeleteTenant removes the tenant's collection. Idempotent.
func (s *ChromemStore) DeleteTenant(ctx context.Context, tenantID string) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.DeleteTenant")
	defer span.End()

	if tenantID == "" {
		return ErrInvalidTenant
	}

	name := collectionName(tenantID)
	if s.db.GetCollection(name, embeddingFuncStub) == nil {
		span.SetStatus(codes.Ok, "already absent")
		return nil
	}
	if err := s.db.DeleteCollection(name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting collection for tenant %s: %w", tenantID, err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Info("deleted tenant collection", zap.String("tenant_id", tenantID))
	return nil
}

// Count returns the number of documents stored for the tenant.
func (s *ChromemStore) Count(ctx context.Context, tenantID string) (int, error) {
	if tenantID == "" {
		return 0, ErrInvalidTenant
	}
	collection := s.db.GetCollection(collectionName(tenantID), embeddingFuncStub)
	if collection == nil {
		return 0, nil
	}
	return collection.Count(), nil
}

// Close closes the store. chromem persists automatically.
func (s *ChromemStore) Close() error {
	return nil
}

// convertMetadataToString converts map[string]interface{} to map[string]string.
func convertMetadataToString(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}
	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = fmt.Sprintf("%d", val)
		case int64:
			result[k] = fmt.Sprintf("%d", val)
		case float64:
			result[k] = fmt.Sprintf("%f", val)
		case bool:
			result[k] = fmt.Sprintf("%t", val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}

// convertMetadataFromString converts map[string]string back to map[string]interface{}.
func convertMetadataFromString(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	result := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		result[k] = v
	}
	return result
}

// Ensure ChromemStore implements Store.
var _ Store = (*ChromemStore)(nil)
