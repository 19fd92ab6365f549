package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(MemoryConfig{VectorSize: 3}, nil)
	require.NoError(t, err)
	return store
}

func doc(content string, embedding ...float32) Document {
	return Document{Content: content, Embedding: embedding}
}

func TestMemoryStore_TenantIsolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "acme", []Document{
		doc("artisanal coffee shop serving young professionals", 1, 0, 0),
	})
	require.NoError(t, err)
	_, err = store.AddDocuments(ctx, "globex", []Document{
		doc("industrial equipment wholesaler", 1, 0, 0),
	})
	require.NoError(t, err)

	results, err := store.Query(ctx, "acme", []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	for _, r := range results {
		assert.Equal(t, "acme", r.TenantID)
		assert.NotContains(t, r.Content, "industrial")
	}
}

func TestMemoryStore_DedupIdempotence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	d := doc("Company Description: artisanal coffee shop with locally roasted beans and pastry counter", 1, 0, 0)

	added, err := store.AddDocuments(ctx, "acme", []Document{d})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = store.AddDocuments(ctx, "acme", []Document{d})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	count, err := store.Count(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryStore_DedupPrefixContainment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	long := "Target Audience: young professionals in downtown neighborhoods who value quality over speed"
	added, err := store.AddDocuments(ctx, "acme", []Document{doc(long, 1, 0, 0)})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	// New doc whose first 50 chars appear inside the stored content is skipped.
	shorter := long[:60]
	added, err = store.AddDocuments(ctx, "acme", []Document{doc(shorter, 0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	// Unrelated content is inserted.
	added, err = store.AddDocuments(ctx, "acme", []Document{doc("Key Messages: sustainability first", 0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestMemoryStore_BatchValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("batch too large", func(t *testing.T) {
		docs := make([]Document, MaxBatchSize+1)
		for i := range docs {
			docs[i] = doc(fmt.Sprintf("unique document number %d with enough text", i), 1, 0, 0)
		}
		added, err := store.AddDocuments(ctx, "acme", docs)
		assert.ErrorIs(t, err, ErrBatchTooLarge)
		assert.Zero(t, added)
	})

	t.Run("dimension mismatch rejects whole batch", func(t *testing.T) {
		docs := []Document{
			doc("valid document content", 1, 0, 0),
			doc("bad embedding", 1, 0),
		}
		added, err := store.AddDocuments(ctx, "acme", docs)
		assert.ErrorIs(t, err, ErrInvalidDocument)
		assert.Zero(t, added)

		// Nothing partially applied.
		count, err := store.Count(ctx, "acme")
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := store.AddDocuments(ctx, "acme", []Document{doc("   ", 1, 0, 0)})
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("empty tenant", func(t *testing.T) {
		_, err := store.AddDocuments(ctx, "", []Document{doc("content", 1, 0, 0)})
		assert.ErrorIs(t, err, ErrInvalidTenant)
	})
}

func TestMemoryStore_QueryOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "acme", []Document{
		doc("exact match document", 1, 0, 0),
		doc("orthogonal document", 0, 1, 0),
		doc("close match document", 0.9, 0.1, 0),
	})
	require.NoError(t, err)

	results, err := store.Query(ctx, "acme", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "exact match document", results[0].Content)
	assert.Equal(t, "close match document", results[1].Content)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestMemoryStore_QueryTieBreakRecency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Identical embeddings tie on similarity; most recent insertion wins.
	_, err := store.AddDocuments(ctx, "acme", []Document{doc("older fact", 1, 0, 0)})
	require.NoError(t, err)
	_, err = store.AddDocuments(ctx, "acme", []Document{doc("newer fact", 1, 0, 0)})
	require.NoError(t, err)

	results, err := store.Query(ctx, "acme", []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "newer fact", results[0].Content)
	assert.Equal(t, "older fact", results[1].Content)
}

func TestMemoryStore_QueryUnknownTenant(t *testing.T) {
	store := newTestStore(t)

	results, err := store.Query(context.Background(), "nobody", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_DeleteTenant(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddDocuments(ctx, "acme", []Document{doc("to be purged", 1, 0, 0)})
	require.NoError(t, err)

	require.NoError(t, store.DeleteTenant(ctx, "acme"))
	// Idempotent.
	require.NoError(t, store.DeleteTenant(ctx, "acme"))

	results, err := store.Query(ctx, "acme", []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryStore_ConcurrentAddAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := store.AddDocuments(ctx, "acme", []Document{
					doc(fmt.Sprintf("writer %d fact %d %s", i, j, strings.Repeat("x", j)), 1, float32(j), 0),
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				results, err := store.Query(ctx, "acme", []float32{1, 0, 0}, 5)
				if err != nil {
					t.Error(err)
					return
				}
				for _, r := range results {
					if r.Content == "" {
						t.Error("observed half-written document")
						return
					}
				}
			}
		}()
	}
	wg.Wait()
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestDedupPrefix(t *testing.T) {
	short := "short content"
	if got := dedupPrefix(short); got != short {
		t.Errorf("dedupPrefix(%q) = %q, want unchanged", short, got)
	}
	long := strings.Repeat("a", 80)
	if got := dedupPrefix(long); len(got) != dedupPrefixLen {
		t.Errorf("dedupPrefix length = %d, want %d", len(got), dedupPrefixLen)
	}
}

func TestCollectionName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "tenant_acme"},
		{"Acme Coffee", "tenant_acme_coffee"},
		{"66f1a2b3c4", "tenant_66f1a2b3c4"},
	}
	for _, tt := range tests {
		if got := collectionName(tt.in); got != tt.want {
			t.Errorf("collectionName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	// All-unicode tenant IDs fall back to a hash prefix.
	if got := collectionName("企业"); !strings.HasPrefix(got, "tenant_h_") {
		t.Errorf("collectionName(unicode) = %q, want hash fallback", got)
	}
}
