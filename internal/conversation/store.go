package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sentinel errors for conversation storage.
var (
	// ErrInvalidTenant indicates an empty tenant identifier.
	ErrInvalidTenant = errors.New("invalid tenant identifier")

	// ErrInvalidSession indicates an empty session identifier.
	ErrInvalidSession = errors.New("invalid session identifier")

	// ErrInvalidRole indicates an unknown turn role.
	ErrInvalidRole = errors.New("invalid turn role")

	// ErrEmptyContent indicates a turn with no content.
	ErrEmptyContent = errors.New("turn content cannot be empty")
)

// Store provides session turn storage.
//
// Within one session, turns are appended in request order; concurrent
// appends to the same session are serialized so the turn list stays
// coherent and duplicate-ID-free. Operations on different tenants are
// fully independent.
type Store interface {
	// AppendTurn appends a turn to the session, creating the session on
	// first use, and evicts the oldest turns FIFO once the cap is
	// exceeded. Returns the stored turn with its assigned ID.
	AppendTurn(ctx context.Context, key SessionKey, role Role, content string, metadata map[string]interface{}) (*Turn, error)

	// RecentTurns returns up to n most recent turns in chronological
	// order. An unknown session yields an empty slice, not an error.
	RecentTurns(ctx context.Context, key SessionKey, n int) ([]Turn, error)

	// DeleteTenant removes all sessions belonging to the tenant. Idempotent.
	DeleteTenant(ctx context.Context, tenantID string) error
}

// MemoryStoreConfig holds configuration for the in-memory session store.
type MemoryStoreConfig struct {
	// TurnCap is the maximum turns kept per session. Default: 50.
	TurnCap int
}

// ApplyDefaults sets default values for unset fields.
func (c *MemoryStoreConfig) ApplyDefaults() {
	if c.TurnCap == 0 {
		c.TurnCap = DefaultTurnCap
	}
}

type session struct {
	mu    sync.Mutex
	turns []Turn
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	config MemoryStoreConfig
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[SessionKey]*session
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(config MemoryStoreConfig, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	return &MemoryStore{
		config:   config,
		logger:   logger,
		sessions: make(map[SessionKey]*session),
	}
}

func validateKey(key SessionKey) error {
	if key.TenantID == "" {
		return ErrInvalidTenant
	}
	if key.SessionID == "" {
		return ErrInvalidSession
	}
	return nil
}

// getOrCreate returns the session for key, creating it if needed.
func (s *MemoryStore) getOrCreate(key SessionKey) *session {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok = s.sessions[key]; ok {
		return sess
	}
	sess = &session{}
	s.sessions[key] = sess
	return sess
}

// AppendTurn appends a turn and evicts FIFO past the cap.
func (s *MemoryStore) AppendTurn(ctx context.Context, key SessionKey, role Role, content string, metadata map[string]interface{}) (*Turn, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	turn := Turn{
		ID:        "turn_" + uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}

	sess := s.getOrCreate(key)
	sess.mu.Lock()
	sess.turns = append(sess.turns, turn)
	if evict := len(sess.turns) - s.config.TurnCap; evict > 0 {
		sess.turns = sess.turns[evict:]
	}
	sess.mu.Unlock()

	s.logger.Debug("appended turn",
		zap.String("tenant_id", key.TenantID),
		zap.String("session_id", key.SessionID),
		zap.String("role", string(role)),
	)

	return &turn, nil
}

// RecentTurns returns up to n most recent turns in chronological order.
func (s *MemoryStore) RecentTurns(ctx context.Context, key SessionKey, n int) ([]Turn, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []Turn{}, nil
	}

	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return []Turn{}, nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	start := len(sess.turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(sess.turns)-start)
	copy(out, sess.turns[start:])
	return out, nil
}

// Len returns the number of turns currently held for the session.
func (s *MemoryStore) Len(key SessionKey) int {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return len(sess.turns)
}

// DeleteTenant removes all of the tenant's sessions. Idempotent.
func (s *MemoryStore) DeleteTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	s.mu.Lock()
	for key := range s.sessions {
		if key.TenantID == tenantID {
			delete(s.sessions, key)
		}
	}
	s.mu.Unlock()

	s.logger.Info("deleted tenant sessions", zap.String("tenant_id", tenantID))
	return nil
}

var _ Store = (*MemoryStore)(nil)
