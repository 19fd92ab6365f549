// Package profile stores structured facts about each tenant's business.
//
// The profile is the source of truth for cold-start context: before any
// conversation exists, context assembly and vector seeding both draw from it.
// Profiles are mutated only by explicit update operations, never by
// inference from chat.
package profile

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a tenant has no stored profile.
// Callers treat this as a cold-start tenant, not a failure.
var ErrNotFound = errors.New("tenant profile not found")

// ErrInvalidTenant indicates an empty tenant identifier.
var ErrInvalidTenant = errors.New("invalid tenant identifier")

// ServiceOffering is one product or service the business sells.
type ServiceOffering struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Profile holds structured facts about one tenant's business.
type Profile struct {
	Name           string            `json:"name"`
	BusinessType   string            `json:"business_type"`
	Description    string            `json:"description"`
	TargetAudience string            `json:"target_audience"`
	Tone           string            `json:"tone"`     // e.g. "professional", "playful"
	BrandVoice     string            `json:"brand_voice"`
	Services       []ServiceOffering `json:"services,omitempty"`
	KeyMessages    []string          `json:"key_messages,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Repository provides tenant profile storage.
//
// Backed by any durable store exposing find-by-tenant and upsert; the
// in-memory implementation below is the reference.
type Repository interface {
	// Get returns the tenant's profile, or ErrNotFound.
	Get(ctx context.Context, tenantID string) (*Profile, error)

	// Upsert creates or replaces the tenant's profile.
	Upsert(ctx context.Context, tenantID string, p Profile) error

	// Delete removes the tenant's profile. Idempotent.
	Delete(ctx context.Context, tenantID string) error
}

// MemoryRepository is an in-memory Repository implementation.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]Profile
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]Profile)}
}

// Get returns the tenant's profile, or ErrNotFound.
func (r *MemoryRepository) Get(ctx context.Context, tenantID string) (*Profile, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenant
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Upsert creates or replaces the tenant's profile.
func (r *MemoryRepository) Upsert(ctx context.Context, tenantID string, p Profile) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	r.mu.Lock()
	r.profiles[tenantID] = p
	r.mu.Unlock()
	return nil
}

// Delete removes the tenant's profile. Idempotent.
func (r *MemoryRepository) Delete(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	r.mu.Lock()
	delete(r.profiles, tenantID)
	r.mu.Unlock()
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
