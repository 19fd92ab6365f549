// Package conversation stores per-session conversation history and decides
// which messages are durable enough to promote into long-term vector memory.
//
// A session is a bounded, ordered sequence of turns scoped to a tenant and
// task category. Turn lists are capped: once the cap is exceeded the oldest
// turns are evicted FIFO, so short-term history never grows without bound.
package conversation

import "time"

// DefaultTurnCap is the default maximum number of turns kept per session.
const DefaultTurnCap = 50

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one message within a session.
type Turn struct {
	ID        string                 `json:"id"`
	Role      Role                   `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// SessionKey identifies a session within a tenant.
type SessionKey struct {
	TenantID  string
	SessionID string
}
