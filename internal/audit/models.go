package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Type and TargetType are required.
// - actor and ip capture are best-effort; do not block critical flows on audit failures.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`

	// Actor is the identity asserted by the gateway, or the anonymous identity.
	ActorUserID string `json:"actor_user_id,omitempty"`
	ActorName   string `json:"actor_name,omitempty"`
	ActorRole   string `json:"actor_role,omitempty"`

	// IPAddress is the client IP as resolved by gin.
	IPAddress string `json:"ip_address,omitempty"`

	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id,omitempty"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type EventType string

const (
	EventTypeAdminAction     EventType = "admin_action"
	EventTypeAccessDenied    EventType = "access_denied"
	EventTypeResourceDeleted EventType = "resource_deleted"
)

type TargetType string

const (
	TargetUser    TargetType = "user"
	TargetTeam    TargetType = "team"
	TargetTask    TargetType = "task"
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string
	Name   string
	Role   string
	IP     string
}

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// Query filters stored events. Zero fields match everything.
type Query struct {
	Type        EventType
	TargetType  TargetType
	ActorUserID string
	Limit       int
}

func (q Query) normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	return q
}

func (q Query) matches(e Event) bool {
	if q.Type != "" && e.Type != q.Type {
		return false
	}
	if q.TargetType != "" && e.TargetType != q.TargetType {
		return false
	}
	return q.ActorUserID == "" || e.ActorUserID == q.ActorUserID
}
