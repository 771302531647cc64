package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
	Query(ctx context.Context, q Query) ([]Event, error)
}

// Service records security-relevant actions: admin actions, authorization
// denials and deletions.
//
// Audit is internal-only. Callers treat it as best-effort: the Log* helpers
// report failures to the logger instead of returning them.
type Service struct {
	repo  Repository
	log   *zap.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

// List returns recent events matching q, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]Event, error) {
	if s == nil || s.repo == nil {
		return []Event{}, nil
	}
	return s.repo.Query(ctx, q.normalize())
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" || e.TargetType == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogAdminAction records an action taken through an admin-only route.
func (s *Service) LogAdminAction(ctx context.Context, actor Actor, target TargetType, targetID, message string) {
	s.record(ctx, newEvent(EventTypeAdminAction, actor, target, targetID, message))
}

// LogDenied records an authorization denial.
func (s *Service) LogDenied(ctx context.Context, actor Actor, target TargetType, targetID, reason string) {
	s.record(ctx, newEvent(EventTypeAccessDenied, actor, target, targetID, reason))
}

// LogDeleted records a successful deletion.
func (s *Service) LogDeleted(ctx context.Context, actor Actor, target TargetType, targetID string) {
	s.record(ctx, newEvent(EventTypeResourceDeleted, actor, target, targetID, ""))
}

func newEvent(t EventType, actor Actor, target TargetType, targetID, message string) Event {
	return Event{
		Type:        t,
		ActorUserID: actor.UserID,
		ActorName:   actor.Name,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		TargetType:  target,
		TargetID:    targetID,
		Message:     message,
	}
}

type ipKey struct{}

// WithClientIP stores the client IP used for events whose actor has none.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ipKey{}).(string)
	return ip
}

func (s *Service) record(ctx context.Context, e Event) {
	if s == nil {
		return
	}
	if e.IPAddress == "" {
		e.IPAddress = clientIP(ctx)
	}
	if err := s.Append(ctx, e); err != nil {
		s.log.Warn("audit append failed",
			zap.String("type", string(e.Type)),
			zap.String("target_type", string(e.TargetType)),
			zap.String("target_id", e.TargetID),
			zap.Error(err),
		)
	}
}
