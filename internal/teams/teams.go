// Package teams keeps the team directory of the user service.
package teams

import (
	"context"
	"strings"
	"sync"
	"time"

	"edgetrust/internal/apperr"
	"edgetrust/internal/identity"
	"edgetrust/internal/rbac"

	"github.com/google/uuid"
)

type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Members   []string  `json:"members"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	Name string `json:"name"`
}

// Store is an in-memory team directory, seeded with the default team.
type Store struct {
	mu    sync.RWMutex
	teams []Team
	clock func() time.Time
}

func NewStore() *Store {
	s := &Store{clock: time.Now}
	s.teams = []Team{{ID: "t1", Name: "Alpha Team", Members: []string{"1", "2"}, CreatedAt: s.clock().UTC()}}
	return s
}

func (s *Store) List(ctx context.Context) []Team {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		t.Members = append([]string{}, t.Members...)
		out = append(out, t)
	}
	return out
}

// Create adds a team with the caller as its only member.
func (s *Store) Create(ctx context.Context, caller identity.Context, req CreateRequest) (Team, error) {
	if err := rbac.Require(caller, rbac.ActionCreate, ""); err != nil {
		return Team{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Team{}, apperr.Validation("Team name is required", apperr.FieldError{Field: "name", Message: "name is required"})
	}

	t := Team{
		ID:        uuid.NewString(),
		Name:      name,
		Members:   []string{caller.SubjectID},
		CreatedAt: s.clock().UTC(),
	}

	s.mu.Lock()
	s.teams = append(s.teams, t)
	s.mu.Unlock()

	t.Members = append([]string{}, t.Members...)
	return t, nil
}
