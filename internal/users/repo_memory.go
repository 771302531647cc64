package users

import (
	"context"
	"sync"
)

// MemoryRepo keeps users in process memory in insertion order.
// Data is lost on restart.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]User
	order []string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]User)}
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if u := r.byID[id]; u.Email == email {
			return clone(u), nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.byID[id]))
	}
	return out, nil
}

func (r *MemoryRepo) IsEmpty(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID) == 0, nil
}

func (r *MemoryRepo) Insert(ctx context.Context, u User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(u.Email, "") {
		return ErrDuplicateEmail
	}
	r.byID[u.ID] = clone(u)
	r.order = append(r.order, u.ID)
	return nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, mutate func(*User) error) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	next := clone(cur)
	if err := mutate(&next); err != nil {
		return User{}, err
	}
	next.ID = id
	if r.emailTaken(next.Email, id) {
		return User{}, ErrDuplicateEmail
	}
	r.byID[id] = next
	return clone(next), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return u, nil
}

// emailTaken must be called with mu held.
func (r *MemoryRepo) emailTaken(email, exceptID string) bool {
	for id, u := range r.byID {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func clone(u User) User {
	u.Teams = append([]string(nil), u.Teams...)
	return u
}
