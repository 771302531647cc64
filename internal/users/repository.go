package users

import "context"

// Repository is the identity store.
//
// Email is unique. Implementations return ErrNotFound and ErrDuplicateEmail
// (possibly wrapped) rather than driver errors for those cases.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	List(ctx context.Context) ([]User, error)
	// IsEmpty reports whether no user is stored at all.
	IsEmpty(ctx context.Context) (bool, error)
	Insert(ctx context.Context, u User) error
	// Update applies mutate to the stored user atomically and returns the result.
	// An error from mutate aborts the update and is returned unchanged.
	Update(ctx context.Context, id string, mutate func(*User) error) (User, error)
	Delete(ctx context.Context, id string) (User, error)
}
