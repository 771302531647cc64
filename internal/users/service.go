package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"edgetrust/internal/apperr"
	"edgetrust/internal/audit"
	"edgetrust/internal/auth"
	"edgetrust/internal/rbac"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const demoPassword = "123456"

// Service owns the identity store and issues credentials.
//
// Invariants:
// - The first registration into an empty store becomes admin; every later one
//   becomes user, whatever role was requested and even if no admin remains.
// - Registrations are serialized so two concurrent first registrations cannot both
//   become admin.
// - Password hashes never leave the service.
type Service struct {
	repo     Repository
	signer   *auth.Signer
	audit    *audit.Service
	log      *zap.Logger
	validate *validator.Validate

	// regMu serializes the admin check and insert in Register.
	regMu sync.Mutex

	// clock is injectable for deterministic tests.
	clock    func() time.Time
	hashCost int
}

func NewService(repo Repository, signer *auth.Signer, auditSvc *audit.Service, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		signer:   signer,
		audit:    auditSvc,
		log:      log,
		validate: apperr.NewValidator(),
		clock:    time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

/* ===================== AUTH ===================== */

// Register creates a user. The returned Role tells the caller whether the
// first-admin rule applied.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return User{}, apperr.FromValidation(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return User{}, apperr.Internal(err, "hash password")
	}

	s.regMu.Lock()
	defer s.regMu.Unlock()

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return User{}, apperr.Conflict("Email already exists")
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, apperr.Internal(err, "lookup user")
	}

	empty, err := s.repo.IsEmpty(ctx)
	if err != nil {
		return User{}, apperr.Internal(err, "check store")
	}
	role := rbac.RoleUser
	if empty {
		role = rbac.RoleAdmin
	}

	now := s.clock().UTC()
	u := User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Age:          req.Age,
		PasswordHash: string(hash),
		Role:         role,
		Teams:        []string{DefaultTeamID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return User{}, mapRepoError(err)
	}

	s.log.Info("user registered", zap.String("user_id", u.ID), zap.String("role", u.Role))
	return u, nil
}

// Login checks the credentials and returns a signed token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", apperr.Unauthenticated("Invalid credentials")
	}

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.Unauthenticated("Invalid credentials")
		}
		return "", apperr.Internal(err, "lookup user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", apperr.Unauthenticated("Invalid credentials")
	}

	tok, err := s.signer.Issue(s.clock(), auth.Subject{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Teams:  u.Teams,
	})
	if err != nil {
		return "", apperr.Internal(err, "issue token")
	}
	return tok, nil
}

/* ===================== READ ===================== */

func (s *Service) List(ctx context.Context) ([]User, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "list users")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	return u, nil
}

/* ===================== ADMIN ===================== */

// Update applies a partial update. Callers must have checked the admin role.
func (s *Service) Update(ctx context.Context, actor audit.Actor, id string, req UpdateRequest) (User, error) {
	if req.empty() {
		return User{}, apperr.Validation("Validation error", apperr.FieldError{Field: "body", Message: "at least one field is required"})
	}
	if req.Email != nil {
		e := normalizeEmail(*req.Email)
		req.Email = &e
	}
	if err := s.validate.Struct(req); err != nil {
		return User{}, apperr.FromValidation(err)
	}

	var hash []byte
	if req.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.hashCost)
		if err != nil {
			return User{}, apperr.Internal(err, "hash password")
		}
		hash = h
	}

	now := s.clock().UTC()
	u, err := s.repo.Update(ctx, id, func(u *User) error {
		if req.Name != nil {
			u.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.Age != nil {
			u.Age = *req.Age
		}
		if req.Role != nil {
			u.Role = *req.Role
		}
		if hash != nil {
			u.PasswordHash = string(hash)
		}
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return User{}, mapRepoError(err)
	}

	s.audit.LogAdminAction(ctx, actor, audit.TargetUser, id, "user updated")
	return u, nil
}

func (s *Service) Delete(ctx context.Context, actor audit.Actor, id string) (User, error) {
	u, err := s.repo.Delete(ctx, id)
	if err != nil {
		return User{}, mapRepoError(err)
	}
	s.audit.LogAdminAction(ctx, actor, audit.TargetUser, id, "user deleted")
	return u, nil
}

// ChangeRole sets role, which must be admin or user.
func (s *Service) ChangeRole(ctx context.Context, actor audit.Actor, id, role string) (User, error) {
	if !rbac.IsAssignableRole(role) {
		return User{}, apperr.Validation("Invalid role. Must be 'admin' or 'user'.")
	}

	now := s.clock().UTC()
	u, err := s.repo.Update(ctx, id, func(u *User) error {
		u.Role = role
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return User{}, mapRepoError(err)
	}

	s.audit.LogAdminAction(ctx, actor, audit.TargetUser, id, "role changed to "+role)
	return u, nil
}

/* ===================== SEED ===================== */

// SeedDemoUsers inserts John Doe (user) and Jane Smith (admin) with ids "1"
// and "2", both with the demo password. Existing emails are skipped.
func (s *Service) SeedDemoUsers(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), s.hashCost)
	if err != nil {
		return err
	}
	now := s.clock().UTC()
	seed := []User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Age: 30, Role: rbac.RoleUser},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com", Age: 25, Role: rbac.RoleAdmin},
	}
	for _, u := range seed {
		u.PasswordHash = string(hash)
		u.Teams = []string{DefaultTeamID}
		u.CreatedAt = now
		u.UpdatedAt = now
		if err := s.repo.Insert(ctx, u); err != nil && !errors.Is(err, ErrDuplicateEmail) {
			return err
		}
	}
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

func mapRepoError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "User not found")
	case errors.Is(err, ErrDuplicateEmail):
		return apperr.Wrap(err, apperr.KindConflict, "Email already exists")
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Internal(err, "user store")
	}
}
