package content

import (
	"context"
	"errors"
	"time"

	"edgetrust/internal/apperr"
	"edgetrust/internal/audit"
	"edgetrust/internal/identity"
	"edgetrust/internal/rbac"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Service applies the authorization policy to content operations:
// create needs a caller with a subject id, update needs the owner, delete
// needs the owner or an admin. The owner recorded on creation is always the
// caller, never a client-supplied name.
type Service struct {
	store    *Store
	audit    *audit.Service
	validate *validator.Validate
	clock    func() time.Time
}

func NewService(store *Store, auditSvc *audit.Service) *Service {
	return &Service{
		store:    store,
		audit:    auditSvc,
		validate: apperr.NewValidator(),
		clock:    time.Now,
	}
}

/* ===================== TASKS ===================== */

func (s *Service) ListTasks(ctx context.Context) []Task {
	return s.store.Tasks()
}

func (s *Service) CreateTask(ctx context.Context, caller identity.Context, in TaskInput) (Task, error) {
	if err := rbac.Require(caller, rbac.ActionCreate, ""); err != nil {
		return Task{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return Task{}, apperr.FromValidation(err)
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}

	now := s.clock().UTC()
	t := Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Author:      caller.DisplayName,
		AuthorID:    caller.SubjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.store.AddTask(t)
	return t, nil
}

func (s *Service) UpdateTask(ctx context.Context, caller identity.Context, id string, p TaskPatch) (Task, error) {
	if err := s.validate.Struct(p); err != nil {
		return Task{}, apperr.FromValidation(err)
	}
	now := s.clock().UTC()
	t, err := s.store.UpdateTask(id, func(t *Task) error {
		if err := rbac.Require(caller, rbac.ActionUpdate, t.Author); err != nil {
			return err
		}
		if p.Title != nil {
			t.Title = *p.Title
		}
		if p.Description != nil {
			t.Description = *p.Description
		}
		if p.Status != nil {
			t.Status = *p.Status
		}
		t.UpdatedAt = now
		return nil
	})
	return t, s.finish(ctx, caller, audit.TargetTask, id, err)
}

func (s *Service) DeleteTask(ctx context.Context, caller identity.Context, id string) error {
	_, err := s.store.DeleteTask(id, func(t Task) error {
		return rbac.Require(caller, rbac.ActionDelete, t.Author)
	})
	if err == nil {
		s.audit.LogDeleted(ctx, actorOf(caller), audit.TargetTask, id)
	}
	return s.finish(ctx, caller, audit.TargetTask, id, err)
}

/* ===================== POSTS ===================== */

func (s *Service) ListPosts(ctx context.Context) []Post {
	return s.store.Posts()
}

func (s *Service) GetPost(ctx context.Context, id string) (Post, error) {
	p, err := s.store.Post(id)
	if err != nil {
		return Post{}, notFound(err)
	}
	return p, nil
}

func (s *Service) CreatePost(ctx context.Context, caller identity.Context, in PostInput) (Post, error) {
	if err := rbac.Require(caller, rbac.ActionCreate, ""); err != nil {
		return Post{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return Post{}, apperr.FromValidation(err)
	}

	now := s.clock().UTC()
	p := Post{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Content:   in.Content,
		Author:    caller.DisplayName,
		AuthorID:  caller.SubjectID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.store.AddPost(p)
	return p, nil
}

func (s *Service) UpdatePost(ctx context.Context, caller identity.Context, id string, patch PostPatch) (Post, error) {
	if err := s.validate.Struct(patch); err != nil {
		return Post{}, apperr.FromValidation(err)
	}
	now := s.clock().UTC()
	p, err := s.store.UpdatePost(id, func(p *Post) error {
		if err := rbac.Require(caller, rbac.ActionUpdate, p.Author); err != nil {
			return err
		}
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.Content != nil {
			p.Content = *patch.Content
		}
		p.UpdatedAt = now
		return nil
	})
	return p, s.finish(ctx, caller, audit.TargetPost, id, err)
}

// DeletePost also removes the post's comments.
func (s *Service) DeletePost(ctx context.Context, caller identity.Context, id string) error {
	_, err := s.store.DeletePost(id, func(p Post) error {
		return rbac.Require(caller, rbac.ActionDelete, p.Author)
	})
	if err == nil {
		s.audit.LogDeleted(ctx, actorOf(caller), audit.TargetPost, id)
	}
	return s.finish(ctx, caller, audit.TargetPost, id, err)
}

/* ===================== COMMENTS ===================== */

func (s *Service) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	if _, err := s.store.Post(postID); err != nil {
		return nil, notFound(err)
	}
	return s.store.Comments(postID), nil
}

func (s *Service) CreateComment(ctx context.Context, caller identity.Context, postID string, in CommentInput) (Comment, error) {
	if err := rbac.Require(caller, rbac.ActionCreate, ""); err != nil {
		return Comment{}, err
	}
	if err := s.validate.Struct(in); err != nil {
		return Comment{}, apperr.FromValidation(err)
	}

	c := Comment{
		ID:        uuid.NewString(),
		PostID:    postID,
		Content:   in.Content,
		Author:    caller.DisplayName,
		AuthorID:  caller.SubjectID,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.store.AddComment(c); err != nil {
		return Comment{}, notFound(err)
	}
	return c, nil
}

func (s *Service) DeleteComment(ctx context.Context, caller identity.Context, id string) error {
	_, err := s.store.DeleteComment(id, func(c Comment) error {
		return rbac.Require(caller, rbac.ActionDelete, c.Author)
	})
	if err == nil {
		s.audit.LogDeleted(ctx, actorOf(caller), audit.TargetComment, id)
	}
	return s.finish(ctx, caller, audit.TargetComment, id, err)
}

/* ===================== HELPERS ===================== */

// finish maps store errors and records authorization denials.
func (s *Service) finish(ctx context.Context, caller identity.Context, target audit.TargetType, id string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := apperr.As(err); ok {
		if e.Kind == apperr.KindAuthorization {
			s.audit.LogDenied(ctx, actorOf(caller), target, id, e.Message)
		}
		return err
	}
	return notFound(err)
}

func notFound(err error) error {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "Task not found")
	case errors.Is(err, ErrPostNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "Post not found")
	case errors.Is(err, ErrCommentNotFound):
		return apperr.Wrap(err, apperr.KindNotFound, "Comment not found")
	default:
		return apperr.Internal(err, "content store")
	}
}

func actorOf(c identity.Context) audit.Actor {
	return audit.Actor{UserID: c.SubjectID, Name: c.DisplayName, Role: c.Role}
}
