package content

import (
	"context"
	"testing"

	"edgetrust/internal/apperr"
	"edgetrust/internal/audit"
	"edgetrust/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = identity.Context{SubjectID: "a", DisplayName: "Alice", Role: "admin", TeamIDs: []string{}}
	bob   = identity.Context{SubjectID: "b", DisplayName: "Bob", Role: "user", TeamIDs: []string{}}
	carol = identity.Context{SubjectID: "c", DisplayName: "Carol", Role: "user", TeamIDs: []string{}}
	mona  = identity.Context{SubjectID: "m", DisplayName: "Mona", Role: "moderator", TeamIDs: []string{}}
)

func newTestService() (*Service, *audit.MemoryRepo) {
	audits := audit.NewMemoryRepo()
	return NewService(NewStore(), audit.NewService(audits, nil)), audits
}

func TestTasks_OwnershipAndAdminOverride(t *testing.T) {
	svc, audits := newTestService()
	ctx := context.Background()

	bobs, err := svc.CreateTask(ctx, bob, TaskInput{Title: "write report"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", bobs.Author)
	assert.Equal(t, StatusTodo, bobs.Status)

	carols, err := svc.CreateTask(ctx, carol, TaskInput{Title: "review"})
	require.NoError(t, err)

	// Bob cannot delete Carol's task.
	err = svc.DeleteTask(ctx, bob, carols.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	// Moderator has no extra privilege.
	err = svc.DeleteTask(ctx, mona, carols.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	// Admin deletes Bob's task.
	require.NoError(t, svc.DeleteTask(ctx, alice, bobs.ID))
	assert.Len(t, svc.ListTasks(ctx), 1)

	var denied, deleted int
	for _, e := range audits.Events() {
		switch e.Type {
		case audit.EventTypeAccessDenied:
			denied++
		case audit.EventTypeResourceDeleted:
			deleted++
		}
	}
	assert.Equal(t, 2, denied)
	assert.Equal(t, 1, deleted)
}

func TestTasks_UpdateIsOwnerOnly(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, bob, TaskInput{Title: "draft"})
	require.NoError(t, err)

	done := StatusDone
	_, err = svc.UpdateTask(ctx, alice, task.ID, TaskPatch{Status: &done})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	got, err := svc.UpdateTask(ctx, bob, task.ID, TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, "draft", got.Title)

	bad := "archived"
	_, err = svc.UpdateTask(ctx, bob, task.ID, TaskPatch{Status: &bad})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.UpdateTask(ctx, bob, "missing", TaskPatch{Status: &done})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreate_RequiresSubjectAndUsesCallerAsOwner(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreatePost(ctx, identity.Anonymous(), PostInput{Title: "t", Content: "c"})
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	_, err = svc.CreatePost(ctx, bob, PostInput{Title: "t"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	p, err := svc.CreatePost(ctx, bob, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", p.Author)
	assert.Equal(t, "b", p.AuthorID)
}

func TestDeletePost_CascadesComments(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, bob, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	_, err = svc.CreateComment(ctx, carol, p.ID, CommentInput{Content: "nice"})
	require.NoError(t, err)

	comments, err := svc.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)

	require.NoError(t, svc.DeletePost(ctx, bob, p.ID))

	_, err = svc.GetPost(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = svc.ListComments(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Empty(t, svc.store.Comments(p.ID))
}

func TestComments(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateComment(ctx, bob, "nope", CommentInput{Content: "x"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	p, err := svc.CreatePost(ctx, bob, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	c, err := svc.CreateComment(ctx, carol, p.ID, CommentInput{Content: "hi"})
	require.NoError(t, err)

	// The post owner does not own other people's comments.
	err = svc.DeleteComment(ctx, bob, c.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	require.NoError(t, svc.DeleteComment(ctx, alice, c.ID))
	err = svc.DeleteComment(ctx, alice, c.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdatePost_NameBasedOwnership(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	p, err := svc.CreatePost(ctx, bob, PostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	otherBob := identity.Context{SubjectID: "b2", DisplayName: "Bob", Role: "user"}
	title := "edited"
	got, err := svc.UpdatePost(ctx, otherBob, p.ID, PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Title)
}
