package httpapi

import (
	"net/http"
	"testing"

	"edgetrust/internal/identity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContent_TaskOwnership(t *testing.T) {
	r := newContentService(t)
	admin := asUser(identity.Context{SubjectID: "a", DisplayName: "Alice", Role: "admin"})
	bob := asUser(identity.Context{SubjectID: "b", DisplayName: "Bob", Role: "user"})
	carol := asUser(identity.Context{SubjectID: "c", DisplayName: "Carol", Role: "user"})

	w := do(t, r, http.MethodPost, "/api/tasks", gin.H{"title": "anon"}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The author is the caller, not whatever the body claims.
	w = do(t, r, http.MethodPost, "/api/tasks", gin.H{"title": "report", "author": "Alice"}, bob)
	require.Equal(t, http.StatusCreated, w.Code)
	task := decode(t, w)
	assert.Equal(t, "Bob", task["author"])
	id := task["id"].(string)

	w = do(t, r, http.MethodPut, "/api/tasks/"+id, gin.H{"status": "done"}, carol)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodDelete, "/api/tasks/"+id, nil, carol)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPut, "/api/tasks/"+id, gin.H{"status": "done"}, bob)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "done", decode(t, w)["status"])

	w = do(t, r, http.MethodDelete, "/api/tasks/"+id, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodDelete, "/api/tasks/"+id, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContent_PostsAndComments(t *testing.T) {
	r := newContentService(t)
	bob := asUser(identity.Context{SubjectID: "b", DisplayName: "Bob", Role: "user"})
	carol := asUser(identity.Context{SubjectID: "c", DisplayName: "Carol", Role: "user"})

	w := do(t, r, http.MethodPost, "/api/posts", gin.H{"title": "hello", "content": "world"}, bob)
	require.Equal(t, http.StatusCreated, w.Code)
	postID := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/posts/"+postID+"/comments", gin.H{"content": "nice"}, carol)
	require.Equal(t, http.StatusCreated, w.Code)
	commentID := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodPost, "/api/posts/missing/comments", gin.H{"content": "nice"}, carol)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodDelete, "/api/comments/"+commentID, nil, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodDelete, "/api/posts/"+postID, nil, bob)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/posts/"+postID+"/comments", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodDelete, "/api/comments/"+commentID, nil, carol)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContent_MalformedJSON(t *testing.T) {
	r := newContentService(t)
	bob := asUser(identity.Context{SubjectID: "b", DisplayName: "Bob", Role: "user"})

	w := do(t, r, http.MethodPost, "/api/tasks", "not an object", bob)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid JSON body"}`, w.Body.String())
}
