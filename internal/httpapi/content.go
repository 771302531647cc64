package httpapi

import (
	"net/http"

	"edgetrust/internal/apperr"
	"edgetrust/internal/content"
	"edgetrust/internal/identity"

	"github.com/gin-gonic/gin"
)

// ContentHandlers serves /api/tasks, /api/posts and /api/comments.
// The caller identity always comes from identity.Middleware.
type ContentHandlers struct {
	Content *content.Service
}

// --- Tasks ---

func (h ContentHandlers) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, h.Content.ListTasks(c.Request.Context()))
}

func (h ContentHandlers) CreateTask(c *gin.Context) {
	var in content.TaskInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.Content.CreateTask(c.Request.Context(), identity.FromGin(c), in)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h ContentHandlers) UpdateTask(c *gin.Context) {
	var p content.TaskPatch
	if !bindJSON(c, &p) {
		return
	}
	t, err := h.Content.UpdateTask(c.Request.Context(), identity.FromGin(c), c.Param("id"), p)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h ContentHandlers) DeleteTask(c *gin.Context) {
	if err := h.Content.DeleteTask(c.Request.Context(), identity.FromGin(c), c.Param("id")); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// --- Posts ---

func (h ContentHandlers) ListPosts(c *gin.Context) {
	c.JSON(http.StatusOK, h.Content.ListPosts(c.Request.Context()))
}

func (h ContentHandlers) GetPost(c *gin.Context) {
	p, err := h.Content.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h ContentHandlers) CreatePost(c *gin.Context) {
	var in content.PostInput
	if !bindJSON(c, &in) {
		return
	}
	p, err := h.Content.CreatePost(c.Request.Context(), identity.FromGin(c), in)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h ContentHandlers) UpdatePost(c *gin.Context) {
	var patch content.PostPatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.Content.UpdatePost(c.Request.Context(), identity.FromGin(c), c.Param("id"), patch)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h ContentHandlers) DeletePost(c *gin.Context) {
	if err := h.Content.DeletePost(c.Request.Context(), identity.FromGin(c), c.Param("id")); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// --- Comments ---

func (h ContentHandlers) ListComments(c *gin.Context) {
	out, err := h.Content.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h ContentHandlers) CreateComment(c *gin.Context) {
	var in content.CommentInput
	if !bindJSON(c, &in) {
		return
	}
	cm, err := h.Content.CreateComment(c.Request.Context(), identity.FromGin(c), c.Param("id"), in)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h ContentHandlers) DeleteComment(c *gin.Context) {
	if err := h.Content.DeleteComment(c.Request.Context(), identity.FromGin(c), c.Param("id")); err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
