package httpapi

import (
	"edgetrust/internal/rbac"

	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes wires the user service API. Identity middleware must
// already be installed on r.
func RegisterUserRoutes(r gin.IRouter, h UserHandlers) {
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/public-key", h.PublicKey)
	}

	usersGroup := r.Group("/api/users")
	{
		usersGroup.GET("", h.ListUsers)
		usersGroup.GET("/:id", h.GetUser)

		admin := usersGroup.Group("", rbac.RequireAdmin())
		admin.PUT("/:id", h.UpdateUser)
		admin.DELETE("/:id", h.DeleteUser)
		admin.PUT("/:id/role", h.ChangeRole)
	}

	teamsGroup := r.Group("/api/teams")
	{
		teamsGroup.GET("", h.ListTeams)
		teamsGroup.POST("", h.CreateTeam)
	}

	r.GET("/api/audit", rbac.RequireAdmin(), h.ListAudit)
}

// RegisterContentRoutes wires the content service API.
func RegisterContentRoutes(r gin.IRouter, h ContentHandlers) {
	tasks := r.Group("/api/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.PUT("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}

	posts := r.Group("/api/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", h.CreatePost)
		posts.GET("/:id", h.GetPost)
		posts.PUT("/:id", h.UpdatePost)
		posts.DELETE("/:id", h.DeletePost)
		posts.GET("/:id/comments", h.ListComments)
		posts.POST("/:id/comments", h.CreateComment)
	}

	r.DELETE("/api/comments/:id", h.DeleteComment)
}
