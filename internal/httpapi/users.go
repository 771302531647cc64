package httpapi

import (
	"net/http"
	"strconv"

	"edgetrust/internal/apperr"
	"edgetrust/internal/audit"
	"edgetrust/internal/identity"
	"edgetrust/internal/rbac"
	"edgetrust/internal/teams"
	"edgetrust/internal/users"

	"github.com/gin-gonic/gin"
)

// UserHandlers serves /api/auth, /api/users and /api/teams.
type UserHandlers struct {
	Users *users.Service
	Teams *teams.Store
	Audit *audit.Service
	// PublicKeyPEM is served verbatim to the services that verify tokens.
	PublicKeyPEM []byte
}

type userSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// --- Auth ---

func (h UserHandlers) Register(c *gin.Context) {
	var req users.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Users.Register(c.Request.Context(), req)
	if err != nil {
		apperr.Abort(c, err)
		return
	}

	msg := "User created successfully"
	if u.Role == rbac.RoleAdmin {
		msg += " as ADMIN"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": msg,
		"user":    userSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role},
	})
}

func (h UserHandlers) Login(c *gin.Context) {
	var req users.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	tok, err := h.Users.Login(c.Request.Context(), req)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": tok})
}

func (h UserHandlers) PublicKey(c *gin.Context) {
	if len(h.PublicKeyPEM) == 0 {
		apperr.Abort(c, apperr.New(apperr.KindUnavailable, "Public key not available"))
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", h.PublicKeyPEM)
}

// --- Users ---

func (h UserHandlers) ListUsers(c *gin.Context) {
	out, err := h.Users.List(c.Request.Context())
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h UserHandlers) GetUser(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateUser, DeleteUser and ChangeRole sit behind rbac.RequireAdmin.

func (h UserHandlers) UpdateUser(c *gin.Context) {
	var req users.UpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Users.Update(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": u})
}

func (h UserHandlers) DeleteUser(c *gin.Context) {
	u, err := h.Users.Delete(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully", "user": u})
}

func (h UserHandlers) ChangeRole(c *gin.Context) {
	var req users.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.Users.ChangeRole(c.Request.Context(), actorFrom(c), c.Param("id"), req.Role)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": u})
}

// --- Teams ---

func (h UserHandlers) ListTeams(c *gin.Context) {
	c.JSON(http.StatusOK, h.Teams.List(c.Request.Context()))
}

func (h UserHandlers) CreateTeam(c *gin.Context) {
	var req teams.CreateRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.Teams.Create(c.Request.Context(), identity.FromGin(c), req)
	if err != nil {
		apperr.Abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// --- Audit ---

// ListAudit sits behind rbac.RequireAdmin.
func (h UserHandlers) ListAudit(c *gin.Context) {
	q := audit.Query{
		Type:        audit.EventType(c.Query("type")),
		TargetType:  audit.TargetType(c.Query("target_type")),
		ActorUserID: c.Query("actor_user_id"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			apperr.Abort(c, apperr.Validation("limit must be a positive integer"))
			return
		}
		q.Limit = n
	}
	out, err := h.Audit.List(c.Request.Context(), q)
	if err != nil {
		apperr.Abort(c, apperr.Internal(err, "list audit events"))
		return
	}
	c.JSON(http.StatusOK, out)
}
