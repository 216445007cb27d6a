package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

type registerRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"omitempty,oneof=reporter viewer"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userPatch struct {
	Name  *string      `json:"name"`
	Email *string      `json:"email" binding:"omitempty,email"`
	Role  *models.Role `json:"role"`
}

func (h *Handler) issueSession(c *gin.Context, status int, u *models.User) {
	token, expires, err := h.sessions.Issue(u)
	if err != nil {
		respondError(c, err, "failed to issue session")
		return
	}
	c.JSON(status, gin.H{
		"user":       u,
		"token":      token,
		"expires_at": expires,
	})
}

// register creates reporter or viewer accounts only. Admins come from the
// create-admin command or from another admin.
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = models.RoleViewer
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	u := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := h.users.CreateUser(c.Request.Context(), u); err != nil {
		respondError(c, err, "failed to register user")
		return
	}
	h.issueSession(c, http.StatusCreated, u)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	u, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		err = auth.ErrInvalidCredentials
	}
	if err == nil {
		err = auth.CheckPassword(u.PasswordHash, req.Password)
	}
	if err != nil {
		respondError(c, err, "failed to log in")
		return
	}
	h.issueSession(c, http.StatusOK, u)
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.Revoke(c.Request.Context(), auth.BearerToken(c)); err != nil {
		respondError(c, err, "failed to log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context, p *auth.Principal) {
	u, err := h.users.GetUser(c.Request.Context(), p.UserID)
	if err != nil {
		respondError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) uploadPhoto(c *gin.Context, p *auth.Principal) {
	ctx := c.Request.Context()
	u, err := h.users.GetUser(ctx, p.UserID)
	if err != nil {
		respondError(c, err, "failed to fetch user")
		return
	}

	url, err := h.saveImage(c, "photo", "photos")
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	u.PhotoURL = url
	if err := h.users.UpdateUser(ctx, u); err != nil {
		respondError(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch userPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	if patch.Role != nil && !patch.Role.Valid() {
		badRequest(c, "invalid role")
		return
	}

	ctx := c.Request.Context()
	u, err := h.users.GetUser(ctx, id)
	if err != nil {
		respondError(c, err, "failed to fetch user")
		return
	}
	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}

	if err := h.users.UpdateUser(ctx, u); err != nil {
		respondError(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) deleteUser(c *gin.Context, p *auth.Principal) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if id == p.UserID {
		c.JSON(http.StatusConflict, gin.H{"error": "cannot delete your own account"})
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}
