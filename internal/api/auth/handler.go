// Package auth implements the login, logout and registration endpoints and
// the middleware guarding protected routes.
package auth

import (
	"errors"
	"net/http"

	"github.com/dealerhub/dealerhub/internal/api/models"
	"github.com/dealerhub/dealerhub/internal/api/response"
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/dealerhub/dealerhub/internal/logging"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionTokenKey = "session_token"
	userKey         = "user"

	statusAuthenticated   = "Authenticated"
	statusUnauthenticated = "Unauthenticated"
)

// Handler serves the identity endpoints.
type Handler struct {
	svc         *Service
	gravatarCfg *config.GravatarConfig
}

// NewHandler creates a new identity handler.
func NewHandler(svc *Service, gravatarCfg *config.GravatarConfig) *Handler {
	return &Handler{
		svc:         svc,
		gravatarCfg: gravatarCfg,
	}
}

type loginRequest struct {
	UserName string `json:"userName" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	UserName  string `json:"userName" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"omitempty,email"`
}

// Login authenticates the credentials and starts a session.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !response.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.Authenticate(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logging.FromContext(c).Info("Login failed", "username", req.UserName)
			c.JSON(http.StatusUnauthorized, gin.H{"userName": req.UserName, "status": statusUnauthenticated})
			return
		}
		response.Internal(c, "Failed to authenticate user", err)
		return
	}

	s, err := h.svc.IssueSession(c.Request.Context(), user)
	if err != nil {
		response.Internal(c, "Failed to create session", err)
		return
	}
	h.authenticated(c, user, s)
}

// Logout revokes the caller's session, if any. It always succeeds.
func (h *Handler) Logout(c *gin.Context) {
	token := tokenFromRequest(c)
	if err := h.svc.Revoke(c.Request.Context(), token); err != nil {
		logging.FromContext(c).Error("Failed to revoke session", "error", err)
	}

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logging.FromContext(c).Error("Failed to clear session", "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"userName": ""})
}

// Register creates a new account and logs it in.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !response.BindJSON(c, &req) {
		return
	}

	user, s, err := h.svc.Register(c.Request.Context(), Registration{
		Username:  req.UserName,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		if errors.Is(err, database.ErrUserExists) {
			logging.FromContext(c).Info("User is already registered", "username", req.UserName)
			c.JSON(http.StatusBadRequest, gin.H{"userName": req.UserName, "error": response.MsgAlreadyRegistered})
			return
		}
		if errors.Is(err, ErrPasswordTooLong) {
			response.InvalidFields(c, "password")
			return
		}
		response.Internal(c, "Failed to register user", err)
		return
	}

	logging.FromContext(c).Info("Registered new user", "username", user.Username)
	h.authenticated(c, user, s)
}

// Me returns the profile of the authenticated caller.
func (h *Handler) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Unauthorized(c)
		return
	}
	c.JSON(http.StatusOK, models.ToProfile(user))
}

// authenticated stores the token in the cookie session and writes the success envelope.
// The token is also in the body, so a cookie that cannot be saved only costs the cookie.
func (h *Handler) authenticated(c *gin.Context, user *database.User, s *database.Session) {
	session := sessions.Default(c)
	session.Set(sessionTokenKey, s.Token)
	if err := session.Save(); err != nil {
		logging.FromContext(c).Warn("Failed to save session cookie", "username", user.Username, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"userName": user.Username,
		"status":   statusAuthenticated,
		"token":    s.Token,
	})
}
