package auth

import (
	"errors"
	"strings"

	"github.com/dealerhub/dealerhub/internal/api/models"
	"github.com/dealerhub/dealerhub/internal/api/response"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/dealerhub/dealerhub/internal/logging"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth accepts a bearer token or the token kept in the cookie session.
// Requests without a valid session are aborted with 403.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Unauthorized(c)
			return
		}

		s, err := h.svc.ValidateSession(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, database.ErrSessionInvalid) {
				logging.FromContext(c).Error("Failed to validate session", "error", err)
			}
			response.Unauthorized(c)
			return
		}

		c.Set(userKey, models.ToUser(s, h.gravatarCfg))
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// tokenFromRequest prefers the Authorization header over the cookie session.
func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}

	if token, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok {
		return token
	}
	return ""
}
