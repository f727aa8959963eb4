package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/go-badgelink/badgelink/internal/config"
	"github.com/go-badgelink/badgelink/internal/identity"
)

const (
	// SessionUserID is the session key holding the authenticated user id
	SessionUserID = "user_id"

	// ContextUserID is the gin context key the identity middleware fills
	ContextUserID = "user_id"
)

// ResolveIdentity resolves the caller's identity and stores the user id in
// the gin context without aborting. Routes that must render a response even
// for anonymous callers (the OAuth callback) use this; everything else
// layers RequireIdentity on top.
func ResolveIdentity(cfg *config.Config, verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch cfg.IdentityMode {
		case config.IdentityModeHTTPAPI:
			credential := bearerToken(c)
			if credential == "" {
				c.Next()
				return
			}
			id, err := verifier.Verify(c.Request.Context(), credential)
			if err != nil {
				c.Next()
				return
			}
			c.Set(ContextUserID, id.UserID)

		default: // session
			session := sessions.Default(c)
			if userID, ok := session.Get(SessionUserID).(string); ok && userID != "" {
				c.Set(ContextUserID, userID)
			}
		}

		c.Next()
	}
}

// RequireIdentity aborts with 401 when ResolveIdentity found no caller.
// It must run after ResolveIdentity.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the resolved caller id, or "" for anonymous requests
func UserID(c *gin.Context) string {
	if v, exists := c.Get(ContextUserID); exists {
		if userID, ok := v.(string); ok {
			return userID
		}
	}
	return ""
}

// bearerToken extracts the credential from the Authorization header
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
