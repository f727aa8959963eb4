package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenKey    = "csrf_token"
	csrfHeaderField = "X-CSRF-Token"
)

// CSRFMiddleware protects state-changing connection operations when the
// caller is session-authenticated. HTTP API callers present a bearer
// credential per request and are exempt.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		// Generate token if not exists
		token := session.Get(csrfTokenKey)
		if token == nil {
			token = generateCSRFToken()
			session.Set(csrfTokenKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "failed to save session",
				})
				return
			}
		}

		c.Set(csrfTokenKey, token)

		// Validate token for state-changing methods
		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodDelete ||
			c.Request.Method == http.MethodPatch {
			submittedToken := c.GetHeader(csrfHeaderField)
			if submittedToken == "" {
				submittedToken = c.PostForm(csrfTokenKey)
			}

			if submittedToken == "" || submittedToken != token {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "CSRF token validation failed",
				})
				return
			}
		}

		c.Next()
	}
}

// generateCSRFToken generates a random CSRF token
func generateCSRFToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// rand.Read failing means the process has no usable entropy source
		panic("failed to generate CSRF token: " + err.Error())
	}
	return base64.StdEncoding.EncodeToString(b)
}

// GetCSRFToken retrieves the CSRF token from the context
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfTokenKey); exists {
		if tokenStr, ok := token.(string); ok {
			return tokenStr
		}
	}
	return ""
}
