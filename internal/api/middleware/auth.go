package middleware

import (
	"net/http"
	"strings"

	"realtime-service/internal/realtime"
	"realtime-service/internal/session"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	sessions session.Resolver
}

func NewAuthMiddleware(sessions session.Resolver) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireSession resolves the caller's session token and aborts with 401 when
// it does not resolve. The user id and session id are placed in the gin
// context for handlers.
func (am *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		sess, err := am.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		c.Set("user_id", sess.UserID)
		c.Set("session_id", sess.ID)
		c.Next()
	}
}

// requestToken reads the session credential from the Authorization header or
// the session cookie the login handler set.
func requestToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		return strings.Replace(authHeader, "Bearer ", "", 1)
	}
	if cookie, err := c.Cookie(realtime.SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// UserID reads the authenticated user id set by RequireSession.
func UserID(c *gin.Context) uint {
	return c.GetUint("user_id")
}

// SessionID reads the session id set by RequireSession.
func SessionID(c *gin.Context) string {
	return c.GetString("session_id")
}
