package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/projectday/navigator-backend/internal/models"
	"github.com/projectday/navigator-backend/internal/services"
)

// SessionTokenHeader carries the opaque visitor session token
const SessionTokenHeader = "X-Session-Token"

// SessionContextKey is the key used to store the session in Gin context
const SessionContextKey = "session"

// SessionMiddleware resolves the session token header into a session
// snapshot and aborts with 401 when it is missing or unknown.
func SessionMiddleware(sessionService *services.SessionService, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionTokenHeader)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Session token is required",
				"code":    "MISSING_SESSION_TOKEN",
			})
			c.Abort()
			return
		}

		session, err := sessionService.Get(token)
		if err != nil {
			logger.WithFields(logrus.Fields{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			}).Warn("Rejected unknown session token")

			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Session is invalid or has expired. Please log in again.",
				"code":    "INVALID_SESSION_TOKEN",
			})
			c.Abort()
			return
		}

		c.Set(SessionContextKey, session)
		c.Next()
	}
}

// OptionalSession resolves the token like SessionMiddleware but never
// aborts: a missing or unknown token just leaves no session in the context.
// Used by endpoints that also serve logged-out visitors, like the screen
// controller.
func OptionalSession(sessionService *services.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := c.GetHeader(SessionTokenHeader); token != "" {
			if session, err := sessionService.Get(token); err == nil {
				c.Set(SessionContextKey, session)
			}
		}
		c.Next()
	}
}

// GetSession retrieves the session snapshot stored by SessionMiddleware or
// OptionalSession
func GetSession(c *gin.Context) (models.SessionSnapshot, bool) {
	value, exists := c.Get(SessionContextKey)
	if !exists {
		return models.SessionSnapshot{}, false
	}

	session, ok := value.(models.SessionSnapshot)
	return session, ok
}
