// api/middleware/session_middleware.go
package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-forms/config"
	"github.com/Annany2002/nebula-forms/internal/logger"
	"github.com/Annany2002/nebula-forms/internal/session"
)

var customLog = logger.NewLogger()

var (
	ErrAuthorizationRequired = errors.New("authorization header required")
	ErrBadRequest            = errors.New("bad request")
)

const sessionKey = "session"

// SessionMiddleware resolves the Bearer token to a live editor session.
// Failures are attached to the context and answered by ErrorHandler.
func SessionMiddleware(cfg *config.Config, store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(ErrAuthorizationRequired)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			_ = c.Error(fmt.Errorf("%w: authorization header format must be Bearer {token}", session.ErrTokenMalformed))
			c.Abort()
			return
		}

		claims, err := session.ValidateToken(parts[1], cfg.SessionSecret)
		if err != nil {
			customLog.Printf("SessionMiddleware: Token validation failed: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		sc, err := store.Get(claims.SessionID)
		if err != nil {
			customLog.Printf("SessionMiddleware: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}
		if sc.Profile.Name != claims.Profile {
			_ = c.Error(session.ErrTokenClaimsInvalid)
			c.Abort()
			return
		}

		c.Set(sessionKey, sc)
		c.Next()
	}
}

// CurrentSession returns the session SessionMiddleware attached to c.
func CurrentSession(c *gin.Context) *session.Context {
	return c.MustGet(sessionKey).(*session.Context)
}
