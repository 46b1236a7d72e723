package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dfryer1193/artblog/blog/session"
)

const sessionKey = "session"

// RequireSession rejects requests without a live authoring session.
func RequireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(session.CookieName)
		if err != nil || id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		sess, err := sessions.Lookup(c.Request.Context(), id)
		if err != nil {
			c.SetCookie(session.CookieName, "0", -1, "/", "", c.Request.TLS != nil, true)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// GetSession returns the session stored by RequireSession, or nil.
func GetSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
