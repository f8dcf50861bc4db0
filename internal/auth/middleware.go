package auth

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "auth.user_id"
)

// RequireLogin passes requests that carry either a browser session with a
// user id or a valid bearer access token.
func RequireLogin(tokens TokenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := sessionUser(c); ok {
			c.Set(contextUserKey, id)
			c.Next()
			return
		}

		authz := c.GetHeader("Authorization")
		if len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
			claims, err := tokens.ParseAccess(strings.TrimSpace(authz[len("bearer "):]))
			if err == nil {
				id, _ := claims.UserID()
				c.Set(contextUserKey, id)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "login required"})
	}
}

// CurrentUserID returns the id RequireLogin attached to the request.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// StartSession records u in the browser session.
func StartSession(c *gin.Context, u User) error {
	s, ok := session(c)
	if !ok {
		return nil
	}
	s.Clear()
	s.Set(sessionUserKey, u.ID)
	return s.Save()
}

// EndSession clears the browser session.
func EndSession(c *gin.Context) error {
	s, ok := session(c)
	if !ok {
		return nil
	}
	s.Clear()
	return s.Save()
}

func sessionUser(c *gin.Context) (int64, bool) {
	s, ok := session(c)
	if !ok {
		return 0, false
	}
	id, ok := s.Get(sessionUserKey).(int64)
	return id, ok && id > 0
}

// session returns nil, false when no sessions middleware is installed.
func session(c *gin.Context) (sessions.Session, bool) {
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return nil, false
	}
	return sessions.Default(c), true
}
