// Package session stores the logged in user in a signed cookie.
package session

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// Name is the name of the session cookie.
	Name = "subgen_session"
	// UsernameKey is the session and context key holding the logged in user.
	UsernameKey = "username"
	// AvatarKey holds the avatar URL of the logged in user, if any.
	AvatarKey = "avatar"
)

// Username returns the logged in user or an empty string.
func Username(c *gin.Context) string {
	return getSessionString(sessions.Default(c), UsernameKey)
}

// Avatar returns the avatar URL of the logged in user or an empty string.
func Avatar(c *gin.Context) string {
	return getSessionString(sessions.Default(c), AvatarKey)
}

// Login records username and its avatar in the session.
func Login(c *gin.Context, username, avatar string) error {
	s := sessions.Default(c)
	s.Set(UsernameKey, username)
	if avatar != "" {
		s.Set(AvatarKey, avatar)
	} else {
		s.Delete(AvatarKey)
	}
	return s.Save()
}

// Logout clears the session. Clearing an empty session is fine.
func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// RequireAuth redirects to the login page when no user is logged in.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := Username(c)
		if username == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(UsernameKey, username)
		c.Next()
	}
}

func getSessionString(s sessions.Session, key string) string {
	if v, ok := s.Get(key).(string); ok {
		return v
	}
	return ""
}
