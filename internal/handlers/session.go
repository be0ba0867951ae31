package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"dailyquestions/internal/middleware"
)

// GetUserIDFromSession extracts the logged-in user's id from the session.
// Returns 0 and false when no valid session exists.
func GetUserIDFromSession(c *gin.Context) (int, bool) {
	// Middleware puts the validated id in the request context first
	if id := c.GetInt(middleware.UserIDKey); id != 0 {
		return id, true
	}

	session := sessions.Default(c)
	userID := session.Get(middleware.UserIDKey)
	if userID == nil {
		return 0, false
	}

	switch v := userID.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
