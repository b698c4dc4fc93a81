package utils

import "github.com/gin-gonic/gin"

// Key under which the authenticated user id is stored on the request
// context. Identity itself is resolved upstream; this layer only carries the
// opaque id along.
const userIDKey = "authenticated_user_id"

// SetUserID attaches the authenticated user id to the request context.
func SetUserID(c *gin.Context, userID string) {
	c.Set(userIDKey, userID)
}

// UserIDFrom returns the authenticated user id, if any.
func UserIDFrom(c *gin.Context) (string, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
