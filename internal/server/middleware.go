package server

import (
	"errors"
	"net/http"
	"time"

	"campus-auction/utils"

	"github.com/gin-gonic/gin"
)

// Header carrying the authenticated user id, injected by the upstream
// gateway after it has verified the session.
const userIDHeader = "X-User-ID"

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// IdentityMiddleware extracts the upstream-authenticated user id and rejects
// requests that arrive without one.
func IdentityMiddleware(c *gin.Context) {
	userID := c.GetHeader(userIDHeader)
	if userID == "" {
		utils.JSONError(c, http.StatusUnauthorized, errors.New("missing authenticated user"), "unauthorized")
		c.Abort()
		return
	}
	utils.SetUserID(c, userID)
	c.Next()
}
