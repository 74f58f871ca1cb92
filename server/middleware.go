package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderAPIKey is the shared-secret request header.
const HeaderAPIKey = "X-API-Key"

// requireAPIKey rejects requests whose X-API-Key header does not match the
// configured secret. A missing or wrong key is forbidden, never unauthorized:
// there is no challenge flow to continue.
func (s *Server) requireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HeaderAPIKey)
		if s.apiKey == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or missing API key"})
			return
		}
		c.Next()
	}
}
