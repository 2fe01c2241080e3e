package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const SessionHeader = "X-Session-Token"

// SessionMiddleware admits requests carrying the wallet session token, either
// as a bearer token or in the X-Session-Token header. An empty token turns
// the check off.
func SessionMiddleware(token string) gin.HandlerFunc {
	if token == "" {
		logrus.Warn("SessionMiddleware: no session token configured, wallet API is open")
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(token)

	return func(c *gin.Context) {
		got := c.GetHeader(SessionHeader)
		if got == "" {
			got = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "session token is required in 'X-Session-Token' or 'Authorization' header"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			logrus.Warnf("SessionMiddleware: rejected token from %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid session token"})
			return
		}
		c.Next()
	}
}
