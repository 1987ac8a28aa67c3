package quiz_server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	clientCookie    = "quiz_client"
	clientHeader    = "X-Client-ID"
	clientKey       = "clientID"
	clientCookieAge = 365 * 24 * 60 * 60
)

// clientIdentity resolves the caller's id from the X-Client-ID header or the
// quiz_client cookie, issuing a fresh one when neither holds a valid UUID.
func clientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := validClientID(c.GetHeader(clientHeader))
		if id == "" {
			if cookie, err := c.Cookie(clientCookie); err == nil {
				id = validClientID(cookie)
			}
		}
		if id == "" {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(clientCookie, id, clientCookieAge, "/", "", c.Request.TLS != nil, true)
		}
		c.Set(clientKey, id)
		c.Header(clientHeader, id)
		c.Next()
	}
}

func validClientID(raw string) string {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.String()
}

func clientID(c *gin.Context) string {
	return c.GetString(clientKey)
}
