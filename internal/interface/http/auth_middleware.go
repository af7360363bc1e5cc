package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atmosai/atmosai/internal/domain/auth"
)

// requireSession validates the session cookie and aborts with 401 when it is
// missing, expired, or revoked.
func requireSession(svc auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "session required", nil))
			return
		}
		claims, err := svc.ValidateSession(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", appMessage(err), err))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// optionalSession attaches claims when a valid session cookie is present but
// never rejects the request.
func optionalSession(svc auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(cookieName); err == nil && token != "" {
			if claims, err := svc.ValidateSession(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}
