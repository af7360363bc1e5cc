package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atmosai/atmosai/internal/domain/auth"
	"github.com/atmosai/atmosai/internal/infra/config"
)

func setSessionCookie(c *gin.Context, cfg config.AuthConfig, session auth.Session) {
	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, session.Token, maxAge, "/", "", cfg.CookieSecure, true)
}

func clearSessionCookie(c *gin.Context, cfg config.AuthConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.CookieSecure, true)
}
