package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atmosai/atmosai/internal/domain/auth"
	"github.com/atmosai/atmosai/internal/infra/config"
)

// AuthHandler exposes registration, login, Google sign-in, and logout.
type AuthHandler struct {
	svc auth.Service
	cfg config.AuthConfig
}

// NewAuthHandler constructs the auth endpoints.
func NewAuthHandler(svc auth.Service, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// Register creates an account. It does not start a session; the client signs
// in afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "register_failed"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": view})
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	session, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "login_failed"))
		return
	}
	setSessionCookie(c, h.cfg, session)
	c.JSON(http.StatusOK, gin.H{"user": session.User, "expiresAt": session.ExpiresAt})
}

// Logout revokes the session and clears the cookie. Clearing succeeds even
// when no valid session is present.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(h.cfg.CookieName); err == nil && token != "" {
		if claims, err := h.svc.ValidateSession(c.Request.Context(), token); err == nil {
			if err := h.svc.Logout(c.Request.Context(), claims); err != nil {
				abortWithError(c, fromDomainError(err, "logout_failed"))
				return
			}
		}
	}
	clearSessionCookie(c, h.cfg)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "session required", nil))
		return
	}
	view, err := h.svc.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, fromDomainError(err, "auth_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": view})
}

// GoogleLogin starts the PKCE flow and redirects to Google's consent screen.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, verifier, challenge, err := auth.NewOAuthState()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "auth_failed", "failed to start sign-in", err))
		return
	}
	url, err := h.svc.GoogleAuthURL(c.Request.Context(), state, challenge)
	if err != nil {
		abortWithError(c, fromDomainError(err, "auth_failed"))
		return
	}
	setOAuthStateCookie(c, state, verifier)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback completes the PKCE flow, starts a session, and redirects
// back to the app.
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	stateCookie, ok := readOAuthStateCookie(c)
	clearOAuthStateCookie(c)
	if !ok || c.Query("state") != stateCookie.State {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "oauth state mismatch", nil))
		return
	}
	session, err := h.svc.GoogleCallback(c.Request.Context(), c.Query("code"), stateCookie.CodeVerifier)
	if err != nil {
		abortWithError(c, fromDomainError(err, "auth_failed"))
		return
	}
	setSessionCookie(c, h.cfg, session)
	redirect := h.cfg.PostLoginRedirectURL
	if redirect == "" {
		redirect = "/"
	}
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}
