package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/atmosai/atmosai/internal/domain/advisor"
	"github.com/atmosai/atmosai/internal/domain/chat"
	"github.com/atmosai/atmosai/internal/domain/dashboard"
	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
	"github.com/atmosai/atmosai/internal/domain/profile"
	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	resolver   location.Resolver
	envSvc     env.Service
	advisorSvc advisor.Service
	chatSvc    chat.Service
	profileSvc profile.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(resolver location.Resolver, envSvc env.Service, advisorSvc advisor.Service, chatSvc chat.Service, profileSvc profile.Service, logger *slog.Logger) *Handler {
	return &Handler{
		resolver:   resolver,
		envSvc:     envSvc,
		advisorSvc: advisorSvc,
		chatSvc:    chatSvc,
		profileSvc: profileSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// GetWeather returns current weather and air quality for a named location or
// device coordinates.
func (h *Handler) GetWeather(c *gin.Context) {
	target, httpErr := targetFromQuery(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	var (
		resolved location.Resolved
		err      error
	)
	if target.Coordinates != nil {
		resolved = location.Resolved{Latitude: target.Coordinates.Latitude, Longitude: target.Coordinates.Longitude}
		if place, describeErr := h.resolver.Describe(c.Request.Context(), resolved.Latitude, resolved.Longitude); describeErr == nil {
			resolved.DisplayLabel = place.FormattedAddress
		}
	} else {
		resolved, err = h.resolver.Resolve(c.Request.Context(), target.Location)
		if err != nil {
			abortWithError(c, fromDomainError(err, "weather_failed"))
			return
		}
	}

	snapshot, err := h.envSvc.Fetch(c.Request.Context(), env.Coordinates{Latitude: resolved.Latitude, Longitude: resolved.Longitude})
	if err != nil {
		abortWithError(c, fromDomainError(err, "weather_failed"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"weather": snapshot.Weather,
		"aqi":     snapshot.AQI,
		"location": gin.H{
			"name":      resolved.DisplayLabel,
			"latitude":  resolved.Latitude,
			"longitude": resolved.Longitude,
		},
	})
}

type suggestionsRequest struct {
	Weather *env.WeatherReading    `json:"weather"`
	AQI     *env.AQIReading        `json:"aqi"`
	Profile *profile.HealthProfile `json:"userProfile"`
}

// Suggestions evaluates health suggestions for the supplied readings. AI
// failures fall back internally, so this route only fails on bad input.
func (h *Handler) Suggestions(c *gin.Context) {
	var req suggestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if req.Weather == nil || req.AQI == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "weather and aqi data are required", nil))
		return
	}

	result := h.advisorSvc.Evaluate(c.Request.Context(), advisor.Request{
		Weather: *req.Weather,
		AQI:     *req.AQI,
		Profile: req.Profile,
	})
	c.JSON(http.StatusOK, result)
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat answers a single advisor question for the signed-in user.
func (h *Handler) Chat(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "session required", nil))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	answer, err := h.chatSvc.Answer(c.Request.Context(), claims.UserID, req.Message)
	if err != nil {
		abortWithError(c, fromDomainError(err, "chat_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": answer})
}

// GetProfile returns the stored health profile for the signed-in user.
func (h *Handler) GetProfile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "session required", nil))
		return
	}

	stored, err := h.profileSvc.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, fromDomainError(err, "profile_failed"))
		return
	}
	c.JSON(http.StatusOK, stored)
}

// UpdateProfile applies a partial patch; absent fields keep stored values.
func (h *Handler) UpdateProfile(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "session required", nil))
		return
	}

	var patch profile.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	updated, err := h.profileSvc.Update(c.Request.Context(), claims.UserID, patch)
	if err != nil {
		abortWithError(c, fromDomainError(err, "profile_failed"))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Dashboard runs a full refresh cycle and returns the settled snapshot. The
// signed-in user's profile feeds the suggestion engine when available. Each
// request gets its own orchestrator; the supersede token only orders refreshes
// within one client's cycle, never across unrelated callers.
func (h *Handler) Dashboard(c *gin.Context) {
	target, httpErr := targetFromQuery(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	var userProfile *profile.HealthProfile
	if claims, ok := getClaims(c); ok {
		if stored, err := h.profileSvc.Get(c.Request.Context(), claims.UserID); err == nil {
			userProfile = &stored
		}
	}

	orchestrator := dashboard.NewOrchestrator(h.resolver, h.envSvc, h.advisorSvc, h.logger)
	snapshot := orchestrator.Refresh(c.Request.Context(), target, userProfile)
	c.JSON(http.StatusOK, snapshot)
}

func targetFromQuery(c *gin.Context) (dashboard.Target, *HTTPError) {
	latRaw := strings.TrimSpace(c.Query("lat"))
	lonRaw := strings.TrimSpace(c.Query("lon"))
	if latRaw != "" || lonRaw != "" {
		lat, latErr := strconv.ParseFloat(latRaw, 64)
		lon, lonErr := strconv.ParseFloat(lonRaw, 64)
		if latErr != nil || lonErr != nil {
			return dashboard.Target{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "lat and lon must both be valid numbers", nil)
		}
		return dashboard.Target{Coordinates: &env.Coordinates{Latitude: lat, Longitude: lon}}, nil
	}
	query := strings.TrimSpace(c.Query("location"))
	if query == "" {
		return dashboard.Target{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "location parameter is required", nil)
	}
	return dashboard.Target{Location: query}, nil
}

func fromDomainError(err error, fallbackCode string) *HTTPError {
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", appMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, "unauthorized", appMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeNotFound):
		return NewHTTPError(http.StatusNotFound, "not_found", appMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeNotConfigured):
		return NewHTTPError(http.StatusInternalServerError, "not_configured", appMessage(err), err)
	case apperrors.IsCode(err, apperrors.CodeUpstreamError):
		return NewHTTPError(http.StatusInternalServerError, fallbackCode, appMessage(err), err)
	default:
		return NewHTTPError(http.StatusInternalServerError, fallbackCode, appMessage(err), err)
	}
}

// appMessage returns only the domain error's own message. Wrapped causes,
// including upstream response bodies, stay server-side in logs.
func appMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
