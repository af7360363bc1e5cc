package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atmosai/atmosai/internal/domain/advisor"
	"github.com/atmosai/atmosai/internal/domain/auth"
	"github.com/atmosai/atmosai/internal/domain/dashboard"
	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
	"github.com/atmosai/atmosai/internal/domain/profile"
	"github.com/atmosai/atmosai/internal/infra/config"
	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

const (
	testCookieName = "atmosai_session"
	validToken     = "valid-session-token"
)

func TestRouter_WeatherByLocation(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.resolveFn = func(ctx context.Context, query string) (location.Resolved, error) {
		require.Equal(t, "New Delhi, India", query)
		return location.Resolved{Latitude: 28.6, Longitude: 77.2, DisplayLabel: "New Delhi, India"}, nil
	}
	deps.env.fetchFn = func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
		require.InDelta(t, 28.6, coords.Latitude, 0.001)
		return env.Snapshot{
			Weather: env.WeatherReading{Temperature: 31, Condition: env.ConditionSunny},
			AQI:     env.AQIReading{Value: 142},
		}, nil
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/weather?location=New+Delhi,+India", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Weather  env.WeatherReading `json:"weather"`
		AQI      env.AQIReading     `json:"aqi"`
		Location struct {
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 31, body.Weather.Temperature)
	require.Equal(t, 142, body.AQI.Value)
	require.Equal(t, "New Delhi, India", body.Location.Name)
}

func TestRouter_WeatherMissingLocation(t *testing.T) {
	deps := newTestDeps()

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/weather", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "location parameter is required")
}

func TestRouter_WeatherLocationNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.resolveFn = func(ctx context.Context, query string) (location.Resolved, error) {
		return location.Resolved{}, apperrors.Wrap(apperrors.CodeNotFound, "location not found: Xyzzyville", nil)
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/weather?location=Xyzzyville", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "not_found", errBody["error"]["code"])
}

func TestRouter_WeatherUpstreamFailure(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.resolveFn = func(ctx context.Context, query string) (location.Resolved, error) {
		return location.Resolved{Latitude: 1, Longitude: 2}, nil
	}
	deps.env.fetchFn = func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
		return env.Snapshot{}, apperrors.Wrap(apperrors.CodeUpstreamError, "failed to fetch weather data", nil)
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/weather?location=Delhi", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_WeatherUpstreamBodyNotExposed(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.resolveFn = func(ctx context.Context, query string) (location.Resolved, error) {
		return location.Resolved{Latitude: 1, Longitude: 2}, nil
	}
	deps.env.fetchFn = func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
		upstream := &env.UpstreamError{Status: 503, Detail: `{"provider":"internal maintenance note"}`}
		return env.Snapshot{}, apperrors.Wrap(apperrors.CodeUpstreamError, "failed to fetch weather data", upstream)
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/weather?location=Delhi", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "failed to fetch weather data", errBody["error"]["message"])
	require.NotContains(t, rec.Body.String(), "internal maintenance note")
	require.NotContains(t, rec.Body.String(), "503")
}

func TestRouter_WeatherByCoordinates(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.describeFn = func(ctx context.Context, lat, lon float64) (location.Place, error) {
		return location.Place{City: "Delhi", FormattedAddress: "Delhi, India"}, nil
	}
	deps.env.fetchFn = func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
		require.InDelta(t, 28.6, coords.Latitude, 0.001)
		require.InDelta(t, 77.2, coords.Longitude, 0.001)
		return env.Snapshot{Weather: env.WeatherReading{Temperature: 30}}, nil
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/weather?lat=28.6&lon=77.2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Delhi, India")
}

func TestRouter_SuggestionsRequiresReadings(t *testing.T) {
	deps := newTestDeps()

	rec := doRequest(deps.server(t), http.MethodPost, "/api/v1/suggestions", `{"weather":{"temperature":30}}`, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Contains(t, errBody["error"]["message"], "weather and aqi data are required")
}

func TestRouter_SuggestionsSuccess(t *testing.T) {
	deps := newTestDeps()
	deps.advisor.evaluateFn = func(ctx context.Context, req advisor.Request) advisor.Result {
		require.Equal(t, 142, req.AQI.Value)
		return advisor.Result{
			Suggestions: []advisor.Suggestion{{ID: "1", Title: "Monitor Air Quality", Priority: advisor.PriorityMedium}},
			RiskScore:   advisor.RiskScore{Score: 71, Reason: "Based on AQI of 142 (Unhealthy for Sensitive Groups)"},
		}
	}

	rec := doRequest(deps.server(t), http.MethodPost, "/api/v1/suggestions", `{"weather":{"temperature":30},"aqi":{"value":142}}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result advisor.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Suggestions, 1)
	require.Equal(t, 71, result.RiskScore.Score)
}

func TestRouter_ChatRequiresSession(t *testing.T) {
	deps := newTestDeps()

	rec := doRequest(deps.server(t), http.MethodPost, "/api/v1/chat", `{"message":"hello"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ChatWithSession(t *testing.T) {
	deps := newTestDeps()
	deps.chat.answerFn = func(ctx context.Context, userID int64, message string) (string, error) {
		require.Equal(t, int64(7), userID)
		require.Equal(t, "is it safe to run outside?", message)
		return "Air quality is moderate; a short run is fine.", nil
	}

	rec := doRequest(deps.server(t), http.MethodPost, "/api/v1/chat", `{"message":"is it safe to run outside?"}`, validToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "moderate")
}

func TestRouter_ProfileRequiresSession(t *testing.T) {
	deps := newTestDeps()

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/profile", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(deps.server(t), http.MethodPut, "/api/v1/profile", `{"name":"Asha"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ProfileRoundTrip(t *testing.T) {
	deps := newTestDeps()
	stored := profile.HealthProfile{Name: "Asha", Age: 34, Location: "Delhi", PastIllness: []string{"asthma"}}
	deps.profile.getFn = func(ctx context.Context, userID int64) (profile.HealthProfile, error) {
		require.Equal(t, int64(7), userID)
		return stored, nil
	}
	deps.profile.updateFn = func(ctx context.Context, userID int64, patch profile.Patch) (profile.HealthProfile, error) {
		require.NotNil(t, patch.Name)
		require.Equal(t, "Asha Rao", *patch.Name)
		require.Nil(t, patch.Age)
		updated := stored
		updated.Name = *patch.Name
		return updated, nil
	}

	server := deps.server(t)

	rec := doRequest(server, http.MethodGet, "/api/v1/profile", "", validToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "asthma")

	rec = doRequest(server, http.MethodPut, "/api/v1/profile", `{"name":"Asha Rao"}`, validToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Asha Rao")
}

func TestRouter_ProfileNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.profile.getFn = func(ctx context.Context, userID int64) (profile.HealthProfile, error) {
		return profile.HealthProfile{}, apperrors.Wrap(apperrors.CodeNotFound, "profile not found", nil)
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/profile", "", validToken)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_DashboardSettles(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.resolveFn = func(ctx context.Context, query string) (location.Resolved, error) {
		return location.Resolved{Latitude: 28.6, Longitude: 77.2, DisplayLabel: "Delhi"}, nil
	}
	deps.env.fetchFn = func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
		return env.Snapshot{
			Weather: env.WeatherReading{Temperature: 31},
			AQI:     env.AQIReading{Value: 96},
		}, nil
	}
	deps.advisor.evaluateFn = func(ctx context.Context, req advisor.Request) advisor.Result {
		return advisor.Result{
			Suggestions: []advisor.Suggestion{{ID: "1", Title: "Monitor Air Quality"}},
			RiskScore:   advisor.RiskScore{Score: 48, Reason: "Based on AQI of 96 (Moderate)"},
		}
	}

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/dashboard?location=Delhi", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, dashboard.StateSettled, snap.State)
	require.False(t, snap.LoadingWeather)
	require.False(t, snap.LoadingSuggestions)
	require.NotNil(t, snap.Weather)
	require.Len(t, snap.Suggestions, 1)
}

func TestRouter_DashboardConcurrentRequestsIsolated(t *testing.T) {
	deps := newTestDeps()
	deps.resolver.resolveFn = func(ctx context.Context, query string) (location.Resolved, error) {
		return location.Resolved{DisplayLabel: query}, nil
	}

	firstFetchStarted := make(chan struct{})
	releaseFirst := make(chan struct{})
	var firstCall atomic.Bool
	firstCall.Store(true)
	deps.env.fetchFn = func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
		if firstCall.CompareAndSwap(true, false) {
			close(firstFetchStarted)
			<-releaseFirst
			return env.Snapshot{Weather: env.WeatherReading{Temperature: 11}}, nil
		}
		return env.Snapshot{Weather: env.WeatherReading{Temperature: 22}}, nil
	}

	server := deps.server(t)

	var (
		wg       sync.WaitGroup
		firstRec *httptest.ResponseRecorder
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstRec = doRequest(server, http.MethodGet, "/api/v1/dashboard?location=Mumbai", "", "")
	}()

	<-firstFetchStarted
	secondRec := doRequest(server, http.MethodGet, "/api/v1/dashboard?location=Chennai", "", "")
	close(releaseFirst)
	wg.Wait()

	// Each caller settles with its own location and readings; a still-running
	// request from another caller must never supersede or bleed into it.
	var first, second dashboard.Snapshot
	require.NoError(t, json.Unmarshal(firstRec.Body.Bytes(), &first))
	require.NoError(t, json.Unmarshal(secondRec.Body.Bytes(), &second))

	require.Equal(t, dashboard.StateSettled, second.State)
	require.NotNil(t, second.Location)
	require.NotNil(t, second.Weather)
	require.Equal(t, "Chennai", second.Location.DisplayLabel)
	require.Equal(t, 22, second.Weather.Temperature)

	require.Equal(t, dashboard.StateSettled, first.State)
	require.NotNil(t, first.Location)
	require.NotNil(t, first.Weather)
	require.Equal(t, "Mumbai", first.Location.DisplayLabel)
	require.Equal(t, 11, first.Weather.Temperature)
}

func TestRouter_RegisterAndLogin(t *testing.T) {
	deps := newTestDeps()
	deps.auth.registerFn = func(ctx context.Context, req auth.RegisterRequest) (auth.UserView, error) {
		require.Equal(t, "user@example.com", req.Email)
		return auth.UserView{ID: 7, Email: req.Email, Name: req.Name}, nil
	}
	deps.auth.loginFn = func(ctx context.Context, req auth.LoginRequest) (auth.Session, error) {
		return auth.Session{
			Token:     validToken,
			ExpiresAt: time.Now().Add(time.Hour),
			User:      auth.UserView{ID: 7, Email: req.Email},
		}, nil
	}

	server := deps.server(t)

	rec := doRequest(server, http.MethodPost, "/api/v1/auth/register", `{"email":"user@example.com","password":"pass1234","name":"Asha"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(server, http.MethodPost, "/api/v1/auth/login", `{"email":"user@example.com","password":"pass1234"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	var sessionCookie *http.Cookie
	for _, cookie := range cookies {
		if cookie.Name == testCookieName {
			sessionCookie = cookie
		}
	}
	require.NotNil(t, sessionCookie)
	require.Equal(t, validToken, sessionCookie.Value)
	require.True(t, sessionCookie.HttpOnly)
}

func TestRouter_LoginRejected(t *testing.T) {
	deps := newTestDeps()
	deps.auth.loginFn = func(ctx context.Context, req auth.LoginRequest) (auth.Session, error) {
		return auth.Session{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid email or password", nil)
	}

	rec := doRequest(deps.server(t), http.MethodPost, "/api/v1/auth/login", `{"email":"user@example.com","password":"wrong"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_MeRequiresSession(t *testing.T) {
	deps := newTestDeps()

	rec := doRequest(deps.server(t), http.MethodGet, "/api/v1/auth/me", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_LogoutClearsCookie(t *testing.T) {
	deps := newTestDeps()

	rec := doRequest(deps.server(t), http.MethodPost, "/api/v1/auth/logout", "", validToken)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == testCookieName {
			require.Empty(t, cookie.Value)
			require.Negative(t, cookie.MaxAge)
		}
	}
}

type testDeps struct {
	resolver *stubResolver
	env      *stubEnv
	advisor  *stubAdvisor
	chat     *stubChat
	profile  *stubProfile
	auth     *stubAuth
}

func newTestDeps() *testDeps {
	return &testDeps{
		resolver: &stubResolver{},
		env:      &stubEnv{},
		advisor:  &stubAdvisor{},
		chat:     &stubChat{},
		profile:  &stubProfile{},
		auth:     &stubAuth{},
	}
}

func (d *testDeps) server(t *testing.T) *http.Server {
	t.Helper()
	logger := newTestLogger()
	handler := NewHandler(d.resolver, d.env, d.advisor, d.chat, d.profile, logger)

	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Auth: config.AuthConfig{
			CookieName: testCookieName,
			SessionTTL: time.Hour,
		},
	}
	authHandler := NewAuthHandler(d.auth, cfg.Auth)
	return NewRouter(cfg, handler, authHandler, d.auth)
}

func doRequest(server *http.Server, method, path, body, sessionToken string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: sessionToken})
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

type stubResolver struct {
	resolveFn  func(ctx context.Context, query string) (location.Resolved, error)
	describeFn func(ctx context.Context, latitude, longitude float64) (location.Place, error)
}

func (s *stubResolver) Resolve(ctx context.Context, query string) (location.Resolved, error) {
	if s.resolveFn != nil {
		return s.resolveFn(ctx, query)
	}
	return location.Resolved{}, nil
}

func (s *stubResolver) Describe(ctx context.Context, latitude, longitude float64) (location.Place, error) {
	if s.describeFn != nil {
		return s.describeFn(ctx, latitude, longitude)
	}
	return location.Place{}, nil
}

type stubEnv struct {
	fetchFn func(ctx context.Context, coords env.Coordinates) (env.Snapshot, error)
}

func (s *stubEnv) Fetch(ctx context.Context, coords env.Coordinates) (env.Snapshot, error) {
	if s.fetchFn != nil {
		return s.fetchFn(ctx, coords)
	}
	return env.Snapshot{}, nil
}

type stubAdvisor struct {
	evaluateFn func(ctx context.Context, req advisor.Request) advisor.Result
}

func (s *stubAdvisor) Evaluate(ctx context.Context, req advisor.Request) advisor.Result {
	if s.evaluateFn != nil {
		return s.evaluateFn(ctx, req)
	}
	return advisor.Result{}
}

type stubChat struct {
	answerFn func(ctx context.Context, userID int64, message string) (string, error)
}

func (s *stubChat) Answer(ctx context.Context, userID int64, message string) (string, error) {
	if s.answerFn != nil {
		return s.answerFn(ctx, userID, message)
	}
	return "", nil
}

type stubProfile struct {
	getFn    func(ctx context.Context, userID int64) (profile.HealthProfile, error)
	updateFn func(ctx context.Context, userID int64, patch profile.Patch) (profile.HealthProfile, error)
}

func (s *stubProfile) Get(ctx context.Context, userID int64) (profile.HealthProfile, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return profile.HealthProfile{}, nil
}

func (s *stubProfile) Update(ctx context.Context, userID int64, patch profile.Patch) (profile.HealthProfile, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, userID, patch)
	}
	return profile.HealthProfile{}, nil
}

func (s *stubProfile) EnsureDefault(ctx context.Context, userID int64) error {
	return nil
}

type stubAuth struct {
	registerFn func(ctx context.Context, req auth.RegisterRequest) (auth.UserView, error)
	loginFn    func(ctx context.Context, req auth.LoginRequest) (auth.Session, error)
}

func (s *stubAuth) Register(ctx context.Context, req auth.RegisterRequest) (auth.UserView, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, req)
	}
	return auth.UserView{}, nil
}

func (s *stubAuth) Login(ctx context.Context, req auth.LoginRequest) (auth.Session, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return auth.Session{}, nil
}

func (s *stubAuth) GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error) {
	return "https://accounts.google.com/o/oauth2/auth", nil
}

func (s *stubAuth) GoogleCallback(ctx context.Context, code, codeVerifier string) (auth.Session, error) {
	return auth.Session{}, nil
}

func (s *stubAuth) ValidateSession(ctx context.Context, token string) (auth.Claims, error) {
	if token == validToken {
		return auth.Claims{UserID: 7, Email: "user@example.com", SessionID: "session-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return auth.Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session invalid", nil)
}

func (s *stubAuth) Logout(ctx context.Context, claims auth.Claims) error {
	return nil
}

func (s *stubAuth) Me(ctx context.Context, userID int64) (auth.UserView, error) {
	return auth.UserView{ID: userID, Email: "user@example.com"}, nil
}
