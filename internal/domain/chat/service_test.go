package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
	"github.com/atmosai/atmosai/internal/domain/profile"
	"github.com/atmosai/atmosai/internal/infra/llm/gemini"
	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

func TestAnswer_EmptyMessage(t *testing.T) {
	svc := newTestService(&stubGenerator{configured: true}, &stubProfiles{}, &stubResolver{}, &stubEnv{})

	_, err := svc.Answer(context.Background(), 7, "   ")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestAnswer_UnconfiguredKey(t *testing.T) {
	svc := newTestService(&stubGenerator{configured: false}, &stubProfiles{}, &stubResolver{}, &stubEnv{})

	_, err := svc.Answer(context.Background(), 7, "is it safe outside?")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotConfigured))
	require.Contains(t, err.Error(), "AI service not configured")
}

func TestAnswer_IncludesProfileAndEnvironment(t *testing.T) {
	generator := &stubGenerator{configured: true, text: "Keep your inhaler handy today."}
	profiles := &stubProfiles{stored: profile.HealthProfile{
		Name:        "Asha",
		Age:         34,
		Location:    "New Delhi, India",
		PastIllness: []string{"asthma"},
	}, found: true}
	resolver := &stubResolver{resolved: location.Resolved{Latitude: 28.6, Longitude: 77.2}}
	envSvc := &stubEnv{snapshot: env.Snapshot{
		Weather: env.WeatherReading{Temperature: 31, ConditionDescription: "Partly cloudy", Humidity: 48},
		AQI:     env.AQIReading{Value: 142, Category: "Unhealthy for Sensitive Groups"},
	}}
	svc := newTestService(generator, profiles, resolver, envSvc)

	answer, err := svc.Answer(context.Background(), 7, "can I go for a run?")
	require.NoError(t, err)
	require.Equal(t, "Keep your inhaler handy today.", answer)

	require.Contains(t, generator.lastReq.Prompt, "Past illnesses: asthma")
	require.Contains(t, generator.lastReq.Prompt, "AQI: 142")
	require.Contains(t, generator.lastReq.Prompt, "User: can I go for a run?")
	require.Contains(t, generator.lastReq.Prompt, "Assistant:")
	require.Equal(t, "gemini-2.5-flash", generator.lastReq.Model)
	require.False(t, generator.lastReq.JSONMode)
}

func TestAnswer_EnvironmentDegradesOnFetchFailure(t *testing.T) {
	generator := &stubGenerator{configured: true, text: "ok"}
	profiles := &stubProfiles{stored: profile.HealthProfile{Location: "New Delhi, India"}, found: true}
	resolver := &stubResolver{resolved: location.Resolved{Latitude: 28.6, Longitude: 77.2}}
	envSvc := &stubEnv{err: errors.New("provider down")}
	svc := newTestService(generator, profiles, resolver, envSvc)

	_, err := svc.Answer(context.Background(), 7, "hello")
	require.NoError(t, err)
	require.Contains(t, generator.lastReq.Prompt, "No environmental data available")
}

func TestAnswer_NoProfileLocation(t *testing.T) {
	generator := &stubGenerator{configured: true, text: "ok"}
	svc := newTestService(generator, &stubProfiles{}, &stubResolver{}, &stubEnv{})

	_, err := svc.Answer(context.Background(), 7, "hello")
	require.NoError(t, err)
	require.Contains(t, generator.lastReq.Prompt, "No profile data available")
	require.Contains(t, generator.lastReq.Prompt, "No environmental data available")
}

func TestAnswer_ProviderErrorIsOpaque(t *testing.T) {
	generator := &stubGenerator{configured: true, err: errors.New(`{"error": {"message": "quota exceeded", "apiKey": "secret"}}`)}
	svc := newTestService(generator, &stubProfiles{}, &stubResolver{}, &stubEnv{})

	_, err := svc.Answer(context.Background(), 7, "hello")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInternal))
	require.Equal(t, "failed to process chat message", err.Error())
	require.NotContains(t, err.Error(), "secret")
}

func newTestService(generator *stubGenerator, profiles *stubProfiles, resolver *stubResolver, envSvc *stubEnv) Service {
	return NewService(Config{Model: "gemini-2.5-flash"}, generator, profiles, resolver, envSvc, newTestLogger())
}

type stubGenerator struct {
	configured bool
	text       string
	err        error
	lastReq    gemini.GenerateRequest
}

func (s *stubGenerator) Configured() bool { return s.configured }

func (s *stubGenerator) GenerateContent(_ context.Context, req gemini.GenerateRequest) (gemini.GenerateResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return gemini.GenerateResponse{}, s.err
	}
	return gemini.GenerateResponse{Text: s.text}, nil
}

type stubProfiles struct {
	stored profile.HealthProfile
	found  bool
}

func (s *stubProfiles) Get(_ context.Context, _ int64) (profile.HealthProfile, bool, error) {
	return s.stored, s.found, nil
}

func (s *stubProfiles) Upsert(_ context.Context, _ int64, p profile.HealthProfile) (profile.HealthProfile, error) {
	return p, nil
}

type stubResolver struct {
	resolved location.Resolved
	err      error
}

func (s *stubResolver) Resolve(_ context.Context, _ string) (location.Resolved, error) {
	if s.err != nil {
		return location.Resolved{}, s.err
	}
	return s.resolved, nil
}

func (s *stubResolver) Describe(_ context.Context, _, _ float64) (location.Place, error) {
	return location.Place{}, nil
}

type stubEnv struct {
	snapshot env.Snapshot
	err      error
}

func (s *stubEnv) Fetch(_ context.Context, _ env.Coordinates) (env.Snapshot, error) {
	if s.err != nil {
		return env.Snapshot{}, s.err
	}
	return s.snapshot, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
