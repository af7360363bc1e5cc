package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
	"github.com/atmosai/atmosai/internal/domain/profile"
	"github.com/atmosai/atmosai/internal/infra/llm/gemini"
	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

// Service answers free-text health questions for an authenticated user.
type Service interface {
	Answer(ctx context.Context, userID int64, message string) (string, error)
}

// Generator is the generative-model dependency.
type Generator interface {
	Configured() bool
	GenerateContent(ctx context.Context, req gemini.GenerateRequest) (gemini.GenerateResponse, error)
}

// Config wires runtime dependencies for the chat domain.
type Config struct {
	Model string
}

type service struct {
	cfg       Config
	generator Generator
	profiles  profile.Repository
	resolver  location.Resolver
	env       env.Service
	logger    *slog.Logger
}

// NewService wires up the conversational advisor.
func NewService(cfg Config, generator Generator, profiles profile.Repository, resolver location.Resolver, envSvc env.Service, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		generator: generator,
		profiles:  profiles,
		resolver:  resolver,
		env:       envSvc,
		logger:    logger.With("component", "chat.service"),
	}
}

// Answer loads the caller's profile fresh, re-derives live environmental
// context from the profile location, and forwards a single-turn completion.
// Chat history stays on the client; no conversation state is sent here.
func (s *service) Answer(ctx context.Context, userID int64, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "message is required", nil)
	}
	if !s.generator.Configured() {
		return "", apperrors.Wrap(apperrors.CodeNotConfigured, "AI service not configured", nil)
	}

	stored, found, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to load profile", err)
	}
	var userProfile *profile.HealthProfile
	if found {
		userProfile = &stored
	}

	envContext := s.environmentalContext(ctx, userProfile)
	prompt := buildSystemPrompt(userProfile, envContext) + "\n\nUser: " + message + "\nAssistant:"

	completion, err := s.generator.GenerateContent(ctx, gemini.GenerateRequest{
		Model:  s.cfg.Model,
		Prompt: prompt,
	})
	if err != nil {
		// Provider payloads are logged here and never reach the caller.
		s.logger.Error("chat completion failed", "error", err)
		return "", apperrors.Wrap(apperrors.CodeInternal, "failed to process chat message", nil)
	}
	if !completion.Usage.IsZero() {
		s.logger.Info("chat completion usage", "totalTokens", completion.Usage.TotalTokens)
	}
	return completion.Text, nil
}

// environmentalContext fetches live readings for the profile location,
// degrading to a fixed notice on any failure.
func (s *service) environmentalContext(ctx context.Context, p *profile.HealthProfile) string {
	const unavailable = "No environmental data available"
	if p == nil || strings.TrimSpace(p.Location) == "" {
		return unavailable
	}

	resolved, err := s.resolver.Resolve(ctx, p.Location)
	if err != nil {
		s.logger.Warn("chat location resolution failed", "location", p.Location, "error", err)
		return unavailable
	}
	snapshot, err := s.env.Fetch(ctx, env.Coordinates{Latitude: resolved.Latitude, Longitude: resolved.Longitude})
	if err != nil {
		s.logger.Warn("chat environmental fetch failed", "location", p.Location, "error", err)
		return unavailable
	}

	return fmt.Sprintf(`
- Location: %s
- AQI: %d
- AQI category: %s
- Temperature: %d °C
- Condition: %s
- Humidity: %d%%
`,
		p.Location,
		snapshot.AQI.Value,
		snapshot.AQI.Category,
		snapshot.Weather.Temperature,
		snapshot.Weather.ConditionDescription,
		snapshot.Weather.Humidity,
	)
}

func buildSystemPrompt(p *profile.HealthProfile, envContext string) string {
	profileSection := "No profile data available"
	if p != nil {
		illnesses := "None reported"
		if len(p.PastIllness) > 0 {
			illnesses = strings.Join(p.PastIllness, ", ")
		}
		profileSection = fmt.Sprintf(`
- Name: %s
- Age: %s
- Location: %s
- Past illnesses: %s
- Habits:
  - Smoking: %s
  - Exercise level: %s
  - Outdoor exposure: %s
  - Mask usage: %s
`,
			notSpecified(p.Name),
			notSpecifiedAge(p.Age),
			notSpecified(p.Location),
			illnesses,
			yesNo(p.Habits.Smoking),
			notSpecified(p.Habits.ExerciseLevel),
			notSpecified(p.Habits.OutdoorExposure),
			notSpecified(p.Habits.MaskUsage),
		)
	}

	return fmt.Sprintf(`You are AtmosAI's Personalized Health Assistant.
You provide concise, practical advice based on:
- User health profile (age, past illnesses, habits)
- Current air quality and weather
- User's location and lifestyle

USER HEALTH PROFILE:
%s

ENVIRONMENTAL CONTEXT:
%s

IMPORTANT:
- If location is "Not specified" or environmental context is missing, politely ask the user to set their location in the app so you can give more accurate advice.
GUIDELINES:
- Be empathetic and clear.
- 2-3 short paragraphs maximum.
- Focus on actionable advice (what to do now / today).
- If something could be serious, clearly say they should consult a doctor.
- Do NOT mention that you are an AI language model.
`, profileSection, envContext)
}

func notSpecified(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Not specified"
	}
	return value
}

func notSpecifiedAge(age int) string {
	if age <= 0 {
		return "Not specified"
	}
	return fmt.Sprintf("%d", age)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
