package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atmosai/atmosai/internal/infra/llm/gemini"
)

// Service exposes the risk and suggestion engine.
type Service interface {
	Evaluate(ctx context.Context, req Request) Result
}

// Generator is the generative-model dependency.
type Generator interface {
	Configured() bool
	GenerateContent(ctx context.Context, req gemini.GenerateRequest) (gemini.GenerateResponse, error)
}

// Config wires runtime dependencies for the advisor domain.
type Config struct {
	Model string
}

type service struct {
	cfg       Config
	generator Generator
	logger    *slog.Logger
}

// NewService wires up the risk and suggestion engine.
func NewService(cfg Config, generator Generator, logger *slog.Logger) Service {
	return &service{
		cfg:       cfg,
		generator: generator,
		logger:    logger.With("component", "advisor.service"),
	}
}

// Evaluate tries the AI path first and substitutes the deterministic fallback
// on any failure. It never returns an error: a flaky model must not block
// suggestions.
func (s *service) Evaluate(ctx context.Context, req Request) Result {
	if !s.generator.Configured() {
		s.logger.Info("gemini api key not configured, using fallback suggestions")
		return Fallback(req)
	}

	result, err := s.evaluateAI(ctx, req)
	if err != nil {
		s.logger.Warn("ai suggestion path failed, using fallback", "error", err)
		return Fallback(req)
	}
	return result
}

func (s *service) evaluateAI(ctx context.Context, req Request) (Result, error) {
	completion, err := s.generator.GenerateContent(ctx, gemini.GenerateRequest{
		Model:    s.cfg.Model,
		Prompt:   buildPrompt(req),
		JSONMode: true,
	})
	if err != nil {
		return Result{}, err
	}
	if !completion.Usage.IsZero() {
		s.logger.Info("suggestion completion usage", "totalTokens", completion.Usage.TotalTokens)
	}

	result, err := parseResult(completion.Text)
	if err != nil {
		return Result{}, fmt.Errorf("parse suggestion response: %w", err)
	}
	return result, nil
}

func buildPrompt(req Request) string {
	healthContext := ""
	if p := req.Profile; p != nil {
		illnesses := "None specified"
		if len(p.PastIllness) > 0 {
			illnesses = strings.Join(p.PastIllness, ", ")
		}
		healthContext = fmt.Sprintf(`
User Health Profile:
- Age: %s
- Health Conditions: %s
- Smoker: %s
- Exercise Level: %s
- Outdoor Exposure: %s
- Mask Usage: %s
`,
			orDefault(formatAge(p.Age), "Not specified"),
			illnesses,
			yesNo(p.Habits.Smoking),
			orDefault(p.Habits.ExerciseLevel, "Medium"),
			orDefault(p.Habits.OutdoorExposure, "Moderate"),
			orDefault(p.Habits.MaskUsage, "Sometimes"),
		)
	}

	return fmt.Sprintf(`You are an AI health advisor for AtmosAI, an air quality monitoring app. Based on the current environmental conditions and user health profile, provide personalized health recommendations.

Current Environmental Conditions:
- Temperature: %d°C (%s)
- Humidity: %d%%
- Wind Speed: %d km/h
- UV Index: %d
- Air Quality Index (AQI): %d (%s)
- PM2.5: %d µg/m³
- PM10: %d µg/m³
- Ozone: %d µg/m³
%s
Provide exactly 4-5 actionable health recommendations specific to the current conditions.

Priority guidelines:
- high: AQI > 150 or conditions dangerous for user's health profile
- medium: AQI 100-150 or moderate health concerns
- low: AQI < 100 or general wellness tips

For the riskScore, calculate a score from 0-100 based on AQI level, weather conditions, and user's health vulnerabilities.

For healthRisks, identify 2-4 specific health conditions that may be affected (e.g., Respiratory Health, Cardiovascular Health, Allergies, Skin Health).

Icon options: exercise, mask, windows, hydration, indoor, air

Respond with ONLY valid JSON in this exact format:
{
  "suggestions": [
    { "id": "1", "title": "Short title", "description": "Description", "priority": "low|medium|high", "icon": "exercise|mask|windows|hydration|indoor|air" }
  ],
  "riskScore": { "score": 0-100, "reason": "Explanation" },
  "healthRisks": [
    { "id": "1", "condition": "Condition name", "risk": "low|medium|high", "description": "Description" }
  ]
}`,
		req.Weather.Temperature, req.Weather.ConditionDescription,
		req.Weather.Humidity,
		req.Weather.WindSpeed,
		req.Weather.UVIndex,
		req.AQI.Value, req.AQI.Category,
		req.AQI.PM25,
		req.AQI.PM10,
		req.AQI.Ozone,
		healthContext,
	)
}

// parseResult strips surrounding code fences the model sometimes emits before
// decoding the strict-JSON payload.
func parseResult(raw string) (Result, error) {
	sanitized := strings.TrimSpace(raw)
	if strings.HasPrefix(sanitized, "```json") {
		sanitized = sanitized[len("```json"):]
	} else if strings.HasPrefix(sanitized, "```") {
		sanitized = sanitized[len("```"):]
	}
	sanitized = strings.TrimSuffix(strings.TrimSpace(sanitized), "```")
	sanitized = strings.TrimSpace(sanitized)

	var result Result
	if err := json.Unmarshal([]byte(sanitized), &result); err != nil {
		return Result{}, err
	}
	if len(result.Suggestions) == 0 {
		return Result{}, errors.New("suggestions missing")
	}
	return result, nil
}

func formatAge(age int) string {
	if age <= 0 {
		return ""
	}
	return fmt.Sprintf("%d", age)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
