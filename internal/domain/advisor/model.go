package advisor

import (
	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/profile"
)

// Priority ranks suggestions and health risks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Icon identifies a suggestion glyph. The set is fixed; the UI maps each to an
// asset.
type Icon string

const (
	IconExercise  Icon = "exercise"
	IconMask      Icon = "mask"
	IconWindows   Icon = "windows"
	IconHydration Icon = "hydration"
	IconIndoor    Icon = "indoor"
	IconAir       Icon = "air"
)

// Suggestion is one actionable recommendation. Pure value, never mutated.
type Suggestion struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Icon        Icon     `json:"icon"`
}

// RiskScore is the 0-100 environmental risk summary for one evaluation.
type RiskScore struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// HealthRisk flags a condition-specific concern.
type HealthRisk struct {
	ID          string   `json:"id"`
	Condition   string   `json:"condition"`
	Risk        Priority `json:"risk"`
	Description string   `json:"description"`
}

// Request carries one evaluation's inputs. Profile may be nil or partial.
type Request struct {
	Weather env.WeatherReading     `json:"weather"`
	AQI     env.AQIReading         `json:"aqi"`
	Profile *profile.HealthProfile `json:"userProfile,omitempty"`
}

// Result is the engine output. Both the AI path and the fallback path produce
// this shape; callers cannot tell which path ran.
type Result struct {
	Suggestions []Suggestion `json:"suggestions"`
	RiskScore   RiskScore    `json:"riskScore"`
	HealthRisks []HealthRisk `json:"healthRisks"`
}
