package advisor

import (
	"fmt"
	"math"
	"strings"

	"github.com/atmosai/atmosai/internal/domain/profile"
)

// respiratoryTags are matched as case-insensitive substrings against each
// illness entry. Deliberately crude; there is no medical taxonomy here.
var respiratoryTags = []string{"asthma", "copd", "bronchitis", "respiratory"}

const maxSuggestions = 5

// Fallback computes suggestions, risk score, and health risks deterministically
// from the readings alone. Identical inputs yield identical output.
func Fallback(req Request) Result {
	isHighRisk := req.AQI.Value > 150
	isMediumRisk := req.AQI.Value > 100
	respiratory := hasRespiratoryConditions(req.Profile)

	monitorPriority := PriorityLow
	if isHighRisk {
		monitorPriority = PriorityHigh
	} else if isMediumRisk {
		monitorPriority = PriorityMedium
	}

	suggestions := []Suggestion{
		{
			ID:          "1",
			Title:       "Monitor Air Quality",
			Description: fmt.Sprintf("Current AQI is %d (%s). Stay informed about changes throughout the day.", req.AQI.Value, req.AQI.Category),
			Priority:    monitorPriority,
			Icon:        IconAir,
		},
		{
			ID:          "2",
			Title:       "Stay Hydrated",
			Description: fmt.Sprintf("With %d%% humidity and %d°C, drink plenty of water to maintain good health.", req.Weather.Humidity, req.Weather.Temperature),
			Priority:    PriorityLow,
			Icon:        IconHydration,
		},
	}

	switch {
	case isHighRisk || respiratory:
		suggestions = append(suggestions,
			Suggestion{
				ID:          "3",
				Title:       "Wear Protective Mask",
				Description: "Use an N95 mask when going outside to protect against harmful particles.",
				Priority:    PriorityHigh,
				Icon:        IconMask,
			},
			Suggestion{
				ID:          "4",
				Title:       "Limit Outdoor Activities",
				Description: "Consider staying indoors and reducing physical exertion until air quality improves.",
				Priority:    PriorityHigh,
				Icon:        IconIndoor,
			})
	case isMediumRisk:
		suggestions = append(suggestions,
			Suggestion{
				ID:          "3",
				Title:       "Reduce Outdoor Exercise",
				Description: "Consider lighter activities or exercise indoors during peak pollution hours.",
				Priority:    PriorityMedium,
				Icon:        IconExercise,
			},
			Suggestion{
				ID:          "4",
				Title:       "Keep Windows Closed",
				Description: "Close windows during peak pollution hours to maintain indoor air quality.",
				Priority:    PriorityMedium,
				Icon:        IconWindows,
			})
	default:
		suggestions = append(suggestions,
			Suggestion{
				ID:          "3",
				Title:       "Enjoy Outdoor Activities",
				Description: "Air quality is good for outdoor activities. Great time for a walk or exercise!",
				Priority:    PriorityLow,
				Icon:        IconExercise,
			},
			Suggestion{
				ID:          "4",
				Title:       "Ventilate Your Space",
				Description: "Good time to open windows and let fresh air circulate in your home.",
				Priority:    PriorityLow,
				Icon:        IconWindows,
			})
	}

	if req.Weather.UVIndex > 6 {
		uvPriority := PriorityMedium
		if req.Weather.UVIndex > 8 {
			uvPriority = PriorityHigh
		}
		suggestions = append(suggestions, Suggestion{
			ID:          "5",
			Title:       "Sun Protection Needed",
			Description: fmt.Sprintf("UV Index is %d. Apply sunscreen and wear protective clothing if going outside.", req.Weather.UVIndex),
			Priority:    uvPriority,
			Icon:        IconIndoor,
		})
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	score := int(math.Round(float64(req.AQI.Value) * 0.5))
	if respiratory {
		score += 20
	}
	if score > 100 {
		score = 100
	}

	reason := fmt.Sprintf("Based on AQI of %d (%s)", req.AQI.Value, req.AQI.Category)
	if respiratory {
		reason += " and your respiratory health history"
	}

	respiratoryRisk := PriorityLow
	respiratoryVerb := "not significantly impact"
	if isHighRisk {
		respiratoryRisk = PriorityHigh
		respiratoryVerb = "significantly affect"
	} else if isMediumRisk {
		respiratoryRisk = PriorityMedium
		respiratoryVerb = "moderately affect"
	}

	cardioRisk := PriorityLow
	cardioVerb := "have minimal effect on"
	if isHighRisk {
		cardioRisk = PriorityMedium
		cardioVerb = "impact"
	}

	allergyRisk := PriorityLow
	allergyNote := "are within acceptable range"
	if req.AQI.PM10 > 50 {
		allergyRisk = PriorityMedium
		allergyNote = "may trigger allergies"
	}

	return Result{
		Suggestions: suggestions,
		RiskScore: RiskScore{
			Score:  score,
			Reason: reason,
		},
		HealthRisks: []HealthRisk{
			{
				ID:          "1",
				Condition:   "Respiratory Health",
				Risk:        respiratoryRisk,
				Description: fmt.Sprintf("Current air quality may %s breathing.", respiratoryVerb),
			},
			{
				ID:          "2",
				Condition:   "Cardiovascular Health",
				Risk:        cardioRisk,
				Description: fmt.Sprintf("Air pollution can %s heart health.", cardioVerb),
			},
			{
				ID:          "3",
				Condition:   "Allergies",
				Risk:        allergyRisk,
				Description: fmt.Sprintf("PM10 levels at %d µg/m³ %s.", req.AQI.PM10, allergyNote),
			},
		},
	}
}

func hasRespiratoryConditions(p *profile.HealthProfile) bool {
	if p == nil {
		return false
	}
	for _, illness := range p.PastIllness {
		lowered := strings.ToLower(illness)
		for _, tag := range respiratoryTags {
			if strings.Contains(lowered, tag) {
				return true
			}
		}
	}
	return false
}
