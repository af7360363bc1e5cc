package profile

// Habits capture lifestyle factors relevant to air-quality advice.
type Habits struct {
	Smoking         bool   `json:"smoking"`
	Alcohol         string `json:"alcohol,omitempty"`
	ExerciseLevel   string `json:"exercise_level,omitempty"`
	OutdoorExposure string `json:"outdoor_exposure,omitempty"`
	MaskUsage       string `json:"mask_usage,omitempty"`
}

// HealthProfile is the user-owned health context. Every field may be absent;
// the suggestion pipeline tolerates partial or missing profiles.
type HealthProfile struct {
	Name          string   `json:"name,omitempty"`
	Age           int      `json:"age,omitempty"`
	Location      string   `json:"location,omitempty"`
	PastIllness   []string `json:"pastIllness,omitempty"`
	Habits        Habits   `json:"habits"`
	AlertsEnabled bool     `json:"alertsEnabled"`
}

// Patch carries a partial profile update. Nil fields never overwrite stored
// values.
type Patch struct {
	Name          *string   `json:"name"`
	Age           *int      `json:"age"`
	Location      *string   `json:"location"`
	PastIllness   []string  `json:"pastIllness"`
	Habits        *Habits   `json:"habits"`
	AlertsEnabled *bool     `json:"alertsEnabled"`
}
