package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atmosai/atmosai/internal/domain/advisor"
	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
	"github.com/atmosai/atmosai/internal/domain/profile"
	"github.com/atmosai/atmosai/pkg/util"
)

// State names one phase of a refresh cycle.
type State string

const (
	StateIdle                State = "idle"
	StateFetchingWeather     State = "fetching_weather"
	StateFetchingSuggestions State = "fetching_suggestions"
	StateSettled             State = "settled"
	StateErrored             State = "errored"
)

// Target identifies what a refresh should fetch: a free-text location or
// resolved coordinates. Coordinates win when both are present.
type Target struct {
	Location    string
	Coordinates *env.Coordinates
}

// Snapshot is one observable view of the dashboard. Weather renders as soon as
// it is loaded; suggestions carry their own loading flag.
type Snapshot struct {
	State              State                 `json:"state"`
	Location           *location.Resolved    `json:"location,omitempty"`
	Weather            *env.WeatherReading   `json:"weather,omitempty"`
	AQI                *env.AQIReading       `json:"aqi,omitempty"`
	Suggestions        []advisor.Suggestion  `json:"suggestions"`
	RiskScore          *advisor.RiskScore    `json:"riskScore,omitempty"`
	HealthRisks        []advisor.HealthRisk  `json:"healthRisks"`
	LoadingWeather     bool                  `json:"loadingWeather"`
	LoadingSuggestions bool                  `json:"loadingSuggestions"`
	Error              string                `json:"error,omitempty"`
	UpdatedAt          time.Time             `json:"updatedAt"`
}

// Orchestrator sequences weather-then-suggestions per refresh cycle. A failure
// at the weather stage aborts the cycle; a failure at the suggestions stage is
// absorbed, leaving weather populated and suggestions empty. Each refresh gets
// a monotonically increasing token; commits from a superseded refresh are
// discarded, so the last-requested refresh wins.
type Orchestrator struct {
	resolver location.Resolver
	env      env.Service
	advisor  advisor.Service
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	token uint64
	snap  Snapshot
}

// NewOrchestrator wires up a dashboard refresh cycle.
func NewOrchestrator(resolver location.Resolver, envSvc env.Service, advisorSvc advisor.Service, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		env:      envSvc,
		advisor:  advisorSvc,
		logger:   logger.With("component", "dashboard.orchestrator"),
		now:      util.NowUTC,
		snap:     Snapshot{State: StateIdle},
	}
}

// Snapshot returns the current dashboard view.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snap
}

// Refresh runs one full cycle and returns the snapshot it produced. If a newer
// refresh starts while this one is in flight, the stale result is discarded
// and the newer refresh's snapshot is returned instead.
func (o *Orchestrator) Refresh(ctx context.Context, target Target, userProfile *profile.HealthProfile) Snapshot {
	token := o.begin()

	resolved, err := o.resolve(ctx, target)
	if err != nil {
		o.commit(token, func(s *Snapshot) {
			s.State = StateErrored
			s.Error = err.Error()
			s.LoadingWeather = false
			s.LoadingSuggestions = false
			s.UpdatedAt = o.now()
		})
		return o.Snapshot()
	}

	snapshot, err := o.env.Fetch(ctx, env.Coordinates{Latitude: resolved.Latitude, Longitude: resolved.Longitude})
	if err != nil {
		// Errored is reachable from the weather stage only; the suggestions
		// stage is never started after a weather failure.
		o.commit(token, func(s *Snapshot) {
			s.State = StateErrored
			s.Error = err.Error()
			s.LoadingWeather = false
			s.LoadingSuggestions = false
			s.UpdatedAt = o.now()
		})
		return o.Snapshot()
	}

	weather := snapshot.Weather
	aqi := snapshot.AQI
	if !o.commit(token, func(s *Snapshot) {
		s.State = StateFetchingSuggestions
		s.Location = &resolved
		s.Weather = &weather
		s.AQI = &aqi
		s.LoadingWeather = false
		s.UpdatedAt = o.now()
	}) {
		return o.Snapshot()
	}

	result := o.advisor.Evaluate(ctx, advisor.Request{
		Weather: weather,
		AQI:     aqi,
		Profile: userProfile,
	})

	o.commit(token, func(s *Snapshot) {
		s.State = StateSettled
		s.Suggestions = result.Suggestions
		s.RiskScore = &result.RiskScore
		s.HealthRisks = result.HealthRisks
		s.LoadingSuggestions = false
		s.UpdatedAt = o.now()
	})
	return o.Snapshot()
}

func (o *Orchestrator) begin() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.token++
	o.snap = Snapshot{
		State:              StateFetchingWeather,
		Suggestions:        nil,
		HealthRisks:        nil,
		LoadingWeather:     true,
		LoadingSuggestions: true,
		UpdatedAt:          o.now(),
	}
	return o.token
}

// commit applies fn to the snapshot unless the refresh was superseded.
func (o *Orchestrator) commit(token uint64, fn func(*Snapshot)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if token != o.token {
		o.logger.Debug("discarding stale refresh result", "token", token, "current", o.token)
		return false
	}
	fn(&o.snap)
	return true
}

func (o *Orchestrator) resolve(ctx context.Context, target Target) (location.Resolved, error) {
	if target.Coordinates != nil {
		// Device coordinates pass through without a lookup.
		return location.Resolved{
			Latitude:  target.Coordinates.Latitude,
			Longitude: target.Coordinates.Longitude,
		}, nil
	}
	return o.resolver.Resolve(ctx, target.Location)
}
