package location

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

// Candidate is one geocoding match.
type Candidate struct {
	Latitude  float64
	Longitude float64
	Name      string
	Admin1    string
	Country   string
}

// Geocoder looks up place names.
type Geocoder interface {
	Search(ctx context.Context, name string) ([]Candidate, error)
}

// ReverseGeocoder turns coordinates into a human-readable place.
type ReverseGeocoder interface {
	Reverse(ctx context.Context, latitude, longitude float64) (Place, error)
}

// Place is the reverse-geocoding result.
type Place struct {
	City             string `json:"city"`
	State            string `json:"state"`
	Country          string `json:"country"`
	FormattedAddress string `json:"formattedAddress"`
}

// Resolved is a normalized location ready for the data fetcher.
type Resolved struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	DisplayLabel string  `json:"displayLabel,omitempty"`
}

// Resolver turns free-text place names or device coordinates into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, query string) (Resolved, error)
	Describe(ctx context.Context, latitude, longitude float64) (Place, error)
}

type resolver struct {
	geocoder Geocoder
	reverse  ReverseGeocoder
	logger   *slog.Logger
}

// NewResolver wires up the location resolver.
func NewResolver(geocoder Geocoder, reverse ReverseGeocoder, logger *slog.Logger) Resolver {
	return &resolver{
		geocoder: geocoder,
		reverse:  reverse,
		logger:   logger.With("component", "location.resolver"),
	}
}

// Resolve geocodes a free-text place. "City, State, Country" inputs resolve
// via the substring before the first comma first; the full string is the
// fallback query. No caching, every call is a fresh lookup.
func (r *resolver) Resolve(ctx context.Context, query string) (Resolved, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return Resolved{}, apperrors.Wrap(apperrors.CodeInvalidInput, "location cannot be empty", nil)
	}

	short := strings.TrimSpace(strings.SplitN(trimmed, ",", 2)[0])
	candidates, err := r.geocoder.Search(ctx, short)
	if err != nil {
		return Resolved{}, apperrors.Wrap(apperrors.CodeUpstreamError, "geocoding failed", err)
	}

	if len(candidates) == 0 && short != trimmed {
		candidates, err = r.geocoder.Search(ctx, trimmed)
		if err != nil {
			return Resolved{}, apperrors.Wrap(apperrors.CodeUpstreamError, "geocoding failed", err)
		}
	}
	if len(candidates) == 0 {
		return Resolved{}, apperrors.Wrap(apperrors.CodeNotFound, "location not found: "+trimmed, nil)
	}

	match := candidates[0]
	r.logger.Info("location resolved", "query", trimmed, "lat", match.Latitude, "lon", match.Longitude)
	return Resolved{
		Latitude:     match.Latitude,
		Longitude:    match.Longitude,
		DisplayLabel: displayLabel(match),
	}, nil
}

// Describe reverse geocodes device coordinates into a place label. Failures
// degrade to an empty place, matching the reference client behavior.
func (r *resolver) Describe(ctx context.Context, latitude, longitude float64) (Place, error) {
	place, err := r.reverse.Reverse(ctx, latitude, longitude)
	if err != nil {
		r.logger.Warn("reverse geocoding failed", "error", err)
		return Place{}, nil
	}
	return place, nil
}

func displayLabel(c Candidate) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{c.Name, c.Admin1, c.Country} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ", ")
}
