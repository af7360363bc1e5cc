package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

func TestResolve_ShortQueryFirst(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string][]Candidate{
		"New Delhi": {{Name: "New Delhi", Admin1: "Delhi", Country: "India", Latitude: 28.6139, Longitude: 77.209}},
	}}
	r := NewResolver(geocoder, &stubReverse{}, newTestLogger())

	resolved, err := r.Resolve(context.Background(), "New Delhi, India")
	require.NoError(t, err)
	require.InDelta(t, 28.6139, resolved.Latitude, 0.0001)
	require.Equal(t, "New Delhi, Delhi, India", resolved.DisplayLabel)
	require.Equal(t, []string{"New Delhi"}, geocoder.queries)
}

func TestResolve_FullStringFallback(t *testing.T) {
	geocoder := &stubGeocoder{results: map[string][]Candidate{
		"Springfield, Illinois": {{Name: "Springfield", Admin1: "Illinois", Country: "United States", Latitude: 39.78, Longitude: -89.65}},
	}}
	r := NewResolver(geocoder, &stubReverse{}, newTestLogger())

	resolved, err := r.Resolve(context.Background(), "Springfield, Illinois")
	require.NoError(t, err)
	require.InDelta(t, 39.78, resolved.Latitude, 0.001)
	require.Equal(t, []string{"Springfield", "Springfield, Illinois"}, geocoder.queries)
}

func TestResolve_NoFallbackWithoutComma(t *testing.T) {
	geocoder := &stubGeocoder{}
	r := NewResolver(geocoder, &stubReverse{}, newTestLogger())

	_, err := r.Resolve(context.Background(), "Xyzzyville")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
	require.Contains(t, err.Error(), "location not found: Xyzzyville")
	require.Equal(t, []string{"Xyzzyville"}, geocoder.queries)
}

func TestResolve_EmptyQuery(t *testing.T) {
	r := NewResolver(&stubGeocoder{}, &stubReverse{}, newTestLogger())

	_, err := r.Resolve(context.Background(), "   ")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestResolve_GeocoderError(t *testing.T) {
	geocoder := &stubGeocoder{err: errors.New("connection refused")}
	r := NewResolver(geocoder, &stubReverse{}, newTestLogger())

	_, err := r.Resolve(context.Background(), "Delhi")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamError))
}

func TestDescribe_DegradesOnFailure(t *testing.T) {
	r := NewResolver(&stubGeocoder{}, &stubReverse{err: errors.New("429 too many requests")}, newTestLogger())

	place, err := r.Describe(context.Background(), 28.6, 77.2)
	require.NoError(t, err)
	require.Equal(t, Place{}, place)
}

func TestDescribe_ReturnsPlace(t *testing.T) {
	reverse := &stubReverse{place: Place{City: "Delhi", State: "Delhi", Country: "India", FormattedAddress: "Delhi, Delhi"}}
	r := NewResolver(&stubGeocoder{}, reverse, newTestLogger())

	place, err := r.Describe(context.Background(), 28.6, 77.2)
	require.NoError(t, err)
	require.Equal(t, "Delhi", place.City)
}

type stubGeocoder struct {
	results map[string][]Candidate
	err     error
	queries []string
}

func (s *stubGeocoder) Search(_ context.Context, query string) ([]Candidate, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.results[query], nil
}

type stubReverse struct {
	place Place
	err   error
}

func (s *stubReverse) Reverse(_ context.Context, _, _ float64) (Place, error) {
	if s.err != nil {
		return Place{}, s.err
	}
	return s.place, nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPositionGuidance(t *testing.T) {
	require.Equal(t, "Location permission denied. Please enable location access in your browser settings.", PositionPermissionDenied.Guidance())
	require.Equal(t, "Location information is unavailable.", PositionUnavailable.Guidance())
	require.Equal(t, "Location request timed out.", PositionTimeout.Guidance())
	require.Equal(t, "Unable to retrieve your location", PositionErrorReason(0).Guidance())
}
