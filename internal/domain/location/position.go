package location

import "time"

// PositionOptions mirror the device geolocation request the dashboard issues.
// These constants are part of the product contract and must not drift.
var PositionOptions = struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	MaximumAge         time.Duration
}{
	EnableHighAccuracy: true,
	Timeout:            10 * time.Second,
	MaximumAge:         5 * time.Minute,
}

// PositionErrorReason distinguishes the three device geolocation failures.
type PositionErrorReason int

const (
	PositionPermissionDenied PositionErrorReason = iota + 1
	PositionUnavailable
	PositionTimeout
)

// Guidance returns the user-facing text for a geolocation failure. These are
// surfaced as guidance, not errors.
func (r PositionErrorReason) Guidance() string {
	switch r {
	case PositionPermissionDenied:
		return "Location permission denied. Please enable location access in your browser settings."
	case PositionUnavailable:
		return "Location information is unavailable."
	case PositionTimeout:
		return "Location request timed out."
	default:
		return "Unable to retrieve your location"
	}
}
