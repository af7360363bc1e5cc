package env

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

// Service exposes the environmental data fetch pipeline.
type Service interface {
	Fetch(ctx context.Context, coords Coordinates) (Snapshot, error)
}

// Provider issues the two upstream reads for one coordinate pair.
type Provider interface {
	CurrentWeather(ctx context.Context, coords Coordinates) (WeatherObservation, error)
	CurrentAirQuality(ctx context.Context, coords Coordinates) (AirQualityObservation, error)
}

type service struct {
	provider Provider
	logger   *slog.Logger
}

// NewService wires up the environmental data fetcher.
func NewService(provider Provider, logger *slog.Logger) Service {
	return &service{
		provider: provider,
		logger:   logger.With("component", "env.service"),
	}
}

// Fetch issues the weather and air-quality reads sequentially. Either sub-call
// failing fails the whole fetch.
func (s *service) Fetch(ctx context.Context, coords Coordinates) (Snapshot, error) {
	weather, err := s.provider.CurrentWeather(ctx, coords)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeUpstreamError, "failed to fetch weather data", err)
	}
	air, err := s.provider.CurrentAirQuality(ctx, coords)
	if err != nil {
		return Snapshot{}, apperrors.Wrap(apperrors.CodeUpstreamError, "failed to fetch air quality data", err)
	}

	snapshot := Snapshot{
		Weather: normalizeWeather(weather),
		AQI:     normalizeAirQuality(air),
	}
	s.logger.Info("environmental data fetched",
		"lat", coords.Latitude, "lon", coords.Longitude,
		"aqi", snapshot.AQI.Value, "condition", snapshot.Weather.Condition)
	return snapshot, nil
}

func normalizeWeather(obs WeatherObservation) WeatherReading {
	condition, description := MapWeatherCode(obs.WeatherCode)

	visibility := 10
	if obs.VisibilityMeters > 0 {
		visibility = int(math.Round(obs.VisibilityMeters / 1000))
	}

	return WeatherReading{
		Temperature:          int(math.Round(obs.Temperature)),
		FeelsLike:            int(math.Round(obs.ApparentTemp)),
		Humidity:             int(math.Round(obs.RelativeHumidity)),
		Condition:            condition,
		ConditionDescription: description,
		WindSpeed:            int(math.Round(obs.WindSpeed)),
		Pressure:             int(math.Round(obs.SurfacePressure)),
		Visibility:           visibility,
		UVIndex:              int(math.Round(obs.UVIndex)),
	}
}

func normalizeAirQuality(obs AirQualityObservation) AQIReading {
	value := int(math.Round(obs.USAQI))
	return AQIReading{
		Value:    value,
		Category: AQICategory(value),
		PM25:     int(math.Round(obs.PM25)),
		PM10:     int(math.Round(obs.PM10)),
		Ozone:    int(math.Round(obs.Ozone)),
		NO2:      int(math.Round(obs.NO2)),
		SO2:      int(math.Round(obs.SO2)),
		CO:       int(math.Round(obs.CarbonMonoxide / 1000)),
	}
}

// MapWeatherCode buckets a WMO weather code into the five conditions. Codes
// outside every listed range keep the cloudy/"Clear sky" preset.
func MapWeatherCode(code int) (Condition, string) {
	condition := ConditionCloudy
	description := "Clear sky"

	switch {
	case code == 0:
		condition = ConditionSunny
		description = "Clear sky"
	case code >= 1 && code <= 3:
		condition = ConditionCloudy
		switch code {
		case 1:
			description = "Mainly clear"
		case 2:
			description = "Partly cloudy"
		default:
			description = "Overcast"
		}
	case code >= 45 && code <= 48:
		condition = ConditionFoggy
		description = "Foggy"
	case code >= 51 && code <= 67:
		condition = ConditionRainy
		description = "Rainy"
	case code >= 71 && code <= 77:
		condition = ConditionSnowy
		description = "Snowy"
	case code >= 80 && code <= 82:
		condition = ConditionRainy
		description = "Rain showers"
	case code >= 85 && code <= 86:
		condition = ConditionSnowy
		description = "Snow showers"
	case code >= 95 && code <= 99:
		condition = ConditionRainy
		description = "Thunderstorm"
	}

	return condition, description
}

// AQICategory labels a US AQI value by the fixed EPA breakpoints.
func AQICategory(value int) string {
	switch {
	case value <= 50:
		return "Good"
	case value <= 100:
		return "Moderate"
	case value <= 150:
		return "Unhealthy for Sensitive Groups"
	case value <= 200:
		return "Unhealthy"
	case value <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// UpstreamError reports an upstream HTTP failure, preserving the status code.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream request failed: status=%d detail=%s", e.Status, e.Detail)
	}
	return fmt.Sprintf("upstream request failed: status=%d", e.Status)
}
