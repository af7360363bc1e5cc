package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
)

const (
	defaultGeocodingBaseURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultWeatherBaseURL    = "https://api.open-meteo.com/v1/forecast"
	defaultAirQualityBaseURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
)

// Client fetches geocoding, weather, and air-quality data from Open-Meteo.
type Client struct {
	geocodingBaseURL  string
	weatherBaseURL    string
	airQualityBaseURL string
	httpClient        *http.Client
}

// NewClient builds an Open-Meteo client. Empty base URLs fall back to the
// public endpoints.
func NewClient(geocodingBaseURL, weatherBaseURL, airQualityBaseURL string) *Client {
	return &Client{
		geocodingBaseURL:  normalizeURL(geocodingBaseURL, defaultGeocodingBaseURL),
		weatherBaseURL:    normalizeURL(weatherBaseURL, defaultWeatherBaseURL),
		airQualityBaseURL: normalizeURL(airQualityBaseURL, defaultAirQualityBaseURL),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func normalizeURL(raw, fallback string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = fallback
	}
	return strings.TrimRight(trimmed, "/")
}

// Search geocodes a place name and returns matching candidates.
func (c *Client) Search(ctx context.Context, name string) ([]location.Candidate, error) {
	endpoint := fmt.Sprintf("%s?name=%s&count=1&language=en&format=json", c.geocodingBaseURL, url.QueryEscape(name))

	var payload struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Name      string  `json:"name"`
			Admin1    string  `json:"admin1"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}

	candidates := make([]location.Candidate, 0, len(payload.Results))
	for _, result := range payload.Results {
		candidates = append(candidates, location.Candidate{
			Latitude:  result.Latitude,
			Longitude: result.Longitude,
			Name:      result.Name,
			Admin1:    result.Admin1,
			Country:   result.Country,
		})
	}
	return candidates, nil
}

// CurrentWeather fetches the current weather observation for the coordinates.
func (c *Client) CurrentWeather(ctx context.Context, coords env.Coordinates) (env.WeatherObservation, error) {
	endpoint := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,wind_speed_10m,surface_pressure,visibility,uv_index&timezone=auto",
		c.weatherBaseURL, coords.Latitude, coords.Longitude)

	var payload struct {
		Current struct {
			Temperature2m       float64 `json:"temperature_2m"`
			RelativeHumidity2m  float64 `json:"relative_humidity_2m"`
			ApparentTemperature float64 `json:"apparent_temperature"`
			WeatherCode         int     `json:"weather_code"`
			WindSpeed10m        float64 `json:"wind_speed_10m"`
			SurfacePressure     float64 `json:"surface_pressure"`
			Visibility          float64 `json:"visibility"`
			UVIndex             float64 `json:"uv_index"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return env.WeatherObservation{}, fmt.Errorf("weather request: %w", err)
	}

	return env.WeatherObservation{
		Temperature:      payload.Current.Temperature2m,
		ApparentTemp:     payload.Current.ApparentTemperature,
		RelativeHumidity: payload.Current.RelativeHumidity2m,
		WeatherCode:      payload.Current.WeatherCode,
		WindSpeed:        payload.Current.WindSpeed10m,
		SurfacePressure:  payload.Current.SurfacePressure,
		VisibilityMeters: payload.Current.Visibility,
		UVIndex:          payload.Current.UVIndex,
	}, nil
}

// CurrentAirQuality fetches current pollutant concentrations and the US AQI.
func (c *Client) CurrentAirQuality(ctx context.Context, coords env.Coordinates) (env.AirQualityObservation, error) {
	endpoint := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,sulphur_dioxide,ozone,us_aqi",
		c.airQualityBaseURL, coords.Latitude, coords.Longitude)

	var payload struct {
		Current struct {
			PM10            float64 `json:"pm10"`
			PM25            float64 `json:"pm2_5"`
			CarbonMonoxide  float64 `json:"carbon_monoxide"`
			NitrogenDioxide float64 `json:"nitrogen_dioxide"`
			SulphurDioxide  float64 `json:"sulphur_dioxide"`
			Ozone           float64 `json:"ozone"`
			USAQI           float64 `json:"us_aqi"`
		} `json:"current"`
	}
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return env.AirQualityObservation{}, fmt.Errorf("air quality request: %w", err)
	}

	return env.AirQualityObservation{
		USAQI:          payload.Current.USAQI,
		PM25:           payload.Current.PM25,
		PM10:           payload.Current.PM10,
		Ozone:          payload.Current.Ozone,
		NO2:            payload.Current.NitrogenDioxide,
		SO2:            payload.Current.SulphurDioxide,
		CarbonMonoxide: payload.Current.CarbonMonoxide,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &env.UpstreamError{Status: resp.StatusCode, Detail: strings.TrimSpace(string(payload))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ env.Provider = (*Client)(nil)
var _ location.Geocoder = (*Client)(nil)
