package nominatim

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/atmosai/atmosai/internal/domain/location"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client reverse geocodes coordinates via OpenStreetMap's Nominatim.
type Client struct {
	rest *resty.Client
}

// NewClient builds a Nominatim client. The user agent is mandatory per the
// Nominatim usage policy.
func NewClient(baseURL, userAgent string) *Client {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	rest := resty.New().
		SetBaseURL(strings.TrimRight(trimmed, "/")).
		SetHeader("User-Agent", userAgent).
		SetTimeout(10 * time.Second)
	return &Client{rest: rest}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		Municipality string `json:"municipality"`
		State        string `json:"state"`
		Region       string `json:"region"`
		Country      string `json:"country"`
	} `json:"address"`
}

// Reverse resolves coordinates to a place description.
func (c *Client) Reverse(ctx context.Context, latitude, longitude float64) (location.Place, error) {
	var payload reverseResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format":         "json",
			"lat":            fmt.Sprintf("%f", latitude),
			"lon":            fmt.Sprintf("%f", longitude),
			"zoom":           "10",
			"addressdetails": "1",
		}).
		SetResult(&payload).
		Get("/reverse")
	if err != nil {
		return location.Place{}, fmt.Errorf("reverse geocoding request: %w", err)
	}
	if resp.IsError() {
		return location.Place{}, fmt.Errorf("reverse geocoding failed: status %d", resp.StatusCode())
	}

	city := firstNonEmpty(payload.Address.City, payload.Address.Town, payload.Address.Village, payload.Address.Municipality)
	state := firstNonEmpty(payload.Address.State, payload.Address.Region)

	return location.Place{
		City:             city,
		State:            state,
		Country:          payload.Address.Country,
		FormattedAddress: payload.DisplayName,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ location.ReverseGeocoder = (*Client)(nil)
