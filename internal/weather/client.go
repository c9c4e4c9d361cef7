package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/unithq/cqhub-go/internal/models"
)

// cacheTTL is how long a fetched snapshot stays valid when the provider
// doesn't say otherwise.
const cacheTTL = 30 * time.Minute

// Provider fetches current conditions for a coordinate pair. The core treats
// the provider as opaque beyond the fields it reads.
type Provider interface {
	Fetch(ctx context.Context, loc models.WeatherLocation) (*models.WeatherSnapshot, error)
}

// Client is an HTTP weather provider speaking the One Call response shape.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type oneCallResponse struct {
	Current struct {
		Temp      *float64 `json:"temp"`
		Humidity  *float64 `json:"humidity"`
		WindSpeed *float64 `json:"wind_speed"`
		UVI       *float64 `json:"uvi"`
		Weather   []struct {
			Main string `json:"main"`
		} `json:"weather"`
	} `json:"current"`
	Hourly []struct {
		Pop float64 `json:"pop"` // probability of precipitation, 0..1
	} `json:"hourly"`
}

// Fetch retrieves current conditions. The precipitation chance is taken from
// the first hourly forecast bucket, scaled to a percentage.
func (c *Client) Fetch(ctx context.Context, loc models.WeatherLocation) (*models.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", loc.Latitude))
	q.Set("lon", fmt.Sprintf("%.4f", loc.Longitude))
	q.Set("units", loc.Units)
	q.Set("appid", c.apiKey)
	q.Set("exclude", "minutely,daily,alerts")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var body oneCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	now := time.Now()
	snap := &models.WeatherSnapshot{
		Temperature: body.Current.Temp,
		Humidity:    body.Current.Humidity,
		WindSpeed:   body.Current.WindSpeed,
		UVIndex:     body.Current.UVI,
		FetchedAt:   now,
		ExpiresAt:   now.Add(cacheTTL),
	}
	if len(body.Current.Weather) > 0 {
		snap.WeatherMain = body.Current.Weather[0].Main
	}
	if len(body.Hourly) > 0 {
		pct := body.Hourly[0].Pop * 100
		snap.PrecipitationChance = &pct
	}

	return snap, nil
}
