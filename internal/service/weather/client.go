package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zhouzirui/agentdesk/backend/internal/config"
)

// CouldNotFetch is returned as the lookup text when the provider answers with a non-200 status.
const CouldNotFetch = "Could not fetch weather data."

// Lookup fetches a human-readable current-weather line for a city.
type Lookup interface {
	Fetch(ctx context.Context, city string) (string, error)
}

// Client queries the OpenWeatherMap current weather endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

type currentWeather struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Fetch returns "Weather in <city>: <description>, Temp: <t>°C".
// Non-200 answers yield CouldNotFetch without an error; transport and decode failures are errors.
func (c *Client) Fetch(ctx context.Context, city string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid weather base url: %w", err)
	}
	q := u.Query()
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CouldNotFetch, nil
	}

	var payload currentWeather
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode weather response: %w", err)
	}
	if len(payload.Weather) == 0 {
		return "", errors.New("weather response has no conditions")
	}

	return fmt.Sprintf("Weather in %s: %s, Temp: %s°C", city, payload.Weather[0].Description, formatTemp(payload.Main.Temp)), nil
}

func formatTemp(t float64) string {
	if t == math.Trunc(t) {
		return strconv.FormatFloat(t, 'f', 1, 64)
	}
	return strconv.FormatFloat(t, 'f', -1, 64)
}
