// Package geocoding names forecast locations with the Nominatim reverse
// geocoder.
package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ngmaloney/weatherlink/internal/httpx"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	nominatimURL = "https://nominatim.openstreetmap.org"
	// FallbackLabel is used when a location cannot be named
	FallbackLabel = "Forecast"
)

// Geocoder converts coordinates to place names
type Geocoder struct {
	baseURL  string
	http     *httpx.Client
	logger   *slog.Logger
	interval time.Duration
	lastCall time.Time
	mu       sync.Mutex
}

// NewGeocoder creates a geocoder using hc. Calls are spaced at least one
// second apart as Nominatim's usage policy requires.
func NewGeocoder(hc *httpx.Client, logger *slog.Logger) *Geocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{
		baseURL:  nominatimURL,
		http:     hc,
		logger:   logger,
		interval: time.Second,
	}
}

// reverseResponse represents the Nominatim reverse API response
type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Country string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// Reverse returns a "<place>, <country>" label for c
func (g *Geocoder) Reverse(ctx context.Context, c models.Coordinate) (string, error) {
	params := url.Values{}
	params.Add("format", "json")
	params.Add("lat", fmt.Sprintf("%.5f", c.Lat))
	params.Add("lon", fmt.Sprintf("%.5f", c.Lon))
	reqURL := fmt.Sprintf("%s/reverse?%s", g.baseURL, params.Encode())

	if err := g.wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("nominatim: %s", result.Error)
	}
	return label(result), nil
}

// Label is Reverse with failures logged and replaced by FallbackLabel
func (g *Geocoder) Label(ctx context.Context, c models.Coordinate) string {
	name, err := g.Reverse(ctx, c)
	if err != nil {
		g.logger.Warn("reverse geocoding failed", "lat", c.Lat, "lon", c.Lon, "error", err)
		return FallbackLabel
	}
	return name
}

func label(r reverseResponse) string {
	place := r.Address.City
	if place == "" {
		place = r.Address.Town
	}
	if place == "" {
		place = r.Address.Village
	}
	if place == "" {
		place = "Unknown"
	}
	if r.Address.Country == "" {
		return place
	}
	return place + ", " + r.Address.Country
}

// wait enforces the minimum interval between calls
func (g *Geocoder) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.lastCall.IsZero() {
		if remaining := g.interval - time.Since(g.lastCall); remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	g.lastCall = time.Now()
	return nil
}
