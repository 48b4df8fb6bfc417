// Package openmeteo fetches hourly forecast and archive weather from the
// Open-Meteo API.
package openmeteo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/httpx"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	ForecastURL = "https://api.open-meteo.com/v1/forecast"
	ArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"

	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04"

	defaultConcurrency = 4
	defaultTTL         = time.Hour
)

// Cache stores raw responses between runs
type Cache interface {
	GetForecast(key string) ([]byte, bool, error)
	PutForecast(key string, payload []byte, ttl time.Duration) error
}

// Client fetches hourly series for one or more locations
type Client struct {
	forecastURL string
	archiveURL  string
	http        *httpx.Client
	cache       Cache
	ttl         time.Duration
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithCache stores responses in cache. Forecasts live for ttl; archive
// responses never expire.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithConcurrency bounds how many points are fetched at once
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithBaseURLs points the client at other endpoints (tests)
func WithBaseURLs(forecast, archive string) Option {
	return func(c *Client) {
		c.forecastURL = forecast
		c.archiveURL = archive
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithClock replaces time.Now when deciding between forecast and archive
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client that sends requests through hc
func NewClient(hc *httpx.Client, opts ...Option) *Client {
	c := &Client{
		forecastURL: ForecastURL,
		archiveURL:  ArchiveURL,
		http:        hc,
		ttl:         defaultTTL,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns one series per point that could be fetched, in point
// order, and the daylight times of the first of them. A nil date fetches a
// two-day live forecast starting today; dates before today come from the
// archive. A failed point is logged and left out; the fetch fails only
// when no point succeeds.
func (c *Client) Fetch(ctx context.Context, points []models.Coordinate, date *time.Time) ([]models.HourlySeries, *models.Daylight, error) {
	if len(points) == 0 {
		return nil, nil, apperr.New(apperr.CodeValidation, apperr.StageFetch, "no weather points to fetch", nil)
	}
	req := c.plan(date)

	results := make([]*response, len(points))
	errs := make([]error, len(points))
	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, p := range points {
		g.Go(func() error {
			results[i], errs[i] = c.fetchPoint(ctx, req, p)
			return nil
		})
	}
	_ = g.Wait()

	var (
		series   []models.HourlySeries
		daylight *models.Daylight
		firstErr error
	)
	for i, r := range results {
		err := errs[i]
		if err == nil {
			var s models.HourlySeries
			if s, err = r.series(points[i]); err == nil {
				if len(series) == 0 {
					d, dErr := r.daylight()
					if dErr != nil {
						c.logger.Warn("could not read sunrise/sunset", "error", dErr)
					}
					daylight = d
				}
				series = append(series, s)
				continue
			}
			err = apperr.New(apperr.CodeProvider, apperr.StageFetch,
				fmt.Sprintf("malformed response for point %d", i), err)
		}
		if firstErr == nil {
			firstErr = err
		}
		c.logger.Warn("skipping weather point", "index", i, "lat", points[i].Lat, "lon", points[i].Lon, "error", err)
	}

	if len(series) == 0 {
		return nil, nil, firstErr
	}
	c.logger.Info("weather fetched",
		"points", len(series),
		"skipped", len(points)-len(series),
		"endpoint", req.endpoint,
		"hours", len(series[0].Times),
	)
	return series, daylight, nil
}

type fetchPlan struct {
	endpoint string
	params   url.Values
	cacheTag string
	ttl      time.Duration
}

func (c *Client) plan(date *time.Time) fetchPlan {
	params := url.Values{}
	params.Set("hourly", strings.Join(models.HourlyParams, ","))
	params.Set("daily", "sunrise,sunset")
	params.Set("timezone", "auto")

	now := c.now()
	if date == nil {
		params.Set("forecast_days", "2")
		return fetchPlan{
			endpoint: c.forecastURL,
			params:   params,
			cacheTag: "live:" + now.Format(dateLayout),
			ttl:      c.ttl,
		}
	}

	day := date.Format(dateLayout)
	params.Set("start_date", day)
	params.Set("end_date", date.AddDate(0, 0, 1).Format(dateLayout))
	if day < now.Format(dateLayout) {
		return fetchPlan{endpoint: c.archiveURL, params: params, cacheTag: "archive:" + day}
	}
	return fetchPlan{endpoint: c.forecastURL, params: params, cacheTag: "forecast:" + day, ttl: c.ttl}
}

func (p fetchPlan) key(pt models.Coordinate) string {
	return fmt.Sprintf("openmeteo|%s|%.3f|%.3f", p.cacheTag, pt.Lat, pt.Lon)
}

func (c *Client) fetchPoint(ctx context.Context, p fetchPlan, pt models.Coordinate) (*response, error) {
	key := p.key(pt)
	if c.cache != nil {
		if data, ok, err := c.cache.GetForecast(key); err != nil {
			c.logger.Warn("weather cache read failed", "error", err)
		} else if ok {
			if r, err := decode(data); err == nil {
				c.logger.Debug("weather cache hit", "key", key)
				return r, nil
			}
		}
	}

	params := url.Values{}
	for k, v := range p.params {
		params[k] = v
	}
	params.Set("latitude", fmt.Sprintf("%.4f", pt.Lat))
	params.Set("longitude", fmt.Sprintf("%.4f", pt.Lon))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch, "failed to read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch,
			fmt.Sprintf("weather API returned status %d for %.4f, %.4f: %s", resp.StatusCode, pt.Lat, pt.Lon, reason(body)), nil)
	}

	r, err := decode(body)
	if err != nil {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch, "failed to decode response", err)
	}
	if c.cache != nil {
		if err := c.cache.PutForecast(key, body, p.ttl); err != nil {
			c.logger.Warn("weather cache write failed", "error", err)
		}
	}
	return r, nil
}
