package openmeteo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/weatherlink/internal/models"
)

type response struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
	Daily  struct {
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func decode(data []byte) (*response, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Hourly == nil {
		return nil, errors.New("response has no hourly block")
	}
	return &r, nil
}

// reason extracts the API's error reason, or the raw body
func reason(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Reason != "" {
		return e.Reason
	}
	return string(body)
}

// series converts the hourly block. Keys the API did not return are left
// out so the timeline builder can name what is missing.
func (r *response) series(loc models.Coordinate) (models.HourlySeries, error) {
	s := models.HourlySeries{Location: loc, Values: make(map[string][]*float64, len(models.HourlyParams))}
	if raw, ok := r.Hourly["time"]; ok {
		if err := json.Unmarshal(raw, &s.Times); err != nil {
			return s, fmt.Errorf("hourly time: %w", err)
		}
	}
	for _, key := range models.HourlyParams {
		raw, ok := r.Hourly[key]
		if !ok {
			continue
		}
		var vals []*float64
		if err := json.Unmarshal(raw, &vals); err != nil {
			return s, fmt.Errorf("hourly %s: %w", key, err)
		}
		s.Values[key] = vals
	}
	return s, nil
}

// daylight formats the first sunrise and sunset as "06:42 AM"
func (r *response) daylight() (*models.Daylight, error) {
	if len(r.Daily.Sunrise) == 0 || len(r.Daily.Sunset) == 0 {
		return nil, errors.New("no daily sunrise/sunset")
	}
	rise, err := time.Parse(timeLayout, r.Daily.Sunrise[0])
	if err != nil {
		return nil, err
	}
	set, err := time.Parse(timeLayout, r.Daily.Sunset[0])
	if err != nil {
		return nil, err
	}
	return &models.Daylight{Sunrise: rise.Format("03:04 PM"), Sunset: set.Format("03:04 PM")}, nil
}
