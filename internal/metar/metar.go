// Package metar turns the latest METAR observation of an airport into a
// single simulator weather change.
package metar

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/httpx"
)

const baseURL = "https://aviationweather.gov/api/data/metar"

var icaoPattern = regexp.MustCompile(`^[A-Z]{3,4}$`)

// Observation is the subset of a METAR report the mapping uses
type Observation struct {
	Station      string         `xml:"station_id"`
	RawText      string         `xml:"raw_text"`
	ObservedAt   string         `xml:"observation_time"`
	TempC        *float64       `xml:"temp_c"`
	WindSpeedKt  *float64       `xml:"wind_speed_kt"`
	VisibilityMi string         `xml:"visibility_statute_mi"`
	Sky          []SkyCondition `xml:"sky_condition"`
	WxString     string         `xml:"wx_string"`
}

// SkyCondition is one reported cloud layer
type SkyCondition struct {
	Cover  string `xml:"sky_cover,attr"`
	BaseFt int    `xml:"cloud_base_ft_agl,attr"`
}

type response struct {
	XMLName xml.Name      `xml:"response"`
	Errors  []string      `xml:"errors>error"`
	METARs  []Observation `xml:"data>METAR"`
}

// NormalizeICAO upper-cases code and checks it is 3 or 4 letters
func NormalizeICAO(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !icaoPattern.MatchString(code) {
		return "", apperr.New(apperr.CodeValidation, apperr.StageFetch,
			fmt.Sprintf("invalid ICAO code %q: expected 3 or 4 letters", code), nil)
	}
	return code, nil
}

// Client fetches METAR reports from aviationweather.gov
type Client struct {
	baseURL string
	http    *httpx.Client
}

// NewClient creates a METAR client using hc
func NewClient(hc *httpx.Client) *Client {
	return &Client{baseURL: baseURL, http: hc}
}

// Latest returns the most recent observation of the last two hours
func (c *Client) Latest(ctx context.Context, icao string) (*Observation, error) {
	code, err := NormalizeICAO(icao)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ids", code)
	params.Set("format", "xml")
	params.Set("hoursBeforeNow", "2")
	params.Set("mostRecent", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch,
			fmt.Sprintf("METAR API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var r response
	if err := xml.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch, "failed to parse METAR XML response", err)
	}
	if len(r.Errors) > 0 {
		return nil, apperr.New(apperr.CodeProvider, apperr.StageFetch, "METAR API error: "+strings.Join(r.Errors, "; "), nil)
	}
	if len(r.METARs) == 0 {
		return nil, apperr.New(apperr.CodeIncompleteData, apperr.StageFetch,
			fmt.Sprintf("no recent METAR data found for %s", code), nil)
	}
	return &r.METARs[0], nil
}
