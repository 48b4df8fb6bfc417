// Package timeline turns hourly weather samples into Open Rails weather and
// sound events.
package timeline

import (
	"strconv"

	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	defaultOvercast      = 0.0
	defaultFogM          = 100000.0
	defaultPrecipitation = 0.0
	defaultLiquidity     = 1.0

	minFogM        = 10.0
	maxFogM        = 100000.0
	maxPrecipMMH   = 15.0
	fogCapM        = 600.0
	fogMinOvercast = 0.8
	rainAboveC     = 2.0
	snowBelowC     = -1.0
	fogCodeFirst   = 45
	fogCodeLast    = 48
)

var snowCodes = map[int]bool{71: true, 73: true, 75: true}

// MapSample maps one hourly sample to simulator weather parameters
func MapSample(s models.HourlySample) models.WeatherParams {
	code := s.WeatherCode
	return Map(&code, s.CloudCoverPct, s.PrecipitationMMH, s.VisibilityM, s.TemperatureC)
}

// Map converts raw weather values into simulator parameters. Any nil input
// leaves the corresponding default in place; the result is always in range.
func Map(code *int, cloudPct, precipMMH, visibilityM, temperatureC *float64) models.WeatherParams {
	p := models.WeatherParams{
		Overcast:      defaultOvercast,
		FogM:          defaultFogM,
		Precipitation: defaultPrecipitation,
		Liquidity:     defaultLiquidity,
	}

	if cloudPct != nil {
		p.Overcast = round(clamp(*cloudPct, 0, 100)/100, 2)
	}
	if precipMMH != nil {
		p.Precipitation = round(clamp(*precipMMH, 0, maxPrecipMMH)/1000, 5)
	}
	if visibilityM != nil {
		p.FogM = clamp(*visibilityM, minFogM, maxFogM)
	}

	switch {
	case code != nil && snowCodes[*code]:
		p.Liquidity = 0
	case temperatureC != nil:
		p.Liquidity = liquidityFor(*temperatureC)
	}

	if code != nil && *code >= fogCodeFirst && *code <= fogCodeLast {
		p.FogM = min(p.FogM, fogCapM)
		p.Overcast = max(p.Overcast, fogMinOvercast)
	}

	return p
}

// liquidityFor ramps linearly from snow at -1°C to rain at 2°C
func liquidityFor(tempC float64) float64 {
	switch {
	case tempC > rainAboveC:
		return 1
	case tempC < snowBelowC:
		return 0
	}
	return round(clamp((tempC+1)/3, 0, 1), 2)
}

// round rounds x to the nearest decimal with the given places, the same way
// the decimal text written to the activity file would round it.
func round(x float64, places int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return v
}

func clamp(x, lo, hi float64) float64 {
	return max(lo, min(x, hi))
}
