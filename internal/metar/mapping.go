package metar

import (
	"math"
	"strconv"
	"strings"

	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	// EventID is the fixed ID of the METAR weather change
	EventID = "9000"
	// TransitionS is how fast the simulator moves to the observed weather
	TransitionS = 60

	metersPerMile = 1609.34
)

var skyCover = map[string]float64{
	"SKC": 0, "CLR": 0, "CAVOK": 0,
	"FEW": 0.2, "SCT": 0.4, "BKN": 0.75, "OVC": 1.0, "OVX": 1.0,
}

// precipitation codes in match order, intensity prefixes first; mm/h
var precipCodes = []struct {
	code      string
	mmh       float64
	liquidity float64
}{
	{"+RA", 8.0, 1}, {"-RA", 0.5, 1}, {"RA", 2.0, 1},
	{"+SN", 8.0, 0}, {"-SN", 0.5, 0}, {"SN", 2.0, 0},
	{"DZ", 0.5, 1},
	{"TS", 8.0, 1},
}

// Params maps an observation to simulator weather
func (o *Observation) Params() models.WeatherParams {
	p := models.WeatherParams{Overcast: 0.1, FogM: 50000, Precipitation: 0, Liquidity: 1}

	if mi, ok := parseVisibility(o.VisibilityMi); ok {
		p.FogM = math.Max(10, math.Floor(mi*metersPerMile))
	}

	cover := 0.0
	for _, s := range o.Sky {
		cover = math.Max(cover, skyCover[strings.ToUpper(s.Cover)])
	}
	p.Overcast = cover

	wx := strings.ToUpper(o.WxString)
	for _, pc := range precipCodes {
		if strings.Contains(wx, pc.code) {
			p.Precipitation = pc.mmh / 1000
			p.Liquidity = pc.liquidity
			break
		}
	}
	if strings.Contains(wx, "FG") || strings.Contains(wx, "BR") {
		p.FogM = math.Min(p.FogM, 800)
		p.Overcast = math.Max(p.Overcast, 0.9)
	}
	return p
}

// Event returns the observation as the single METAR weather change
func (o *Observation) Event(icao string) models.WeatherEvent {
	return models.WeatherEvent{
		ID:          EventID,
		Name:        "WTHLINK_METAR_" + strings.ToUpper(icao),
		TimeS:       0,
		TransitionS: TransitionS,
		Params:      o.Params(),
	}
}

// parseVisibility reads values like "10+", "6", "1/2" and "1 1/2"
func parseVisibility(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "+"))
	if s == "" {
		return 0, false
	}
	total := 0.0
	for _, part := range strings.Fields(s) {
		if num, den, ok := strings.Cut(part, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 != nil || err2 != nil || d == 0 {
				return 0, false
			}
			total += n / d
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		total += v
	}
	return total, true
}
