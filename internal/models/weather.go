package models

// Hourly parameter names as returned by the weather provider
const (
	ParamTemperature   = "temperature_2m"
	ParamPrecipitation = "precipitation"
	ParamWeatherCode   = "weathercode"
	ParamCloudCover    = "cloudcover"
	ParamWindSpeed     = "windspeed_10m"
	ParamWindDirection = "winddirection_10m"
	ParamVisibility    = "visibility"
)

// HourlyParams lists every hourly parameter requested from the provider
var HourlyParams = []string{
	ParamTemperature,
	ParamPrecipitation,
	ParamWeatherCode,
	ParamCloudCover,
	ParamWindSpeed,
	ParamWindDirection,
	ParamVisibility,
}

// RequiredParams are the parameters the timeline cannot be built without
var RequiredParams = []string{
	ParamWeatherCode,
	ParamTemperature,
	ParamPrecipitation,
	ParamCloudCover,
	ParamWindSpeed,
	ParamVisibility,
}

// HourlySample is one (possibly half-hour averaged) weather observation.
// Nil pointers mean the value was absent.
type HourlySample struct {
	WeatherCode      int
	CloudCoverPct    *float64
	PrecipitationMMH *float64
	VisibilityM      *float64
	TemperatureC     *float64
	WindSpeedKMH     *float64
}

// WeatherParams are the simulator-facing weather values
type WeatherParams struct {
	Overcast      float64 // fraction [0,1]
	FogM          float64 // visibility distance in meters [10,100000]
	Precipitation float64 // simulator intensity [0,0.015]
	Liquidity     float64 // 0 = snow, 1 = rain
}

// WeatherEvent is one timed ORTSWeatherChange outcome
type WeatherEvent struct {
	ID          string
	Name        string
	TimeS       int
	TransitionS int
	Params      WeatherParams
}

// HourlySeries is the hourly data for one location, keyed by parameter name.
// Each slice is indexed by hour of the fetched window; nil entries are nulls.
type HourlySeries struct {
	Location Coordinate
	Times    []string
	Values   map[string][]*float64
}

// Value returns the value of key at hour, or nil when absent or out of range
func (s HourlySeries) Value(key string, hour int) *float64 {
	vals, ok := s.Values[key]
	if !ok || hour < 0 || hour >= len(vals) {
		return nil
	}
	return vals[hour]
}

// Len returns the length of the key's series and whether the key exists
func (s HourlySeries) Len(key string) (int, bool) {
	vals, ok := s.Values[key]
	return len(vals), ok
}

// Daylight holds sunrise and sunset for the first fetched location
type Daylight struct {
	Sunrise string // e.g. "06:42 AM"
	Sunset  string
}

// WMODescriptions maps WMO weather codes to short descriptions
var WMODescriptions = map[int]string{
	0: "Clear", 1: "Mainly Clear", 2: "Partly Cloudy", 3: "Overcast",
	45: "Fog", 48: "Rime Fog",
	51: "Light Drizzle", 53: "Drizzle", 55: "Dense Drizzle",
	61: "Rain", 63: "Mod. Rain", 65: "Heavy Rain",
	71: "Snow", 73: "Mod. Snow", 75: "Heavy Snow",
	80: "Showers", 81: "Mod. Showers", 82: "Violent Showers",
	95: "Thunderstorm", 96: "Thunderstorm+Hail", 99: "Thunderstorm+Hail",
}

// DescribeWMO returns the description for code, or "Unknown"
func DescribeWMO(code int) string {
	if d, ok := WMODescriptions[code]; ok {
		return d
	}
	return "Unknown"
}

// ManualEvent is one hand-authored weather change, as stored in presets.
// Values are in user units: percent, meters, mm/h.
type ManualEvent struct {
	TimeS       int     `json:"time_s" validate:"gte=0"`
	OvercastPct float64 `json:"overcast_pct" validate:"gte=0,lte=100"`
	FogM        float64 `json:"fog_m" validate:"gte=10,lte=100000"`
	PrecipMMH   float64 `json:"precip_mmh" validate:"gte=0,lte=15"`
	Liquidity   float64 `json:"liquidity" validate:"gte=0,lte=1"`
	TransitionS int     `json:"transition_s" validate:"gte=0"`
	// Sound is a sound category to trigger with the change, or empty
	Sound string `json:"sound,omitempty"`
}
