package models

import "time"

// Coordinate is a WGS84 position in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PathPoint is a coordinate along an activity path with its distance from the start
type PathPoint struct {
	Coordinate
	DistanceM float64 `json:"distance_m"`
}

// Route is an Open Rails route found in a content folder
type Route struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Path    string `json:"path"`     // route folder
	TrkPath string `json:"trk_path"` // route .trk file
}

// Activity is an activity file belonging to a route
type Activity struct {
	DisplayName string `json:"display_name"`
	FileName    string `json:"file_name"`
	Path        string `json:"path"`
	HasWeather  bool   `json:"has_weather"` // a generated version exists beside it
}

// Season is the simulator season index
type Season int

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

func (s Season) String() string {
	switch s {
	case Spring:
		return "Spring"
	case Summer:
		return "Summer"
	case Autumn:
		return "Autumn"
	case Winter:
		return "Winter"
	}
	return "Unknown"
}

// Valid reports whether s is one of the four simulator seasons
func (s Season) Valid() bool {
	return s >= Spring && s <= Winter
}

// SeasonFor returns the simulator season of date at latitude lat,
// flipping the month mapping for the southern hemisphere.
func SeasonFor(date time.Time, lat float64) Season {
	m := date.Month()
	if lat >= 0 {
		switch m {
		case time.March, time.April, time.May:
			return Spring
		case time.June, time.July, time.August:
			return Summer
		case time.September, time.October, time.November:
			return Autumn
		}
		return Winter
	}
	switch m {
	case time.September, time.October, time.November:
		return Spring
	case time.December, time.January, time.February:
		return Summer
	case time.March, time.April, time.May:
		return Autumn
	}
	return Winter
}
