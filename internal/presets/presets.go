// Package presets holds named manual weather timelines: the built-in set
// and the user's own, saved in a JSON file.
package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/timeline"
)

// FallbackName names a forecast preset when no place name is known
const FallbackName = "Forecast"

// ErrExists is returned when saving over a preset without overwrite
var ErrExists = errors.New("preset already exists")

// ErrNotFound is returned for unknown preset names
var ErrNotFound = errors.New("preset not found")

// Preset is a named season plus manual events
type Preset struct {
	Name    string               `json:"-"`
	Season  models.Season        `json:"season" validate:"gte=0,lte=3"`
	Events  []models.ManualEvent `json:"events" validate:"required,min=1,dive"`
	BuiltIn bool                 `json:"-"`
}

var validate = validator.New()

// Validate checks every field of the preset
func (p Preset) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return nil
}

// BuiltIn returns the presets shipped with the program, sorted by name
func BuiltIn() []Preset {
	ev := func(t int, overcast, fog, precip, liquidity float64, transition int, sound string) models.ManualEvent {
		return models.ManualEvent{TimeS: t, OvercastPct: overcast, FogM: fog, PrecipMMH: precip, Liquidity: liquidity, TransitionS: transition, Sound: sound}
	}
	return []Preset{
		{Name: "Clear Day", Season: models.Summer, BuiltIn: true, Events: []models.ManualEvent{
			ev(0, 10, 50000, 0, 1, 30, ""),
		}},
		{Name: "Gradual Storm", Season: models.Spring, BuiltIn: true, Events: []models.ManualEvent{
			ev(0, 20, 30000, 0, 1, 60, "wind"),
			ev(1800, 80, 10000, 2, 1, 1800, "everywhere_light_rain"),
			ev(3600, 100, 5000, 8, 1, 1800, "everywhere_heavy_rain"),
			ev(5400, 100, 3000, 12, 1, 1800, "thunder"),
			ev(7200, 70, 15000, 1, 1, 3600, "wind"),
		}},
		{Name: "Passing Shower", Season: models.Autumn, BuiltIn: true, Events: []models.ManualEvent{
			ev(0, 30, 25000, 0, 1, 60, ""),
			ev(600, 90, 8000, 5, 1, 300, "everywhere_medium_rain"),
			ev(1800, 40, 20000, 0.5, 1, 1200, ""),
		}},
		{Name: "Snow Storm", Season: models.Winter, BuiltIn: true, Events: []models.ManualEvent{
			ev(0, 70, 10000, 1, 0.2, 60, "blizzard"),
			ev(1800, 100, 2000, 8, 0.1, 1800, "blizzard"),
			ev(9000, 80, 5000, 2, 0.1, 3600, "wind"),
		}},
	}
}

// Store is the user's presets file
type Store struct {
	path string
}

// NewStore returns a store backed by the JSON file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the presets file location
func (s *Store) Path() string { return s.path }

// Load reads the user presets. A missing file is an empty set.
func (s *Store) Load() (map[string]Preset, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Preset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading presets: %w", err)
	}

	var raw map[string]Preset
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing presets %s: %w", s.path, err)
	}
	out := make(map[string]Preset, len(raw))
	for name, p := range raw {
		p.Name = name
		for i := range p.Events {
			if strings.EqualFold(p.Events[i].Sound, "none") {
				p.Events[i].Sound = ""
			}
		}
		out[name] = p
	}
	return out, nil
}

// All returns the built-in presets followed by the user's, each sorted by
// name. A user preset with a built-in's name hides the built-in.
func (s *Store) All() ([]Preset, error) {
	user, err := s.Load()
	if err != nil {
		return nil, err
	}
	var out []Preset
	for _, p := range BuiltIn() {
		if _, shadowed := user[p.Name]; !shadowed {
			out = append(out, p)
		}
	}

	names := make([]string, 0, len(user))
	for name := range user {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, user[name])
	}
	return out, nil
}

// Find returns the preset named name, ignoring case
func (s *Store) Find(name string) (Preset, error) {
	all, err := s.All()
	if err != nil {
		return Preset{}, err
	}
	for _, p := range all {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Save validates p and writes it under name
func (s *Store) Save(name string, p Preset, overwrite bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("preset name cannot be empty")
	}
	p.Name = name
	if err := p.Validate(); err != nil {
		return err
	}

	user, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := user[name]; ok && !overwrite {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}
	user[name] = p
	return s.write(user)
}

// Delete removes a user preset
func (s *Store) Delete(name string) error {
	user, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := user[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(user, name)
	return s.write(user)
}

func (s *Store) write(user map[string]Preset) error {
	data, err := json.MarshalIndent(user, "", "    ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing presets: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// FromForecast turns hours [startHour, startHour+hours) of a forecast into
// hourly manual events, one per hour with an hour-long transition
func FromForecast(s models.HourlySeries, startHour, hours int) []models.ManualEvent {
	out := make([]models.ManualEvent, 0, hours)
	for i := 0; i < hours; i++ {
		h := startHour + i
		var code *int
		if c := s.Value(models.ParamWeatherCode, h); c != nil {
			v := int(*c)
			code = &v
		}
		p := timeline.Map(code,
			s.Value(models.ParamCloudCover, h),
			s.Value(models.ParamPrecipitation, h),
			s.Value(models.ParamVisibility, h),
			s.Value(models.ParamTemperature, h))
		out = append(out, models.ManualEvent{
			TimeS:       i * 3600,
			OvercastPct: math.Round(p.Overcast * 100),
			FogM:        p.FogM,
			PrecipMMH:   math.Round(p.Precipitation*1000*100) / 100,
			Liquidity:   p.Liquidity,
			TransitionS: 3600,
		})
	}
	return out
}
