// Package generator runs one weather generation: it resolves where the
// activity's train runs, gathers weather for it, builds the event timeline
// and writes the generated activity beside the original.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ngmaloney/weatherlink/internal/actfile"
	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/metar"
	"github.com/ngmaloney/weatherlink/internal/models"
	"github.com/ngmaloney/weatherlink/internal/presets"
	"github.com/ngmaloney/weatherlink/internal/routes"
	"github.com/ngmaloney/weatherlink/internal/sounds"
	"github.com/ngmaloney/weatherlink/internal/timeline"
)

// Mode selects where a run's weather comes from
type Mode int

const (
	ModeLive Mode = iota
	ModeHistorical
	ModeChaotic
	ModeMETAR
	ModePreset
)

var modeNames = [...]string{
	ModeLive:       "live",
	ModeHistorical: "historical",
	ModeChaotic:    "chaotic",
	ModeMETAR:      "metar",
	ModePreset:     "preset",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode is the inverse of Mode.String
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if name == s {
			return Mode(i), nil
		}
	}
	return 0, apperr.New(apperr.CodeValidation, "", fmt.Sprintf("unknown mode %q", s), nil)
}

// Forecaster fetches hourly weather for an ordered list of points
type Forecaster interface {
	Fetch(ctx context.Context, points []models.Coordinate, date *time.Time) ([]models.HourlySeries, *models.Daylight, error)
}

// Observer fetches the latest airport observation
type Observer interface {
	Latest(ctx context.Context, icao string) (*metar.Observation, error)
}

// PresetStore looks up and saves presets
type PresetStore interface {
	Find(name string) (presets.Preset, error)
	Save(name string, p presets.Preset, overwrite bool) error
}

// Labeler names a coordinate for display
type Labeler interface {
	Label(ctx context.Context, c models.Coordinate) string
}

// Request describes one generation
type Request struct {
	Mode     Mode
	Route    models.Route
	Activity models.Activity
	// Date and Hour select the start of a historical run
	Date time.Time
	Hour int
	// ICAO is the airport of a METAR run
	ICAO string
	// Preset names the preset of a preset run
	Preset  string
	Toggles models.Toggles
}

// Result describes a finished generation
type Result struct {
	RunID    string
	Path     string
	Message  string
	Daylight *models.Daylight
	Points   int

	WeatherEvents   int
	SoundEvents     int
	SoundsInstalled int
}

// Service runs generations. It is safe to run one generation at a time.
type Service struct {
	forecast     Forecaster
	observer     Observer
	presets      PresetStore
	labeler      Labeler
	library      *sounds.Library
	pinDistanceM float64
	transitionS  int
	logger       *slog.Logger
	now          func() time.Time
	newRand      func() *rand.Rand

	// OnStage, when set, receives the activity writer's stages
	OnStage func(actfile.Stage)
}

// Option configures a Service
type Option func(*Service)

// WithForecaster sets the weather provider for live and historical runs
func WithForecaster(f Forecaster) Option {
	return func(s *Service) { s.forecast = f }
}

// WithObserver sets the METAR source
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithPresets sets the preset store
func WithPresets(p PresetStore) Option {
	return func(s *Service) { s.presets = p }
}

// WithLabeler sets the reverse geocoder used to name forecast presets
func WithLabeler(l Labeler) Option {
	return func(s *Service) { s.labeler = l }
}

// WithSounds sets the sound library; without one no sound events are made
func WithSounds(lib *sounds.Library) Option {
	return func(s *Service) { s.library = lib }
}

// WithPinDistance sets the spacing of weather points along the path
func WithPinDistance(meters float64) Option {
	return func(s *Service) {
		if meters > 0 {
			s.pinDistanceM = meters
		}
	}
}

// WithTransition sets the transition of every forecast slot after the first
func WithTransition(seconds int) Option {
	return func(s *Service) { s.transitionS = seconds }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time source used for live runs
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source of each run's random generator
func WithRand(newRand func() *rand.Rand) Option {
	return func(s *Service) { s.newRand = newRand }
}

// New creates a Service
func New(opts ...Option) *Service {
	s := &Service{
		pinDistanceM: 10000,
		transitionS:  timeline.DefaultTransitionS,
		logger:       slog.Default(),
		now:          time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the state of one generation
type run struct {
	id        string
	logger    *slog.Logger
	rng       *rand.Rand
	installer *sounds.Installer
	details   *actfile.Details
}

// plan is what a mode produces for the writer
type plan struct {
	timeline *timeline.Timeline
	variant  actfile.Variant
	season   *models.Season
	daylight *models.Daylight
	points   int
	message  string
}

// Generate performs req and writes the generated activity
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	r := &run{id: uuid.NewString(), rng: s.newRand()}
	r.logger = s.logger.With("run_id", r.id, "mode", req.Mode.String())
	r.installer = sounds.NewInstaller(req.Route.Path, r.logger)

	if req.Activity.Path == "" {
		return nil, apperr.New(apperr.CodeValidation, "", "no activity selected", nil)
	}
	details, err := actfile.ReadDetails(req.Activity.Path)
	if err != nil {
		return nil, err
	}
	r.details = details
	r.logger.Info("generation started", "route", req.Route.Name, "activity", req.Activity.FileName)

	var p *plan
	switch req.Mode {
	case ModeLive, ModeHistorical:
		p, err = s.forecastPlan(ctx, r, req)
	case ModeChaotic:
		p = &plan{
			timeline: &timeline.Timeline{Weather: timeline.Chaotic(r.rng)},
			variant:  actfile.VariantChaotic,
			message:  "Chaotic weather generated.",
		}
	case ModeMETAR:
		p, err = s.metarPlan(ctx, req)
	case ModePreset:
		p, err = s.presetPlan(r, req)
	default:
		err = apperr.New(apperr.CodeValidation, "", "unknown mode "+req.Mode.String(), nil)
	}
	if err != nil {
		r.logger.Error("generation failed", "stage", apperr.StageOf(err), "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := actfile.NewWriter(r.logger)
	w.OnStage = s.OnStage
	path, err := w.ModifyAndSave(req.Activity.Path, p.timeline.Block(), p.variant, p.season)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:           r.id,
		Path:            path,
		Message:         p.message,
		Daylight:        p.daylight,
		Points:          p.points,
		WeatherEvents:   len(p.timeline.Weather),
		SoundEvents:     len(p.timeline.Sounds),
		SoundsInstalled: r.installer.Installed(),
	}
	r.logger.Info("generation finished",
		"path", path,
		"weather_events", res.WeatherEvents,
		"sound_events", res.SoundEvents,
		"sounds_installed", res.SoundsInstalled,
	)
	return res, nil
}

// weatherPoints returns the locations to fetch, in path order. Without a
// readable path the route start is the only point.
func (s *Service) weatherPoints(r *run, route models.Route) ([]models.Coordinate, error) {
	start, err := routes.StartLocation(route)
	if err != nil {
		return nil, err
	}
	if r.details.PathID == "" {
		return []models.Coordinate{start}, nil
	}
	path, err := routes.PathCoords(route.Path, r.details.PathID)
	if err != nil {
		r.logger.Warn("path unavailable, using route start", "path_id", r.details.PathID, "error", err)
		return []models.Coordinate{start}, nil
	}
	points := routes.WeatherPoints(path, s.pinDistanceM)
	if len(points) == 0 {
		return []models.Coordinate{start}, nil
	}
	r.logger.Debug("weather points selected",
		"path_id", r.details.PathID,
		"path_km", routes.TotalDistance(path)/1000,
		"points", len(points),
	)
	return points, nil
}

func (s *Service) forecastPlan(ctx context.Context, r *run, req Request) (*plan, error) {
	if s.forecast == nil {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageFetch, "no weather provider configured", nil)
	}

	var (
		date      *time.Time
		day       time.Time
		startHour int
	)
	if req.Mode == ModeHistorical {
		if req.Date.IsZero() {
			return nil, apperr.New(apperr.CodeValidation, apperr.StageFetch, "historical generation needs a date", nil)
		}
		if req.Hour < 0 || req.Hour > 23 {
			return nil, apperr.New(apperr.CodeValidation, apperr.StageFetch, fmt.Sprintf("start hour %d is not between 0 and 23", req.Hour), nil)
		}
		day = req.Date
		date = &day
		startHour = req.Hour
	} else {
		day = s.now()
		startHour = day.Hour()
	}

	points, err := s.weatherPoints(r, req.Route)
	if err != nil {
		return nil, err
	}
	series, daylight, err := s.forecast.Fetch(ctx, points, date)
	if err != nil {
		return nil, err
	}

	var lib timeline.SoundLibrary
	if s.library != nil {
		lib = s.library
	}
	tl, err := timeline.Build(timeline.BuildInput{
		Series:      series,
		StartHour:   startHour,
		TransitionS: s.transitionS,
		Toggles:     req.Toggles,
		Library:     lib,
		Installer:   r.installer,
		Rand:        r.rng,
		Logger:      r.logger,
	})
	if err != nil {
		return nil, err
	}

	season := models.SeasonFor(day, points[0].Lat)
	return &plan{
		timeline: tl,
		variant:  actfile.DateVariant(day),
		season:   &season,
		daylight: daylight,
		points:   len(series),
		message: fmt.Sprintf("Weather for %s from %02d:00 at %d location(s), %d sound event(s).",
			day.Format("2006-01-02"), startHour, len(series), len(tl.Sounds)),
	}, nil
}

func (s *Service) metarPlan(ctx context.Context, req Request) (*plan, error) {
	if s.observer == nil {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageFetch, "no METAR source configured", nil)
	}
	icao, err := metar.NormalizeICAO(req.ICAO)
	if err != nil {
		return nil, err
	}
	obs, err := s.observer.Latest(ctx, icao)
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("METAR %s: %s", icao, obs.RawText)
	if obs.WxString != "" {
		msg += " (" + metar.Describe(obs.WxString) + ")"
	}
	return &plan{
		timeline: &timeline.Timeline{Weather: []models.WeatherEvent{obs.Event(icao)}},
		variant:  actfile.METARVariant(icao),
		points:   1,
		message:  msg,
	}, nil
}

func (s *Service) presetPlan(r *run, req Request) (*plan, error) {
	if s.presets == nil {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageBuild, "no presets configured", nil)
	}
	p, err := s.presets.Find(req.Preset)
	if err != nil {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageBuild, "unknown preset", err)
	}

	var lib timeline.SoundLibrary
	if s.library != nil {
		lib = s.library
	}
	tl, err := timeline.FromManual(timeline.ManualInput{
		Events:    p.Events,
		Library:   lib,
		Installer: r.installer,
		Rand:      r.rng,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	season := p.Season
	return &plan{
		timeline: tl,
		variant:  actfile.LabelVariant(p.Name),
		season:   &season,
		message:  fmt.Sprintf("Preset %q applied: %d weather change(s).", p.Name, len(tl.Weather)),
	}, nil
}

// ForecastPresetHours is how many hours SaveForecastPreset captures
const ForecastPresetHours = 24

// SaveForecastPreset stores the next ForecastPresetHours of forecast at the
// route start as a user preset. An empty name is replaced by the place name
// of the route start.
func (s *Service) SaveForecastPreset(ctx context.Context, route models.Route, name string, overwrite bool) (string, error) {
	if s.forecast == nil || s.presets == nil {
		return "", apperr.New(apperr.CodeValidation, apperr.StageBuild, "forecast presets need a weather provider and a preset store", nil)
	}
	start, err := routes.StartLocation(route)
	if err != nil {
		return "", err
	}
	series, _, err := s.forecast.Fetch(ctx, []models.Coordinate{start}, nil)
	if err != nil {
		return "", err
	}
	if len(series) == 0 {
		return "", apperr.New(apperr.CodeIncompleteData, apperr.StageFetch, "no forecast returned", nil)
	}

	if name == "" {
		name = presets.FallbackName
		if s.labeler != nil {
			name = s.labeler.Label(ctx, start)
		}
	}
	now := s.now()
	p := presets.Preset{
		Season: models.SeasonFor(now, start.Lat),
		Events: presets.FromForecast(series[0], now.Hour(), ForecastPresetHours),
	}
	if err := s.presets.Save(name, p, overwrite); err != nil {
		return "", err
	}
	s.logger.Info("forecast saved as preset", "preset", name, "route", route.Name, "events", len(p.Events))
	return name, nil
}
