package timeline

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	// ToolTag marks every event, file and title produced by WeatherLink
	ToolTag = "WTHLINK"
	// EventNamePrefix starts the Name of every injected event
	EventNamePrefix = ToolTag + "_"

	DefaultSlots       = 48
	SlotSeconds        = 1800
	FirstTransitionS   = 60
	DefaultTransitionS = 1800
)

// SoundInstaller copies a sound into the route and returns the file name
// to reference from the activity
type SoundInstaller interface {
	Install(entry models.SoundEntry) (string, error)
}

// BuildInput is everything one timeline build needs
type BuildInput struct {
	// Series holds one hourly series per weather point, in path order
	Series    []models.HourlySeries
	StartHour int
	// Slots defaults to DefaultSlots
	Slots int
	// TransitionS is used for every slot after the first; defaults to DefaultTransitionS
	TransitionS int
	Toggles     models.Toggles
	Library     SoundLibrary
	Installer   SoundInstaller
	Rand        *rand.Rand
	// Progress maps a slot to a fraction of the path; defaults to slot/slots
	Progress func(slot, slots int) float64
	Logger   *slog.Logger
}

// Timeline is the output of one build
type Timeline struct {
	Weather []models.WeatherEvent
	Sounds  []models.SoundEvent
}

// Block renders the timeline as the text injected into an activity's Events block
func (t *Timeline) Block() string {
	lines := make([]string, 0, len(t.Weather)+len(t.Sounds))
	for _, e := range t.Weather {
		lines = append(lines, FormatWeatherEvent(e))
	}
	for _, e := range t.Sounds {
		lines = append(lines, FormatSoundEvent(e))
	}
	return strings.Join(lines, "\n")
}

// WeatherEventID returns the identifier of the weather event of slot i
func WeatherEventID(slot int) string {
	return "900" + strconv.Itoa(slot)
}

// SoundEventID returns the identifier of the counter-th sound event, first
// scheduled in slot. The fixed-width form starts with 8 so it can never
// collide with a weather event identifier.
func SoundEventID(slot, counter int) string {
	return fmt.Sprintf("8%02d%03d", slot, counter)
}

// SlotLocation picks the weather point for a slot from its path progress
func SlotLocation(progress float64, locations int) int {
	idx := int(progress * float64(locations))
	return max(0, min(idx, locations-1))
}

// Build converts hourly series into weather events and non-overlapping
// sound events. Any missing or short series aborts the whole build.
func Build(in BuildInput) (*Timeline, error) {
	slots := in.Slots
	if slots <= 0 {
		slots = DefaultSlots
	}
	transition := in.TransitionS
	if transition <= 0 {
		transition = DefaultTransitionS
	}
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := in.Progress
	if progress == nil {
		progress = func(slot, slots int) float64 { return float64(slot) / float64(slots) }
	}
	rng := in.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	if in.StartHour < 0 {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageBuild,
			fmt.Sprintf("start hour %d is negative", in.StartHour), nil)
	}
	if err := validateSeries(in.Series, in.StartHour, slots); err != nil {
		return nil, err
	}

	var channels *Channels
	if in.Library != nil {
		channels = NewChannels(in.Library, rng)
	}

	tl := &Timeline{Weather: make([]models.WeatherEvent, 0, slots)}
	soundCounter := 0

	for i := range slots {
		series := in.Series[SlotLocation(progress(i, slots), len(in.Series))]
		sample := sampleAt(series, in.StartHour+i/2, i%2 == 1)
		params := MapSample(sample)

		eventTime := i * SlotSeconds
		transitionS := transition
		if i == 0 {
			transitionS = FirstTransitionS
		}
		tl.Weather = append(tl.Weather, models.WeatherEvent{
			ID:          WeatherEventID(i),
			Name:        fmt.Sprintf("%sInterval_%d", EventNamePrefix, i),
			TimeS:       eventTime,
			TransitionS: transitionS,
			Params:      params,
		})

		if channels == nil {
			continue
		}
		conditions := Classify(sample.WeatherCode, params.Liquidity,
			valueOr(sample.PrecipitationMMH, 0), valueOr(sample.WindSpeedKMH, 0), in.Toggles)
		if conditions.Empty() {
			continue
		}

		for _, def := range in.Library.Definitions() {
			if !conditions.Has(def.Condition) || !channels.Free(def.Category, eventTime) {
				continue
			}
			entry, ok := channels.Draw(def.Category)
			if !ok {
				continue
			}

			var start int
			if def.Condition == models.Thunderstorm {
				start = eventTime + 10 + rng.IntN(891)
			} else {
				start = max(channels.earliestStart(def.Category), eventTime+1+rng.IntN(5))
			}

			filename := entry.Path
			if in.Installer != nil {
				installed, err := in.Installer.Install(entry)
				if err != nil {
					logger.Warn("skipping sound that could not be installed",
						"category", def.Category,
						"path", entry.Path,
						"error", err,
					)
					continue
				}
				filename = installed
			}

			scope := entry.Scope
			if scope == "" {
				scope = def.Scope
			}
			tl.Sounds = append(tl.Sounds, models.SoundEvent{
				ID:              SoundEventID(i, soundCounter),
				Name:            fmt.Sprintf("%s%s_%d_%d", EventNamePrefix, def.Category, i, soundCounter),
				TimeS:           start,
				FilenameInRoute: filename,
				Scope:           scope,
				Category:        def.Category,
				DurationS:       entry.DurationS,
			})
			soundCounter++
			channels.Reserve(def.Category, start, entry.DurationS)
		}
	}

	logger.Debug("timeline built",
		"weather_events", len(tl.Weather),
		"sound_events", len(tl.Sounds),
		"locations", len(in.Series),
	)
	return tl, nil
}

// validateSeries checks every location carries each required parameter
// through the last hour the build reads
func validateSeries(series []models.HourlySeries, startHour, slots int) error {
	if len(series) == 0 {
		return apperr.New(apperr.CodeIncompleteData, apperr.StageBuild, "no weather series to build from", nil)
	}
	lastHour := startHour + (slots-1)/2
	for loc, s := range series {
		for _, key := range models.RequiredParams {
			n, ok := s.Len(key)
			if !ok {
				return apperr.New(apperr.CodeIncompleteData, apperr.StageBuild,
					fmt.Sprintf("location %d is missing hourly %q", loc, key), nil)
			}
			if lastHour >= n {
				return apperr.New(apperr.CodeIncompleteData, apperr.StageBuild,
					fmt.Sprintf("location %d hourly %q has %d hours, index %d required", loc, key, n, lastHour), nil)
			}
		}
	}
	return nil
}

// sampleAt reads the sample for an hour, averaging with the next hour on
// half-hour slots. The averaged weather code is truncated to an integer.
func sampleAt(s models.HourlySeries, hour int, half bool) models.HourlySample {
	return models.HourlySample{
		WeatherCode:      int(*valueAt(s, models.ParamWeatherCode, hour, half)),
		CloudCoverPct:    valueAt(s, models.ParamCloudCover, hour, half),
		PrecipitationMMH: valueAt(s, models.ParamPrecipitation, hour, half),
		VisibilityM:      valueAt(s, models.ParamVisibility, hour, half),
		TemperatureC:     valueAt(s, models.ParamTemperature, hour, half),
		WindSpeedKMH:     valueAt(s, models.ParamWindSpeed, hour, half),
	}
}

// valueAt returns the hour's value, or the mean of it and the next hour's
// value when half is set. A null or missing value counts as 0; a null or
// missing next value falls back to the current one.
func valueAt(s models.HourlySeries, key string, hour int, half bool) *float64 {
	cur := valueOr(s.Value(key, hour), 0)
	if !half {
		return &cur
	}
	next := valueOr(s.Value(key, hour+1), cur)
	avg := (cur + next) / 2
	return &avg
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
