package timeline

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const manualIDBase = 1000

// ManualInput describes a hand-authored or preset timeline
type ManualInput struct {
	Events []models.ManualEvent
	// OffsetS shifts every event, e.g. to skip time already elapsed in the activity
	OffsetS   int
	Library   SoundLibrary
	Installer SoundInstaller
	Rand      *rand.Rand
	Logger    *slog.Logger
}

// FromManual converts manual events into a timeline. Events are ordered by
// time; a named sound category is triggered at its event's time when the
// category's channel is free.
func FromManual(in ManualInput) (*Timeline, error) {
	if len(in.Events) == 0 {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageBuild, "no manual events", nil)
	}
	logger := in.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rng := in.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	events := make([]models.ManualEvent, len(in.Events))
	copy(events, in.Events)
	sort.SliceStable(events, func(i, j int) bool { return events[i].TimeS < events[j].TimeS })

	var channels *Channels
	scopes := map[string]models.SoundScope{}
	if in.Library != nil {
		channels = NewChannels(in.Library, rng)
		for _, def := range in.Library.Definitions() {
			scopes[def.Category] = def.Scope
		}
	}

	tl := &Timeline{Weather: make([]models.WeatherEvent, 0, len(events))}
	for i, m := range events {
		if m.TransitionS < 0 {
			return nil, apperr.New(apperr.CodeValidation, apperr.StageBuild,
				fmt.Sprintf("event %d has negative transition %d", i, m.TransitionS), nil)
		}
		t := max(0, m.TimeS+in.OffsetS)
		tl.Weather = append(tl.Weather, models.WeatherEvent{
			ID:          strconv.Itoa(manualIDBase + i),
			Name:        fmt.Sprintf("%sManual_%d", EventNamePrefix, i),
			TimeS:       t,
			TransitionS: m.TransitionS,
			Params: models.WeatherParams{
				Overcast:      round(clamp(m.OvercastPct, 0, 100)/100, 2),
				FogM:          clamp(m.FogM, minFogM, maxFogM),
				Precipitation: round(clamp(m.PrecipMMH, 0, maxPrecipMMH)/1000, 5),
				Liquidity:     clamp(m.Liquidity, 0, 1),
			},
		})

		if m.Sound == "" || channels == nil {
			continue
		}
		if _, known := scopes[m.Sound]; !known {
			logger.Warn("manual event names an unknown sound category", "event", i, "category", m.Sound)
			continue
		}
		if !channels.Free(m.Sound, t) {
			continue
		}
		entry, ok := channels.Draw(m.Sound)
		if !ok {
			continue
		}
		start := max(channels.earliestStart(m.Sound), t)

		filename := entry.Path
		if in.Installer != nil {
			installed, err := in.Installer.Install(entry)
			if err != nil {
				logger.Warn("skipping sound that could not be installed", "category", m.Sound, "path", entry.Path, "error", err)
				continue
			}
			filename = installed
		}

		scope := entry.Scope
		if scope == "" {
			scope = scopes[m.Sound]
		}
		counter := len(tl.Sounds)
		tl.Sounds = append(tl.Sounds, models.SoundEvent{
			ID:              SoundEventID(i, counter),
			Name:            fmt.Sprintf("%sManualSound_%d", EventNamePrefix, counter),
			TimeS:           start,
			FilenameInRoute: filename,
			Scope:           scope,
			Category:        m.Sound,
			DurationS:       entry.DurationS,
		})
		channels.Reserve(m.Sound, start, entry.DurationS)
	}
	return tl, nil
}
