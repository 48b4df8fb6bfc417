package timeline

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

type fakeLibrary struct {
	defs   []models.SoundDefinition
	sounds map[string][]models.SoundEntry
}

func (l *fakeLibrary) Definitions() []models.SoundDefinition { return l.defs }

func (l *fakeLibrary) Sounds(category string) []models.SoundEntry { return l.sounds[category] }

type fakeInstaller struct {
	installed []string
	err       error
}

func (f *fakeInstaller) Install(entry models.SoundEntry) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.installed = append(f.installed, entry.Path)
	return `..\\SOUND\\WEATHERLINK_` + filepath.Base(entry.Path), nil
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// constantSeries returns a series of hours length with every required key
// set to the given values
func constantSeries(hours int, vals map[string]float64) models.HourlySeries {
	s := models.HourlySeries{Values: map[string][]*float64{}}
	for _, key := range models.HourlyParams {
		v := vals[key]
		col := make([]*float64, hours)
		for h := range col {
			x := v
			col[h] = &x
		}
		s.Values[key] = col
	}
	return s
}

func clearSkies() map[string]float64 {
	return map[string]float64{
		models.ParamTemperature: 15,
		models.ParamCloudCover:  10,
		models.ParamVisibility:  40000,
	}
}

func TestBuild_SlotTiming(t *testing.T) {
	tl, err := Build(BuildInput{
		Series: []models.HourlySeries{constantSeries(48, clearSkies())},
		Rand:   testRand(),
	})
	require.NoError(t, err)
	require.Len(t, tl.Weather, DefaultSlots)
	assert.Empty(t, tl.Sounds)

	for i, e := range tl.Weather {
		assert.Equal(t, i*1800, e.TimeS, "slot %d time", i)
		if i == 0 {
			assert.Equal(t, 60, e.TransitionS)
		} else {
			assert.Equal(t, 1800, e.TransitionS, "slot %d transition", i)
		}
		assert.Equal(t, "900"+strconv.Itoa(i), e.ID)
		assert.Equal(t, "WTHLINK_Interval_"+strconv.Itoa(i), e.Name)
	}
	assert.Equal(t, 84600, tl.Weather[47].TimeS)
}

func TestBuild_ConfiguredTransition(t *testing.T) {
	tl, err := Build(BuildInput{
		Series:      []models.HourlySeries{constantSeries(48, clearSkies())},
		TransitionS: 900,
		Rand:        testRand(),
	})
	require.NoError(t, err)
	assert.Equal(t, 60, tl.Weather[0].TransitionS)
	assert.Equal(t, 900, tl.Weather[1].TransitionS)
}

func TestBuild_HalfHourAveraging(t *testing.T) {
	s := constantSeries(30, clearSkies())
	for h := range s.Values[models.ParamCloudCover] {
		v := float64(h * 10 % 100)
		s.Values[models.ParamCloudCover][h] = &v
	}

	tl, err := Build(BuildInput{Series: []models.HourlySeries{s}, StartHour: 2, Rand: testRand()})
	require.NoError(t, err)

	// hour 2 = 20%, hour 3 = 30%
	assert.Equal(t, 0.2, tl.Weather[0].Params.Overcast)
	assert.Equal(t, 0.25, tl.Weather[1].Params.Overcast)
	assert.Equal(t, 0.3, tl.Weather[2].Params.Overcast)
}

func TestBuild_NullValuesCountAsZero(t *testing.T) {
	s := constantSeries(24, clearSkies())
	s.Values[models.ParamVisibility][0] = nil
	s.Values[models.ParamTemperature][0] = nil
	s.Values[models.ParamCloudCover][2] = nil

	tl, err := Build(BuildInput{Series: []models.HourlySeries{s}, Rand: testRand()})
	require.NoError(t, err)

	// slot 0: visibility 0 clamps to the fog floor, 0°C is on the snow/rain ramp
	assert.Equal(t, 10.0, tl.Weather[0].Params.FogM)
	assert.Equal(t, 0.33, tl.Weather[0].Params.Liquidity)
	// slot 1 averages the zeroed hour 0 with hour 1
	assert.Equal(t, 20000.0, tl.Weather[1].Params.FogM)
	assert.Equal(t, 40000.0, tl.Weather[2].Params.FogM)

	// slot 3: the null next value (hour 2) falls back to hour 1
	assert.Equal(t, 0.1, tl.Weather[3].Params.Overcast)
	// slot 4 reads the zeroed hour 2 directly
	assert.Equal(t, 0.0, tl.Weather[4].Params.Overcast)
	// slot 5 averages the zeroed hour 2 with hour 3: (0+10)/2
	assert.Equal(t, 0.05, tl.Weather[5].Params.Overcast)
}

func TestBuild_AveragesWeatherCode(t *testing.T) {
	s := constantSeries(24, clearSkies())
	thunder, calm := 95.0, 0.0
	s.Values[models.ParamWeatherCode][0] = &thunder
	s.Values[models.ParamWeatherCode][1] = &calm

	tl, err := Build(BuildInput{Series: []models.HourlySeries{s}, Rand: testRand()})
	require.NoError(t, err)

	// (95+0)/2 truncates to 47, a fog code
	slot := tl.Weather[1].Params
	assert.LessOrEqual(t, slot.FogM, 600.0)
	assert.GreaterOrEqual(t, slot.Overcast, 0.8)
	assert.Equal(t, 0.1, tl.Weather[2].Params.Overcast)
	assert.Equal(t, 47, sampleAt(s, 0, true).WeatherCode)
	assert.Equal(t, 95, sampleAt(s, 0, false).WeatherCode)
}

func TestBuild_LocationByProgress(t *testing.T) {
	near := clearSkies()
	far := clearSkies()
	far[models.ParamCloudCover] = 90

	tl, err := Build(BuildInput{
		Series: []models.HourlySeries{constantSeries(24, near), constantSeries(24, far)},
		Rand:   testRand(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.1, tl.Weather[23].Params.Overcast)
	assert.Equal(t, 0.9, tl.Weather[24].Params.Overcast)
	assert.Equal(t, 0.9, tl.Weather[47].Params.Overcast)
}

func TestSlotLocation(t *testing.T) {
	tests := []struct {
		progress  float64
		locations int
		want      int
	}{
		{0, 3, 0},
		{0.33, 3, 0},
		{0.34, 3, 1},
		{0.99, 3, 2},
		{1, 3, 2},
		{1.5, 3, 2},
		{-0.2, 3, 0},
		{0.7, 1, 0},
	}
	for _, tt := range tests {
		if got := SlotLocation(tt.progress, tt.locations); got != tt.want {
			t.Errorf("SlotLocation(%v, %d) = %d, want %d", tt.progress, tt.locations, got, tt.want)
		}
	}
}

func TestBuild_IncompleteData(t *testing.T) {
	missing := constantSeries(48, clearSkies())
	delete(missing.Values, models.ParamVisibility)

	tests := []struct {
		name   string
		series []models.HourlySeries
		want   string
	}{
		{"no locations", nil, "no weather series"},
		{"missing key", []models.HourlySeries{missing}, `"visibility"`},
		{"short series", []models.HourlySeries{constantSeries(48, clearSkies()), constantSeries(10, clearSkies())}, "index 23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl, err := Build(BuildInput{Series: tt.series, Rand: testRand()})
			require.Error(t, err)
			assert.Nil(t, tl)
			assert.True(t, apperr.Is(err, apperr.CodeIncompleteData), "error code of %v", err)
			assert.Equal(t, apperr.StageBuild, apperr.StageOf(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuild_StartHourShiftsWindow(t *testing.T) {
	series := []models.HourlySeries{constantSeries(48, clearSkies())}

	_, err := Build(BuildInput{Series: series, StartHour: 24, Rand: testRand()})
	require.NoError(t, err)

	_, err = Build(BuildInput{Series: series, StartHour: 25, Rand: testRand()})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeIncompleteData))

	_, err = Build(BuildInput{Series: series, StartHour: 25, Slots: 46, Rand: testRand()})
	require.NoError(t, err)
}

func TestBuild_ThunderstormScenario(t *testing.T) {
	storm := clearSkies()
	storm[models.ParamWeatherCode] = 95

	lib := &fakeLibrary{
		defs: []models.SoundDefinition{
			{Category: "thunder", Condition: models.Thunderstorm, Scope: models.ScopeEverywhere},
		},
		sounds: map[string][]models.SoundEntry{
			"thunder": {{Path: "/sounds/thunder/t1.wav", DurationS: 10}},
		},
	}
	inst := &fakeInstaller{}

	tl, err := Build(BuildInput{
		Series:    []models.HourlySeries{constantSeries(1, storm)},
		Slots:     1,
		Toggles:   models.Toggles{Thunder: true},
		Library:   lib,
		Installer: inst,
		Rand:      testRand(),
	})
	require.NoError(t, err)
	require.Len(t, tl.Weather, 1)
	require.Len(t, tl.Sounds, 1)

	ev := tl.Sounds[0]
	assert.GreaterOrEqual(t, ev.TimeS, 10)
	assert.LessOrEqual(t, ev.TimeS, 900)
	assert.Equal(t, "800000", ev.ID)
	assert.Equal(t, "WTHLINK_thunder_0_0", ev.Name)
	assert.Equal(t, `..\\SOUND\\WEATHERLINK_t1.wav`, ev.FilenameInRoute)
	assert.Equal(t, models.ScopeEverywhere, ev.Scope)
	assert.Equal(t, 10.0, ev.DurationS)
	assert.Equal(t, []string{"/sounds/thunder/t1.wav"}, inst.installed)
}

func TestBuild_ThunderToggleOff(t *testing.T) {
	storm := clearSkies()
	storm[models.ParamWeatherCode] = 95
	lib := &fakeLibrary{
		defs:   []models.SoundDefinition{{Category: "thunder", Condition: models.Thunderstorm}},
		sounds: map[string][]models.SoundEntry{"thunder": {{Path: "t1.wav", DurationS: 10}}},
	}

	tl, err := Build(BuildInput{
		Series:  []models.HourlySeries{constantSeries(24, storm)},
		Toggles: models.Toggles{Rain: true, Wind: true},
		Library: lib,
		Rand:    testRand(),
	})
	require.NoError(t, err)
	assert.Empty(t, tl.Sounds)
}

func TestBuild_SoundChannelsNeverOverlap(t *testing.T) {
	gale := clearSkies()
	gale[models.ParamWindSpeed] = 45
	gale[models.ParamWeatherCode] = 95
	gale[models.ParamPrecipitation] = 3

	lib := &fakeLibrary{
		defs: []models.SoundDefinition{
			{Category: "wind", Condition: models.Windy, Scope: models.ScopeEverywhere},
			{Category: "thunder", Condition: models.Thunderstorm, Scope: models.ScopeEverywhere},
			{Category: "rain", Condition: models.MediumRain, Scope: models.ScopeCab},
		},
		sounds: map[string][]models.SoundEntry{
			"wind":    {{Path: "w1.wav", DurationS: 700.5}, {Path: "w2.wav", DurationS: 2500}, {Path: "w3.wav", DurationS: 100}},
			"thunder": {{Path: "t1.wav", DurationS: 12.25}, {Path: "t2.wav", DurationS: 30}},
			"rain":    {{Path: "r1.wav", DurationS: 1799.9}},
		},
	}

	tl, err := Build(BuildInput{
		Series:    []models.HourlySeries{constantSeries(24, gale)},
		Toggles:   models.AllSounds(),
		Library:   lib,
		Installer: &fakeInstaller{},
		Rand:      testRand(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, tl.Sounds)

	byCategory := map[string][]models.SoundEvent{}
	ids := map[string]bool{}
	for _, ev := range tl.Sounds {
		byCategory[ev.Category] = append(byCategory[ev.Category], ev)
		assert.False(t, ids[ev.ID], "duplicate sound id %s", ev.ID)
		ids[ev.ID] = true
		assert.True(t, strings.HasPrefix(ev.ID, "8"), "sound id %s", ev.ID)
	}
	assert.Len(t, byCategory, 3)
	assert.Equal(t, models.ScopeCab, byCategory["rain"][0].Scope)

	for category, events := range byCategory {
		sort.Slice(events, func(i, j int) bool { return events[i].TimeS < events[j].TimeS })
		for i := 1; i < len(events); i++ {
			prev := events[i-1]
			assert.GreaterOrEqual(t, float64(events[i].TimeS), float64(prev.TimeS)+prev.DurationS,
				"%s sound %d overlaps the previous one", category, i)
		}
	}
}

func TestBuild_InstallFailureSkipsSound(t *testing.T) {
	gale := clearSkies()
	gale[models.ParamWindSpeed] = 50
	lib := &fakeLibrary{
		defs:   []models.SoundDefinition{{Category: "wind", Condition: models.Windy}},
		sounds: map[string][]models.SoundEntry{"wind": {{Path: "w1.wav", DurationS: 60}}},
	}

	tl, err := Build(BuildInput{
		Series:    []models.HourlySeries{constantSeries(24, gale)},
		Toggles:   models.AllSounds(),
		Library:   lib,
		Installer: &fakeInstaller{err: errors.New("disk full")},
		Rand:      testRand(),
	})
	require.NoError(t, err)
	assert.Len(t, tl.Weather, 48)
	assert.Empty(t, tl.Sounds)
}

func TestSoundEventID(t *testing.T) {
	assert.Equal(t, "800000", SoundEventID(0, 0))
	assert.Equal(t, "807012", SoundEventID(7, 12))
	assert.Equal(t, "847123", SoundEventID(47, 123))
	assert.NotEqual(t, SoundEventID(1, 11), SoundEventID(11, 1))
}
