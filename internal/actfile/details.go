package actfile

import (
	"os"
	"strconv"
	"strings"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

// Details is the information shown for an activity before generating
type Details struct {
	Name        string
	Description string
	Briefing    string
	PathID      string
	Season      models.Season
	// StartTimeS is the player train's start time in seconds after midnight
	StartTimeS int
	// Weather lists the weather changes already present, in file order
	Weather  []models.WeatherEvent
	Encoding Encoding
}

// ReadDetails reads the fields of an activity that drive generation
func ReadDetails(path string) (*Details, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.CodeIO, "", "could not read activity", err)
	}
	text, enc, err := Decode(data)
	if err != nil {
		return nil, apperr.New(apperr.CodeEncoding, apperr.StageDetectEncoding, "unsupported activity encoding", err)
	}
	return ParseDetails(text, enc)
}

// ParseDetails extracts Details from decoded activity text
func ParseDetails(text string, enc Encoding) (*Details, error) {
	groups, err := Scan(text)
	if err != nil {
		return nil, apperr.New(apperr.CodeFileStructure, "", "malformed activity", err)
	}

	d := &Details{Season: models.Summer, Encoding: enc}
	if g, ok := First(text, groups, "Name", isQuoted); ok {
		d.Name, _ = Unquote(g.Inner(text))
	}
	if g, ok := First(text, groups, "Description", isQuoted); ok {
		d.Description = strings.TrimSpace(Value(g.Inner(text)))
	}
	if g, ok := First(text, groups, "Briefing", isQuoted); ok {
		d.Briefing = strings.TrimSpace(Value(g.Inner(text)))
	}
	if g, ok := First(text, groups, "PathID", nil); ok {
		d.PathID = firstToken(g.Inner(text))
	}
	if g, ok := First(text, groups, "Season", isDigit); ok {
		if s := models.Season(strings.TrimSpace(g.Inner(text))[0] - '0'); s.Valid() {
			d.Season = s
		}
	}
	if g, ok := First(text, groups, "Player_Traffic_Definition", nil); ok {
		if fields := strings.Fields(g.Inner(text)); len(fields) > 0 {
			d.StartTimeS, _ = strconv.Atoi(fields[0])
		}
	}

	for _, g := range groups {
		if !isEventGroup(g.Key) {
			continue
		}
		if _, ok := Descendant(groups, g, "ORTSWeatherChange"); !ok {
			continue
		}
		d.Weather = append(d.Weather, parseWeatherEvent(text, groups, g))
	}
	return d, nil
}

// HasGeneratedEvents reports whether any event in text was injected by this tool
func HasGeneratedEvents(text string) bool {
	groups, err := Scan(text)
	if err != nil {
		return false
	}
	for _, g := range groups {
		if isEventGroup(g.Key) && isGenerated(text, groups, g) {
			return true
		}
	}
	return false
}

func isEventGroup(key string) bool {
	return strings.EqualFold(key, "EventCategoryTime") || strings.EqualFold(key, "EventTypeTime")
}

func parseWeatherEvent(text string, groups []Group, event Group) models.WeatherEvent {
	e := models.WeatherEvent{Params: models.WeatherParams{FogM: 100000, Liquidity: 1}}
	if g, ok := Child(groups, event, "ID"); ok {
		e.ID = Value(g.Inner(text))
	}
	if g, ok := Child(groups, event, "Name"); ok {
		e.Name = Value(g.Inner(text))
	}
	if g, ok := Child(groups, event, "Time"); ok {
		e.TimeS, _ = strconv.Atoi(firstToken(g.Inner(text)))
	}

	param := func(key string, dst *float64) {
		g, ok := Descendant(groups, event, key)
		if !ok {
			return
		}
		fields := strings.Fields(g.Inner(text))
		if len(fields) == 0 {
			return
		}
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			*dst = v
		}
		if len(fields) > 1 && e.TransitionS == 0 {
			if t, err := strconv.ParseFloat(fields[1], 64); err == nil {
				e.TransitionS = int(t)
			}
		}
	}
	param("ORTSOvercast", &e.Params.Overcast)
	param("ORTSFog", &e.Params.FogM)
	param("ORTSPrecipitationIntensity", &e.Params.Precipitation)
	param("ORTSPrecipitationLiquidity", &e.Params.Liquidity)
	return e
}

func firstToken(inner string) string {
	if v, quoted := Unquote(inner); quoted {
		return v
	}
	s := strings.TrimSpace(inner)
	if strings.HasPrefix(s, `"`) {
		if end := strings.IndexByte(s[1:], '"'); end >= 0 {
			return s[1 : 1+end]
		}
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
