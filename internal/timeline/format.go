package timeline

import (
	"fmt"

	"github.com/ngmaloney/weatherlink/internal/models"
)

// EventIndent prefixes each generated event line inside the Events block
const EventIndent = "\t\t"

// FormatWeatherEvent renders a weather event in the activity file syntax
func FormatWeatherEvent(e models.WeatherEvent) string {
	t := e.TransitionS
	return fmt.Sprintf("%sEventCategoryTime ( ID ( %s ) Name ( %s ) Time ( %d ) Outcomes ( ORTSWeatherChange ( "+
		"ORTSOvercast ( %.2f %d ) ORTSFog ( %.0f %d ) ORTSPrecipitationIntensity ( %.5f %d ) ORTSPrecipitationLiquidity ( %.1f %d ) ) ) )",
		EventIndent, e.ID, e.Name, e.TimeS,
		e.Params.Overcast, t, e.Params.FogM, t, e.Params.Precipitation, t, e.Params.Liquidity, t)
}

// FormatSoundEvent renders a sound trigger in the activity file syntax
func FormatSoundEvent(e models.SoundEvent) string {
	return fmt.Sprintf("%sEventCategoryTime ( ID ( %s ) Name ( %s ) Time ( %d ) Outcomes ( ORTSActivitySound ( ORTSActSoundFile ( \"%s\" %s ) ) ) )",
		EventIndent, e.ID, e.Name, e.TimeS, e.FilenameInRoute, e.Scope)
}

// Block renders weather events alone, one per line
func Block(events []models.WeatherEvent) string {
	tl := Timeline{Weather: events}
	return tl.Block()
}
