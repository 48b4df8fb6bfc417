package timeline

import "github.com/ngmaloney/weatherlink/internal/models"

const (
	WindyThresholdKMH = 30.0
	BlizzardPrecipMMH = 5.0
	LightRainMMH      = 0.1
	MediumRainMMH     = 2.5
	HeavyRainMMH      = 7.6
	blizzardMaxLiquid = 0.2
	rainMinLiquidity  = 0.5
)

var thunderstormCodes = map[int]bool{95: true, 96: true, 99: true}

// Classify derives the conditions active for one slot.
// Blizzard and windy are mutually exclusive; at most one rain tier applies;
// thunderstorm is independent of the rain tier.
func Classify(code int, liquidity, precipMMH, windKMH float64, t models.Toggles) models.ConditionSet {
	var set models.ConditionSet

	windy := windKMH >= WindyThresholdKMH
	if t.Wind && windy && liquidity < blizzardMaxLiquid && precipMMH >= BlizzardPrecipMMH {
		set = set.Add(models.Blizzard)
	} else if t.Wind && windy {
		set = set.Add(models.Windy)
	}

	if t.Rain && liquidity > rainMinLiquidity {
		switch {
		case precipMMH >= HeavyRainMMH:
			set = set.Add(models.HeavyRain)
		case precipMMH >= MediumRainMMH:
			set = set.Add(models.MediumRain)
		case precipMMH >= LightRainMMH:
			set = set.Add(models.LightRain)
		}
	}

	if t.Thunder && thunderstormCodes[code] {
		set = set.Add(models.Thunderstorm)
	}

	return set
}
