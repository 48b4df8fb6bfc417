package timeline

import (
	"fmt"
	"math/rand/v2"

	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	ChaoticEvents    = 20
	ChaoticIntervalS = 300
)

// Chaotic generates rapidly changing random weather for testing how a route
// handles transitions. It draws from r only.
func Chaotic(r *rand.Rand) []models.WeatherEvent {
	events := make([]models.WeatherEvent, 0, ChaoticEvents)
	for i := range ChaoticEvents {
		overcast := r.Float64()

		var fog int
		if r.IntN(2) == 0 {
			fog = 50 + r.IntN(1951)
		} else {
			fog = 10000 + r.IntN(70001)
		}

		precipMMH := 0.0
		if r.IntN(2) == 1 {
			precipMMH = 0.1 + r.Float64()*14.9
		}
		liquidity := 1.0
		if precipMMH > 0 {
			liquidity = r.Float64()
		}

		events = append(events, models.WeatherEvent{
			ID:          WeatherEventID(i),
			Name:        fmt.Sprintf("%sChaotic_%d", EventNamePrefix, i),
			TimeS:       i * ChaoticIntervalS,
			TransitionS: 15 + r.IntN(46),
			Params: models.WeatherParams{
				Overcast:      overcast,
				FogM:          float64(fog),
				Precipitation: precipMMH / 1000,
				Liquidity:     liquidity,
			},
		})
	}
	return events
}
