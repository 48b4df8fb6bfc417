package routes

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/weatherlink/internal/models"
)

var sprintf = fmt.Sprintf

func TestTileToCoordinate(t *testing.T) {
	tests := []struct {
		name         string
		tileX, tileZ int
		x, z         float64
		lat, lon     float64
	}{
		{"southern england", -6131, 14888, 0, 0, 50.7643139839146, -1.2683488602882855},
		{"with offsets", -5942, 14992, 359.477, -621.646, 52.82365160632823, 3.1179501800982266},
		{"ohio", -11312, 14352, 0, 0, 40.58165476627247, -82.32120618101295},
		{"southern hemisphere", 100, 10000, 0, 0, -39.573982418776176, 118.74191706309716},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := TileToCoordinate(tt.tileX, tt.tileZ, tt.x, tt.z)
			require.True(t, ok)
			assert.InDelta(t, tt.lat, c.Lat, 1e-6)
			assert.InDelta(t, tt.lon, c.Lon, 1e-6)
		})
	}

	_, ok := TileToCoordinate(-6000, 22000, 0, 0)
	assert.False(t, ok, "tile beyond the pole")
}

func TestDistance(t *testing.T) {
	// one degree of latitude
	d := Distance(models.Coordinate{Lat: 0, Lon: 0}, models.Coordinate{Lat: 1, Lon: 0})
	assert.InDelta(t, 111195, d, 1)
}

func TestPathCoords(t *testing.T) {
	route := t.TempDir()
	var b strings.Builder
	b.WriteString("SIMISA@@@@@@@@@@JINX0P0t______\n\nTrackPDPs (\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "\tTrackPDP ( -6131 14888 %d.5 12.0 %d.25 1 0 )\n", i*8, i*4)
	}
	b.WriteString(")\nTrackPath (\n\tTrPathName ( \"MainLine\" )\n\tTrPathNodes ( 250\n")
	for i := 0; i < 250; i++ {
		fmt.Fprintf(&b, "\t\tTrPathNode ( 00000000 %d 4294967295 %d )\n", i+1, i)
	}
	b.WriteString("\t)\n)\n")
	writeUTF16(t, filepath.Join(route, "PATHS", "MainLine.pat"), b.String())

	path, err := PathCoords(route, "MainLine")
	require.NoError(t, err)

	// every second node plus the last one
	assert.Len(t, path, 126)
	first, _ := TileToCoordinate(-6131, 14888, 0.5, 0.25)
	assert.InDelta(t, first.Lat, path[0].Lat, 1e-9)
	assert.InDelta(t, first.Lon, path[0].Lon, 1e-9)
	assert.Equal(t, 0.0, path[0].DistanceM)
	for i := 1; i < len(path); i++ {
		assert.Greater(t, path[i].DistanceM, path[i-1].DistanceM)
	}
	// the projection shortens east-west steps at this latitude
	assert.InDelta(t, 1904.27, TotalDistance(path), 1)
}

func TestPathCoords_Errors(t *testing.T) {
	route := t.TempDir()
	_, err := PathCoords(route, "")
	assert.Error(t, err)
	_, err = PathCoords(route, "missing")
	assert.Error(t, err)

	writeText(t, filepath.Join(route, "PATHS", "empty.pat"), "TrackPDPs ( )")
	_, err = PathCoords(route, "empty")
	assert.Error(t, err)
}

func line(n int, step float64) []models.PathPoint {
	out := make([]models.PathPoint, n)
	for i := range out {
		out[i] = models.PathPoint{Coordinate: models.Coordinate{Lat: float64(i), Lon: 0}, DistanceM: float64(i) * step}
	}
	return out
}

func TestWeatherPoints(t *testing.T) {
	tests := []struct {
		name string
		path []models.PathPoint
		pin  float64
		want []float64 // latitudes
	}{
		{"empty", nil, 10000, nil},
		{"two points", line(2, 50000), 10000, []float64{0}},
		{"shorter than a pin", line(10, 1000), 10000, []float64{0}},
		{"pins and end", line(11, 3000), 10000, []float64{0, 3, 7, 10}},
		{"pin lands on end", line(5, 5000), 10000, []float64{0, 2, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeatherPoints(tt.path, tt.pin)
			var lats []float64
			for _, c := range got {
				lats = append(lats, c.Lat)
			}
			assert.Equal(t, tt.want, lats)
		})
	}
}
