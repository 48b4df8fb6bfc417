package routes

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/s2"

	"github.com/ngmaloney/weatherlink/internal/apperr"
	"github.com/ngmaloney/weatherlink/internal/models"
)

const (
	// EarthRadiusMeters is the mean radius used for path distances
	EarthRadiusMeters = 6371008.8
	maxPathPoints     = 100
)

// Distance returns the great-circle distance between a and b in meters
func Distance(a, b models.Coordinate) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

type pdp struct {
	tileX, tileZ int
	x, z         float64
}

// PathCoords reads PATHS/<pathID>.pat of a route and returns about a
// hundred points along it with the cumulative distance from the start
func PathCoords(routePath, pathID string) ([]models.PathPoint, error) {
	if pathID == "" {
		return nil, apperr.New(apperr.CodeValidation, apperr.StageResolveLocation, "activity has no PathID", nil)
	}
	patPath := filepath.Join(routePath, "PATHS", pathID+".pat")
	text, groups, err := readDocument(patPath)
	if err != nil {
		return nil, apperr.New(apperr.CodeIO, apperr.StageResolveLocation, "could not read path "+filepath.Base(patPath), err)
	}

	var (
		pdps    []pdp
		indices []int
	)
	for _, g := range groups {
		switch {
		case strings.EqualFold(g.Key, "TrackPDP"):
			if p, ok := parsePDP(g.Inner(text)); ok {
				pdps = append(pdps, p)
			}
		case strings.EqualFold(g.Key, "TrPathNode"):
			f := strings.Fields(g.Inner(text))
			if len(f) >= 4 {
				if idx, err := strconv.Atoi(f[3]); err == nil {
					indices = append(indices, idx)
				}
			}
		}
	}
	if len(pdps) == 0 || len(indices) == 0 {
		return nil, apperr.New(apperr.CodeFileStructure, apperr.StageResolveLocation,
			fmt.Sprintf("no path data in %s", filepath.Base(patPath)), nil)
	}

	rate := max(1, len(indices)/maxPathPoints)
	var out []models.PathPoint
	for i, idx := range indices {
		if i%rate != 0 && i != len(indices)-1 {
			continue
		}
		if idx < 0 || idx >= len(pdps) {
			continue
		}
		p := pdps[idx]
		c, ok := TileToCoordinate(p.tileX, p.tileZ, p.x, p.z)
		if !ok {
			continue
		}
		dist := 0.0
		if n := len(out); n > 0 {
			dist = out[n-1].DistanceM + Distance(out[n-1].Coordinate, c)
		}
		out = append(out, models.PathPoint{Coordinate: c, DistanceM: dist})
	}
	return out, nil
}

// parsePDP reads "tileX tileZ x y z ..."
func parsePDP(inner string) (pdp, bool) {
	f := strings.Fields(inner)
	if len(f) < 5 {
		return pdp{}, false
	}
	tx, err1 := strconv.Atoi(f[0])
	tz, err2 := strconv.Atoi(f[1])
	x, err3 := strconv.ParseFloat(f[2], 64)
	z, err4 := strconv.ParseFloat(f[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return pdp{}, false
	}
	return pdp{tileX: tx, tileZ: tz, x: x, z: z}, true
}

// TotalDistance returns the length of path in meters
func TotalDistance(path []models.PathPoint) float64 {
	if len(path) == 0 {
		return 0
	}
	return path[len(path)-1].DistanceM
}

// WeatherPoints picks the locations to fetch weather for: the start, the
// point nearest every multiple of pinDistanceM, and the end, in path
// order without duplicates. Paths no longer than one pin, or with two or
// fewer points, yield just the start. An empty path yields nil.
func WeatherPoints(path []models.PathPoint, pinDistanceM float64) []models.Coordinate {
	if len(path) == 0 {
		return nil
	}
	total := TotalDistance(path)
	if len(path) <= 2 || pinDistanceM <= 0 || total <= pinDistanceM {
		return []models.Coordinate{path[0].Coordinate}
	}

	picked := make([]bool, len(path))
	picked[0] = true
	picked[len(path)-1] = true
	pins := int(total / pinDistanceM)
	for i := 1; i <= pins; i++ {
		target := float64(i) * pinDistanceM
		best := 0
		for j, p := range path {
			if math.Abs(p.DistanceM-target) < math.Abs(path[best].DistanceM-target) {
				best = j
			}
		}
		picked[best] = true
	}

	var out []models.Coordinate
	seen := map[models.Coordinate]bool{}
	for i, ok := range picked {
		if ok && !seen[path[i].Coordinate] {
			seen[path[i].Coordinate] = true
			out = append(out, path[i].Coordinate)
		}
	}
	return out
}
