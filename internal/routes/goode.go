package routes

import (
	"math"

	"github.com/ngmaloney/weatherlink/internal/models"
)

// Microsoft Train Simulator world tiles are laid out on an interrupted Goode
// homolosine projection of a sphere
const (
	earthRadius = 6370997.0
	tileSize    = 2048.0
	ulX         = -20013965.0
	ulY         = 8674008.0
	wtEWOffset  = -16385
	wtNSOffset  = 16385

	parallelLimit = 0.710987989993
	polarDelta    = 0.0528035274542
)

var lonCenter = [12]float64{
	-1.74532925199, -1.74532925199, 0.523598775598, 0.523598775598,
	-2.79252680319, -1.0471975512, -2.79252680319, -1.0471975512,
	0.349065850399, 2.44346095279, 0.349065850399, 2.44346095279,
}

// TileToCoordinate converts a tile index and the offset inside the tile (in
// meters) to latitude and longitude. It reports false for positions outside
// the projection's valid area.
func TileToCoordinate(tileX, tileZ int, locX, locZ float64) (models.Coordinate, bool) {
	y := ulY - float64(wtNSOffset-tileZ-1)*tileSize + locZ
	x := ulX + float64(tileX-wtEWOffset-1)*tileSize + locX
	return goodeInverse(x, y)
}

func goodeInverse(gx, gy float64) (models.Coordinate, bool) {
	r := earthRadius
	region := 0
	switch {
	case gy >= r*parallelLimit:
		if gx <= r*-0.698131700798 {
			region = 0
		} else {
			region = 2
		}
	case gy >= 0:
		if gx <= r*-0.698131700798 {
			region = 1
		} else {
			region = 3
		}
	case gy >= r*-parallelLimit:
		switch {
		case gx <= r*-1.74532925199:
			region = 4
		case gx <= r*-0.349065850399:
			region = 5
		case gx <= r*1.3962634016:
			region = 8
		default:
			region = 9
		}
	default:
		switch {
		case gx <= r*-1.74532925199:
			region = 6
		case gx <= r*-0.349065850399:
			region = 7
		case gx <= r*1.3962634016:
			region = 10
		default:
			region = 11
		}
	}

	gx -= r * lonCenter[region]
	var lat, lon float64
	switch region {
	case 1, 3, 4, 5, 8, 9:
		// sinusoidal zones
		lat = gy / r
		if math.Abs(math.Abs(lat)-math.Pi/2) > 1e-10 {
			lon = adjustLon(lonCenter[region] + gx/(r*math.Cos(lat)))
		} else {
			lon = lonCenter[region]
		}
	default:
		// mollweide zones
		sign := 1.0
		if gy < 0 {
			sign = -1
		}
		arg := (gy + polarDelta*r*sign) / (math.Sqrt2 * r)
		if math.Abs(arg) > 1 {
			return models.Coordinate{}, false
		}
		theta := math.Asin(arg)
		lon = lonCenter[region] + gx/(0.900316316158*r*math.Cos(theta))
		arg = (2*theta + math.Sin(2*theta)) / math.Pi
		if math.Abs(arg) > 1 {
			return models.Coordinate{}, false
		}
		lat = math.Asin(arg)
	}
	return models.Coordinate{Lat: lat * 180 / math.Pi, Lon: lon * 180 / math.Pi}, true
}

func adjustLon(v float64) float64 {
	if math.Abs(v) <= math.Pi {
		return v
	}
	if v >= 0 {
		return v - 2*math.Pi
	}
	return v + 2*math.Pi
}
