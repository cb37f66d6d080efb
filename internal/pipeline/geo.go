package pipeline

import (
	"math"

	"stayscout/internal/domain"
)

const earthRadiusM = 6371000.0

// noCell marks listings without usable coordinates; it never neighbors a
// real grid cell.
const noCell = math.MinInt32

// haversineM returns the great-circle distance between two points in meters.
func haversineM(a, b domain.Coords) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// cellOf maps coordinates onto the coarse candidate grid.
func cellOf(c domain.Coords, cellDeg float64) (int, int) {
	return int(math.Floor(c.Lat / cellDeg)), int(math.Floor(c.Lon / cellDeg))
}

func validCoords(c *domain.Coords) bool {
	if c == nil {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180 &&
		!(c.Lat == 0 && c.Lon == 0) // (0,0) is the scrapers' "unknown" marker
}
