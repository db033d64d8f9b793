package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Point builds a WGS84 point from optional latitude/longitude. Returns nil when
// either coordinate is missing.
func Point(lat, lon *float64) *geom.Point {
	if lat == nil || lon == nil {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{*lon, *lat}).SetSRID(4326)
}

// ValidCoordinates reports whether lat/lon are finite and within WGS84 bounds.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// DistanceKM returns the haversine distance between two points, or nil when
// either point is missing.
func DistanceKM(a, b *geom.Point) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := HaversineKM(a.Y(), a.X(), b.Y(), b.X())
	return &d
}

// HaversineKM returns the great-circle distance in kilometers between two
// lat/lon pairs given in degrees.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// RoundKM rounds a distance to two decimals for display.
func RoundKM(d *float64) *float64 {
	if d == nil {
		return nil
	}
	r := math.Round(*d*100) / 100
	return &r
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
