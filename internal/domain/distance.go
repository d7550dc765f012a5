package domain

import "math"

const (
	earthRadiusKm = 6371.0
	kmPerMile     = 1.609344
)

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h marginally outside [0, 1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// MilesToKm converts miles to kilometers.
func MilesToKm(mi float64) float64 { return mi * kmPerMile }

// KmToMiles converts kilometers to miles.
func KmToMiles(km float64) float64 { return km / kmPerMile }
