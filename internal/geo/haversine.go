package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// coordinates using the haversine formula.
func DistanceKm(latFrom, lngFrom, latTo, lngTo float64) float64 {
	deltaLat := (latTo - latFrom) * (math.Pi / 180)
	deltaLng := (lngTo - lngFrom) * (math.Pi / 180)

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(latFrom*(math.Pi/180))*math.Cos(latTo*(math.Pi/180))*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// ValidLatitude reports whether lat is a usable latitude.
func ValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

// ValidLongitude reports whether lng is a usable longitude.
func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}
