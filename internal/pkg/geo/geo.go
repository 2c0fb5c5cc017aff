package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func ValidLat(lat float64) bool { return lat >= -90 && lat <= 90 }

func ValidLng(lng float64) bool { return lng >= -180 && lng <= 180 }

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
