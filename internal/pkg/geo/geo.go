package geo

import "math"

const earthRadiusMeters = 6371000

// DistanceMeters returns the haversine distance between two coordinates in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)

	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Fence is a circular area around an office.
type Fence struct {
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
}

func (f Fence) Contains(lat, lon float64) bool {
	return DistanceMeters(f.Latitude, f.Longitude, lat, lon) <= f.RadiusMeters
}
