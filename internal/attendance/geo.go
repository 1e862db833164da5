package attendance

import "math"

// EarthRadiusMeters is the sphere radius used for geofencing.
const EarthRadiusMeters = 6371000.0

// Distance returns the haversine great-circle distance in meters between two
// points given in decimal degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// rounding can push a just outside [0, 1] near antipodes
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Within reports whether (lat, lon) lies inside the session geofence, boundary included.
func (s Session) Within(lat, lon float64) (bool, float64) {
	d := Distance(lat, lon, s.Latitude, s.Longitude)
	return d <= s.Radius, d
}
