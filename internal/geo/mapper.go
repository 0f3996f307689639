package geo

import "math"

// ToSurfacePoint converts a latitude and longitude in degrees into a point on a
// sphere of the given radius centred at the origin.
//
// Phi is the polar angle (0 at the north pole). Theta is the azimuth, offset by
// 180 degrees so that longitude 0 lines up with the sphere texture seam.
func ToSurfacePoint(lat, lon, radius float64) Vec3 {
	phi := (90 - lat) * (math.Pi / 180)
	theta := (lon + 180) * (math.Pi / 180)

	sinPhi, cosPhi := math.Sincos(phi)
	sinTheta, cosTheta := math.Sincos(theta)

	return Vec3{
		X: -(radius * sinPhi * cosTheta),
		Y: radius * cosPhi,
		Z: radius * sinPhi * sinTheta,
	}
}

// SurfaceNormal returns the outward unit normal at a latitude and longitude.
func SurfaceNormal(lat, lon float64) Vec3 {
	return ToSurfacePoint(lat, lon, 1)
}

// Azimuth is the angle of v in the XZ plane, measured from +Z towards +X.
func Azimuth(v Vec3) float64 {
	return math.Atan2(v.X, v.Z)
}
