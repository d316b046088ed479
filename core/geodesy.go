package core

import (
	"math"

	"github.com/signalsfoundry/searcharc/model"
)

// Earth radii in kilometres. The authalic radius matches the WGS84
// equal-area sphere and is used when ring calibration asks for it.
const (
	EarthRadiusKm         = 6371.0
	AuthalicEarthRadiusKm = 6371.0088
)

// WGS84 ellipsoid parameters (kilometres) for the direct geodesic solve.
const (
	wgs84MajorKm    = 6378.137
	wgs84Flattening = 1.0 / 298.257223563
)

const (
	deg2Rad = math.Pi / 180.0
	rad2Deg = 180.0 / math.Pi
)

// Vec3 is a unit-sphere position vector.
type Vec3 struct {
	X, Y, Z float64
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Cross returns the cross product v × other.
func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// LatLonToVec converts a geographic position to a unit vector.
func LatLonToVec(p model.LatLon) Vec3 {
	latR := p.Lat * deg2Rad
	lonR := p.Lon * deg2Rad
	return Vec3{
		X: math.Cos(latR) * math.Cos(lonR),
		Y: math.Cos(latR) * math.Sin(lonR),
		Z: math.Sin(latR),
	}
}

// VecToLatLon converts a unit vector back to a geographic position.
// Longitudes fall naturally in (-180,180].
func VecToLatLon(v Vec3) model.LatLon {
	lat := math.Atan2(v.Z, math.Sqrt(v.X*v.X+v.Y*v.Y)) * rad2Deg
	lon := math.Atan2(v.Y, v.X) * rad2Deg
	return model.LatLon{Lat: lat, Lon: lon}
}

// rotateAround rotates vec by angle radians about axis (Rodrigues' formula).
// A zero axis leaves the vector unchanged.
func rotateAround(vec, axis Vec3, angle float64) Vec3 {
	axisLen := axis.Norm()
	if axisLen == 0 {
		return vec
	}
	axis = axis.Scale(1.0 / axisLen)
	cosA := math.Cos(angle)
	sinA := math.Sin(angle)
	return vec.Scale(cosA).
		Add(axis.Cross(vec).Scale(sinA)).
		Add(axis.Scale(axis.Dot(vec) * (1 - cosA)))
}

// HaversineKm returns the great-circle distance between two positions on a
// sphere of the given radius. The inner term is clamped before the inverse
// sine to guard against floating-point overshoot at antipodal or coincident
// points.
func HaversineKm(latA, lonA, latB, lonB, radiusKm float64) float64 {
	dLat := (latB - latA) * deg2Rad
	dLon := (lonB - lonA) * deg2Rad
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(latA*deg2Rad)*math.Cos(latB*deg2Rad)*sinLon*sinLon
	root := math.Sqrt(a)
	if root > 1 {
		root = 1
	}
	return 2 * radiusKm * math.Asin(root)
}

// BearingDeg returns the initial bearing from A to B in degrees, normalized
// to [0,360).
func BearingDeg(latA, lonA, latB, lonB float64) float64 {
	phi1 := latA * deg2Rad
	phi2 := latB * deg2Rad
	dLon := (lonB - lonA) * deg2Rad
	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * rad2Deg
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// NormalizeLonDeg wraps a longitude into (-180,180].
func NormalizeLonDeg(lon float64) float64 {
	lon = math.Mod(lon+540, 360)
	if lon < 0 {
		lon += 360
	}
	if lon == 0 {
		return 180
	}
	return lon - 180
}

// GreatCirclePoints interpolates along the shorter great-circle arc between
// start and end, returning steps+1 points at fractions i/steps. Coincident
// or antipodal endpoints (no unique arc) yield the two-point degenerate
// sequence {start, end}.
func GreatCirclePoints(start, end model.LatLon, steps int) []model.LatLon {
	s := LatLonToVec(start)
	e := LatLonToVec(end)

	dot := s.Dot(e)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	theta := math.Acos(dot)
	if theta < 1e-12 || steps < 1 {
		return []model.LatLon{start, end}
	}
	axis := s.Cross(e)
	if axis.Norm() < 1e-12 {
		return []model.LatLon{start, end}
	}

	points := make([]model.LatLon, 0, steps+1)
	for i := 0; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		points = append(points, VecToLatLon(rotateAround(s, axis, theta*frac)))
	}
	return points
}

// GreatCircleLongPath interpolates along the complementary (reflex) arc: the
// rotation axis is negated and the sweep covers the remaining 2π−θ, so the
// path leaves start in the opposite rotational sense and meets end the long
// way around. The complementary-arc length property (short + long ≈ 2πR)
// pins this sign convention down; see the tests.
func GreatCircleLongPath(start, end model.LatLon, steps int) []model.LatLon {
	s := LatLonToVec(start)
	e := LatLonToVec(end)

	dot := s.Dot(e)
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	theta := math.Acos(dot)
	if theta < 1e-12 || steps < 1 {
		return []model.LatLon{start, end}
	}
	axis := s.Cross(e)
	if axis.Norm() < 1e-12 {
		return []model.LatLon{start, end}
	}

	axis = axis.Scale(-1)
	theta = 2*math.Pi - theta

	points := make([]model.LatLon, 0, steps+1)
	for i := 0; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		points = append(points, VecToLatLon(rotateAround(s, axis, theta*frac)))
	}
	return points
}

// PathLengthKm sums consecutive haversine segment distances along a path.
func PathLengthKm(points []model.LatLon, radiusKm float64) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += HaversineKm(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon, radiusKm)
	}
	return total
}

// SphericalDestination returns the point at the given bearing and distance
// from origin on a sphere of the given radius.
func SphericalDestination(origin model.LatLon, bearingDeg, distanceKm, radiusKm float64) model.LatLon {
	delta := distanceKm / radiusKm
	theta := bearingDeg * deg2Rad
	phi1 := origin.Lat * deg2Rad
	lambda1 := origin.Lon * deg2Rad

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	if sinPhi2 > 1 {
		sinPhi2 = 1
	} else if sinPhi2 < -1 {
		sinPhi2 = -1
	}
	phi2 := math.Asin(sinPhi2)
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)

	return model.LatLon{
		Lat: phi2 * rad2Deg,
		Lon: NormalizeLonDeg(lambda2 * rad2Deg),
	}
}

// VincentyDirect solves the direct geodesic problem on the WGS84 ellipsoid:
// the point reached by travelling distanceKm from origin along the initial
// bearing. The iteration stops when the angular correction drops below 1e-12
// radians or after 64 rounds; non-convergence returns the last estimate
// rather than an error, which callers treat as an accepted approximation
// boundary for near-antipodal distances.
func VincentyDirect(origin model.LatLon, bearingDeg, distanceKm float64) model.LatLon {
	const (
		tolerance = 1e-12
		maxRounds = 64
	)

	a := wgs84MajorKm
	f := wgs84Flattening
	b := a * (1 - f)

	phi1 := origin.Lat * deg2Rad
	alpha1 := bearingDeg * deg2Rad
	s := distanceKm

	sinAlpha1 := math.Sin(alpha1)
	cosAlpha1 := math.Cos(alpha1)

	tanU1 := (1 - f) * math.Tan(phi1)
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha
	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	bigA := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	bigB := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))

	sigma := s / (b * bigA)
	var sinSigma, cosSigma, cos2SigmaM float64
	for i := 0; i < maxRounds; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma = math.Sin(sigma)
		cosSigma = math.Cos(sigma)
		deltaSigma := bigB * sinSigma * (cos2SigmaM + bigB/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			bigB/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
		next := s/(b*bigA) + deltaSigma
		if math.Abs(next-sigma) < tolerance {
			sigma = next
			break
		}
		sigma = next
	}

	cos2SigmaM = math.Cos(2*sigma1 + sigma)
	sinSigma = math.Sin(sigma)
	cosSigma = math.Cos(sigma)

	tmp := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	phi2 := math.Atan2(
		sinU1*cosSigma+cosU1*sinSigma*cosAlpha1,
		(1-f)*math.Sqrt(sinAlpha*sinAlpha+tmp*tmp),
	)
	lambda := math.Atan2(
		sinSigma*sinAlpha1,
		cosU1*cosSigma-sinU1*sinSigma*cosAlpha1,
	)
	c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
	l := lambda - (1-c)*f*sinAlpha*
		(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

	return model.LatLon{
		Lat: phi2 * rad2Deg,
		Lon: NormalizeLonDeg(origin.Lon + l*rad2Deg),
	}
}
