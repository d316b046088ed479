package core

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/searcharc/model"
)

// wgs84E2 is the squared first eccentricity of the WGS84 ellipsoid.
const wgs84E2 = wgs84Flattening * (2 - wgs84Flattening)

// Ephemeris propagates a satellite from a two-line element set and reports
// its ground sub-point. Ring specs without an explicit center anchor on the
// sub-point at their ping time.
type Ephemeris struct {
	sat satellite.Satellite
}

// NewEphemerisFromTLE constructs an ephemeris from TLE lines.
func NewEphemerisFromTLE(line1, line2 string) *Ephemeris {
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &Ephemeris{sat: sat}
}

// SubSatellitePoint propagates the satellite to t and returns the geodetic
// point directly beneath it together with its altitude above the ellipsoid.
// go-satellite works in kilometres.
func (e *Ephemeris) SubSatellitePoint(t time.Time) (model.LatLon, float64) {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(e.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	lat, lon, alt := ecefToGeodetic(posECEF.X, posECEF.Y, posECEF.Z)
	return model.LatLon{Lat: lat, Lon: lon}, alt
}

// ecefToGeodetic converts earth-fixed kilometres to geodetic degrees and
// ellipsoidal altitude using the Bowring iteration.
func ecefToGeodetic(x, y, z float64) (latDeg, lonDeg, altKm float64) {
	lon := math.Atan2(y, x)
	p := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, p*(1.0-wgs84E2))

	const (
		maxIterations = 10
		tolerance     = 1e-12
	)
	for i := 0; i < maxIterations; i++ {
		sinLat := math.Sin(lat)
		n := wgs84MajorKm / math.Sqrt(1.0-wgs84E2*sinLat*sinLat)
		next := math.Atan2(z+wgs84E2*n*sinLat, p)
		if math.Abs(next-lat) < tolerance {
			lat = next
			break
		}
		lat = next
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	n := wgs84MajorKm / math.Sqrt(1.0-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - n
	} else {
		// Near the poles p collapses; recover altitude from the polar axis.
		alt = math.Abs(z)/math.Abs(sinLat) - n*(1.0-wgs84E2)
	}

	return lat * rad2Deg, NormalizeLonDeg(lon * rad2Deg), alt
}
