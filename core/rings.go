package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/searcharc/model"
)

// SpeedOfLightKmS is the propagation speed used to convert burst timing
// offsets into range, in km/s.
const SpeedOfLightKmS = 299792.458

// r600AdjustUs is the fixed timing adjustment applied to offsets observed on
// the R600 channel, in microseconds.
const r600AdjustUs = 4600.0

const defaultRingSteps = 360

// DefaultRingCalibration returns the calibration constants used when the arc
// metadata supplies none: identity scaling, the WGS84 authalic radius and a
// geostationary altitude.
func DefaultRingCalibration() model.RingCalibration {
	return model.RingCalibration{
		RangeScale:       1,
		GroundRangeScale: 1,
		UseWGS84:         true,
		SatAltKm:         35786,
		Steps:            defaultRingSteps,
	}
}

// AdjustedBTOMicros applies the calibration bias and the channel adjustment
// to a raw timing offset.
func AdjustedBTOMicros(spec model.RingSpec, cal model.RingCalibration) float64 {
	bto := spec.BTOMicros + cal.BTOBiasUs
	if spec.Channel == "R600" {
		bto -= r600AdjustUs
	}
	return bto
}

// SlantRangeKm converts a round-trip timing offset in microseconds into a
// one-way slant range.
func SlantRangeKm(btoMicros float64) float64 {
	return btoMicros * 1e-6 * SpeedOfLightKmS / 2
}

// GroundRangeKm derives the great-circle distance from the sub-satellite
// point to a surface point at the given slant range, via the law of cosines
// on the triangle {earth center, satellite, ground point}. The cosine is
// clamped to [-1,1], so geometrically impossible slant ranges collapse to a
// zero ground range rather than NaN.
func GroundRangeKm(slantKm, satAltKm, earthRadiusKm float64) float64 {
	rs := earthRadiusKm + satAltKm
	cosTheta := (rs*rs + earthRadiusKm*earthRadiusKm - slantKm*slantKm) / (2 * rs * earthRadiusKm)
	cosTheta = math.Max(-1, math.Min(1, cosTheta))
	return earthRadiusKm * math.Acos(cosTheta)
}

// DeriveRadiusKm computes the ground-range radius implied by a spec's timing
// offset under the given calibration. The ground-range scale and offset are
// not applied here; BuildRing applies them to derived and explicit radii
// alike.
func DeriveRadiusKm(spec model.RingSpec, cal model.RingCalibration) float64 {
	slant := SlantRangeKm(AdjustedBTOMicros(spec, cal)) * cal.RangeScale
	return GroundRangeKm(slant, cal.SatAltKm, calEarthRadiusKm(cal))
}

// BuildRing materializes a RingSpec into a closed point sequence. The radius
// comes from spec.RadiusKm when positive, otherwise from the timing offset;
// either way it is then scaled and offset by the calibration.
func BuildRing(spec model.RingSpec, cal model.RingCalibration) model.Ring {
	radius := spec.RadiusKm
	if radius <= 0 {
		radius = DeriveRadiusKm(spec, cal)
	}
	radius = radius*cal.GroundRangeScale + cal.GroundRangeOffsetKm
	return MaterializeRing(spec.ID, spec.Center, radius, spec.Time, cal)
}

// MaterializeRing generates the closed point sequence for an already-final
// radius; no calibration scaling is applied. Points are generated at Steps
// equal bearing increments from 0 to 360 degrees, so the result has Steps+1
// points with the last repeating the first.
func MaterializeRing(id string, center model.LatLon, radiusKm float64, at time.Time, cal model.RingCalibration) model.Ring {
	steps := cal.Steps
	if steps < 3 {
		steps = defaultRingSteps
	}
	earthRadius := calEarthRadiusKm(cal)
	points := make([]model.LatLon, 0, steps+1)
	for i := 0; i <= steps; i++ {
		bearing := float64(i) * 360.0 / float64(steps)
		var pt model.LatLon
		if cal.UseEllipsoidal {
			pt = VincentyDirect(center, bearing, radiusKm)
		} else {
			pt = SphericalDestination(center, bearing, radiusKm, earthRadius)
		}
		points = append(points, pt)
	}
	return model.Ring{
		ID:       id,
		Center:   center,
		RadiusKm: radiusKm,
		Time:     at,
		Points:   points,
	}
}

// FitOptions bounds the auxiliary points considered by FitRadiusKm.
type FitOptions struct {
	// LatMin and LatMax restrict fitting to a latitude band.
	LatMin float64
	LatMax float64
	// ToleranceKm rejects points whose center distance deviates from the
	// current radius by more than this much.
	ToleranceKm   float64
	EarthRadiusKm float64
}

// DefaultFitOptions admits all latitudes within 500 km of the current radius.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		LatMin:        -90,
		LatMax:        90,
		ToleranceKm:   500,
		EarthRadiusKm: AuthalicEarthRadiusKm,
	}
}

// FitRadiusKm recalibrates a ring radius to the median center distance of the
// qualifying auxiliary points. When no point qualifies the prior radius is
// returned unchanged.
func FitRadiusKm(center model.LatLon, radiusKm float64, points []model.LatLon, opts FitOptions) float64 {
	var dists []float64
	for _, p := range points {
		if p.Lat < opts.LatMin || p.Lat > opts.LatMax {
			continue
		}
		d := HaversineKm(center.Lat, center.Lon, p.Lat, p.Lon, opts.EarthRadiusKm)
		if math.Abs(d-radiusKm) > opts.ToleranceKm {
			continue
		}
		dists = append(dists, d)
	}
	med, ok := Median(dists)
	if !ok {
		return radiusKm
	}
	return med
}

// DefaultPingSchedule returns the recovered handshake times keyed by arc ID.
// Arc specs loaded without an explicit time are joined against this schedule.
func DefaultPingSchedule() map[string]time.Time {
	return map[string]time.Time{
		"ping-182527": time.Date(2014, time.March, 7, 18, 25, 27, 0, time.UTC),
		"ping-194102": time.Date(2014, time.March, 7, 19, 41, 2, 0, time.UTC),
		"ping-204104": time.Date(2014, time.March, 7, 20, 41, 4, 0, time.UTC),
		"ping-214126": time.Date(2014, time.March, 7, 21, 41, 26, 0, time.UTC),
		"ping-224121": time.Date(2014, time.March, 7, 22, 41, 21, 0, time.UTC),
		"ping-001059": time.Date(2014, time.March, 8, 0, 10, 59, 0, time.UTC),
		"ping-001929": time.Date(2014, time.March, 8, 0, 19, 29, 0, time.UTC),
	}
}

func calEarthRadiusKm(cal model.RingCalibration) float64 {
	if cal.UseWGS84 {
		return AuthalicEarthRadiusKm
	}
	return EarthRadiusKm
}
