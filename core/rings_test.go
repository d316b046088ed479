package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/searcharc/model"
)

// An 11000 microsecond round-trip offset at the configured propagation speed
// corresponds to a one-way slant range just under 1649 km.
func TestSlantRangeWorkedExample(t *testing.T) {
	got := SlantRangeKm(11000)
	if !almostEqual(got, 1648.86, 0.01) {
		t.Fatalf("SlantRangeKm(11000) = %v, want 1648.86", got)
	}
	if got := SlantRangeKm(0); got != 0 {
		t.Fatalf("SlantRangeKm(0) = %v, want 0", got)
	}
}

// The calibration bias is added to every offset; R600 measurements carry an
// additional fixed subtraction.
func TestAdjustedBTOMicros(t *testing.T) {
	cases := []struct {
		name    string
		channel string
		bias    float64
		want    float64
	}{
		{"no adjustment", "", 0, 11000},
		{"bias only", "C", -500, 10500},
		{"r600", "R600", 0, 6400},
		{"r600 with bias", "R600", 100, 6500},
	}
	for _, tc := range cases {
		spec := model.RingSpec{Channel: tc.channel, BTOMicros: 11000}
		cal := DefaultRingCalibration()
		cal.BTOBiasUs = tc.bias
		if got := AdjustedBTOMicros(spec, cal); got != tc.want {
			t.Fatalf("%s: AdjustedBTOMicros = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// Constructing the slant range from a known geocentric angle and feeding it
// back through GroundRangeKm must recover that angle's arc length.
func TestGroundRangeRoundTrip(t *testing.T) {
	const (
		radius = AuthalicEarthRadiusKm
		alt    = 35786.0
	)
	theta := math.Pi / 6
	rs := radius + alt
	slant := math.Sqrt(rs*rs + radius*radius - 2*rs*radius*math.Cos(theta))

	got := GroundRangeKm(slant, alt, radius)
	want := radius * theta
	if !almostEqual(got, want, 1e-6) {
		t.Fatalf("GroundRangeKm(%v) = %v, want %v", slant, got, want)
	}
}

// Slant ranges outside the reachable interval clamp instead of producing NaN:
// shorter than the satellite altitude collapses to zero ground range, longer
// than the far limb saturates at half the circumference.
func TestGroundRangeClamping(t *testing.T) {
	const (
		radius = AuthalicEarthRadiusKm
		alt    = 35786.0
	)
	if got := GroundRangeKm(1648.86, alt, radius); got != 0 {
		t.Fatalf("impossible short slant: GroundRangeKm = %v, want 0", got)
	}
	if got := GroundRangeKm(alt, alt, radius); got != 0 {
		t.Fatalf("sub-satellite slant: GroundRangeKm = %v, want 0", got)
	}
	got := GroundRangeKm(90000, alt, radius)
	want := math.Pi * radius
	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("beyond far limb: GroundRangeKm = %v, want %v", got, want)
	}
}

// Rings are closed polylines with Steps+1 points, and on the sphere every
// point sits at the ring radius from the center.
func TestBuildRingClosure(t *testing.T) {
	spec := model.RingSpec{ID: "arc-1", Center: model.LatLon{Lat: 10, Lon: 95}, RadiusKm: 3000}

	cal := DefaultRingCalibration()
	for _, ellipsoidal := range []bool{false, true} {
		cal.UseEllipsoidal = ellipsoidal
		ring := BuildRing(spec, cal)
		if len(ring.Points) != cal.Steps+1 {
			t.Fatalf("ellipsoidal=%v: len(Points) = %d, want %d", ellipsoidal, len(ring.Points), cal.Steps+1)
		}
		if !ring.Closed(1e-6) {
			t.Fatalf("ellipsoidal=%v: ring not closed: first %v last %v",
				ellipsoidal, ring.Points[0], ring.Points[len(ring.Points)-1])
		}
	}

	cal.UseEllipsoidal = false
	ring := BuildRing(spec, cal)
	for i, pt := range ring.Points {
		d := HaversineKm(spec.Center.Lat, spec.Center.Lon, pt.Lat, pt.Lon, AuthalicEarthRadiusKm)
		if !almostEqual(d, ring.RadiusKm, 1e-6) {
			t.Fatalf("point %d at %v km from center, want %v", i, d, ring.RadiusKm)
		}
	}
}

// A ring derived from a physically reachable offset places its bearing-zero
// point exactly one ground range from the center.
func TestBuildRingBearingZeroAtGroundRange(t *testing.T) {
	cal := DefaultRingCalibration()
	// Offset chosen so the one-way slant range is 37000 km, comfortably
	// inside the reachable interval for a geostationary altitude.
	bto := 2 * 37000 / SpeedOfLightKmS * 1e6
	spec := model.RingSpec{
		ID:        "arc-2",
		Center:    model.LatLon{Lat: 1.6, Lon: 64.5},
		BTOMicros: bto,
	}

	ground := DeriveRadiusKm(spec, cal)
	if ground <= 0 {
		t.Fatalf("DeriveRadiusKm = %v, want positive", ground)
	}

	ring := BuildRing(spec, cal)
	if !almostEqual(ring.RadiusKm, ground, 1e-9) {
		t.Fatalf("ring.RadiusKm = %v, want %v", ring.RadiusKm, ground)
	}
	d := HaversineKm(spec.Center.Lat, spec.Center.Lon, ring.Points[0].Lat, ring.Points[0].Lon, AuthalicEarthRadiusKm)
	if !almostEqual(d, ground, 1e-6) {
		t.Fatalf("bearing-0 point at %v km from center, want %v", d, ground)
	}
}

// An explicit spec radius overrides the offset-derived one, and the ground
// range scale and offset apply to it.
func TestBuildRingCalibrationScaling(t *testing.T) {
	cal := DefaultRingCalibration()
	cal.GroundRangeScale = 1.1
	cal.GroundRangeOffsetKm = -50

	spec := model.RingSpec{
		ID:        "arc-3",
		Center:    model.LatLon{Lat: 0, Lon: 90},
		BTOMicros: 999999,
		RadiusKm:  1000,
	}
	ring := BuildRing(spec, cal)
	if !almostEqual(ring.RadiusKm, 1050, 1e-9) {
		t.Fatalf("ring.RadiusKm = %v, want 1050", ring.RadiusKm)
	}
}

// Fitting replaces the radius with the median distance of qualifying points
// and leaves it untouched when nothing qualifies.
func TestFitRadius(t *testing.T) {
	center := model.LatLon{}
	opts := DefaultFitOptions()

	var points []model.LatLon
	for _, d := range []float64{2800, 2900, 3200, 4000, 10000} {
		points = append(points, SphericalDestination(center, 90, d, opts.EarthRadiusKm))
	}

	// 4000 and 10000 fall outside the 500 km tolerance band around 3000.
	got := FitRadiusKm(center, 3000, points, opts)
	if !almostEqual(got, 2900, 1e-6) {
		t.Fatalf("FitRadiusKm = %v, want 2900", got)
	}

	// All candidate points sit on the equator; a northern band excludes them.
	opts.LatMin, opts.LatMax = 10, 90
	if got := FitRadiusKm(center, 3000, points, opts); got != 3000 {
		t.Fatalf("no qualifying points: FitRadiusKm = %v, want 3000", got)
	}

	if got := FitRadiusKm(center, 3000, nil, DefaultFitOptions()); got != 3000 {
		t.Fatalf("empty point set: FitRadiusKm = %v, want 3000", got)
	}
}

// The recovered handshake schedule has seven arcs spanning the night of
// 2014-03-07/08.
func TestDefaultPingSchedule(t *testing.T) {
	sched := DefaultPingSchedule()
	if len(sched) != 7 {
		t.Fatalf("len(schedule) = %d, want 7", len(sched))
	}
	first, ok := sched["ping-182527"]
	if !ok || !first.Equal(time.Date(2014, time.March, 7, 18, 25, 27, 0, time.UTC)) {
		t.Fatalf("ping-182527 = %v (present=%v)", first, ok)
	}
	last, ok := sched["ping-001929"]
	if !ok || !last.Equal(time.Date(2014, time.March, 8, 0, 19, 29, 0, time.UTC)) {
		t.Fatalf("ping-001929 = %v (present=%v)", last, ok)
	}
}
