package model

import "time"

// LatLon is a geographic position in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// BoundingBox is an inclusive geographic rectangle.
type BoundingBox struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether the point lies inside the box.
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// RingSpec describes one satellite-ranging measurement: a burst timing offset
// observed on a channel at a known time, anchored to a reference center
// (normally the sub-satellite point at that time).
type RingSpec struct {
	ID string
	// Channel is the signalling channel the offset was observed on.
	// "R600" measurements carry a fixed timing adjustment.
	Channel string
	Center  LatLon
	// BTOMicros is the burst timing offset in microseconds.
	BTOMicros float64
	// RadiusKm overrides the BTO-derived ground range when positive.
	RadiusKm float64
	// Time is the ping time; zero when unknown.
	Time time.Time
}

// RingCalibration carries the correction constants applied when a RingSpec is
// materialized into a Ring. The zero value is not useful; use
// DefaultRingCalibration.
type RingCalibration struct {
	// RangeScale multiplies the BTO-derived slant range.
	RangeScale float64
	// BTOBiasUs is added to every raw timing offset.
	BTOBiasUs float64
	// GroundRangeOffsetKm and GroundRangeScale adjust the derived ground
	// range: radius = base*GroundRangeScale + GroundRangeOffsetKm.
	GroundRangeOffsetKm float64
	GroundRangeScale    float64
	// UseWGS84 selects the WGS84 authalic radius over the mean radius.
	UseWGS84 bool
	// SatAltKm is the assumed satellite altitude above the surface.
	SatAltKm float64
	// UseEllipsoidal selects the ellipsoidal circle generator.
	UseEllipsoidal bool
	// Steps is the number of bearing increments; the materialized ring has
	// Steps+1 points.
	Steps int
}

// Ring is a materialized constant-range locus: an ordered, closed point
// sequence (first point equals last).
type Ring struct {
	ID       string
	Center   LatLon
	RadiusKm float64
	Time     time.Time
	Points   []LatLon
}

// Closed reports whether the ring has at least three points and its endpoints
// coincide within tol degrees.
func (r Ring) Closed(tol float64) bool {
	if len(r.Points) < 3 {
		return false
	}
	first, last := r.Points[0], r.Points[len(r.Points)-1]
	dLat := first.Lat - last.Lat
	dLon := first.Lon - last.Lon
	if dLat < 0 {
		dLat = -dLat
	}
	if dLon < 0 {
		dLon = -dLon
	}
	return dLat <= tol && dLon <= tol
}

// Corridor is a set of polylines describing an assumed travel corridor.
// Points inside corridor tolerance of any segment pass the corridor filter.
type Corridor struct {
	Lines [][]LatLon
}

// Empty reports whether the corridor carries no usable segments.
func (c Corridor) Empty() bool {
	for _, line := range c.Lines {
		if len(line) >= 2 {
			return false
		}
	}
	return true
}
