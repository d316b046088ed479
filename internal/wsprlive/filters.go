package wsprlive

import (
	"math"

	"github.com/signalsfoundry/searcharc/core"
	"github.com/signalsfoundry/searcharc/model"
)

// Endpoint modes for the bounding-box filter.
const (
	EndpointTx     = "tx"
	EndpointRx     = "rx"
	EndpointBoth   = "both"
	EndpointEither = "either"
)

// defaultPathSteps is the sample count for the path-through-box test.
const defaultPathSteps = 96

// FilterConfig selects which post-fetch filters apply to a record batch.
type FilterConfig struct {
	// BBox constrains records geographically; nil disables the box tests.
	BBox *model.BoundingBox
	// Endpoint picks which side of the link must sit inside the box.
	Endpoint string
	// PathThroughBBox also admits records whose great-circle path crosses
	// the box even when the required endpoints fall outside it.
	PathThroughBBox bool
	// PathSteps is the sample count for the path test.
	PathSteps int
	// MinDistanceKm drops records reporting a shorter link distance.
	MinDistanceKm float64
	// IonosphericOnly keeps only records passing the plausibility rules.
	IonosphericOnly bool
}

// DefaultFilterConfig admits either endpoint at the recovered sampling
// density, with no distance floor.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		Endpoint:  EndpointEither,
		PathSteps: defaultPathSteps,
	}
}

// FilterRecords applies the configured filters in order: distance floor,
// ionospheric plausibility, then the bounding-box tests. A path crossing the
// box admits a record regardless of endpoint mode.
func FilterRecords(records []model.SignalRecord, cfg FilterConfig) []model.SignalRecord {
	out := make([]model.SignalRecord, 0, len(records))
	for _, r := range records {
		if keepRecord(r, cfg) {
			out = append(out, r)
		}
	}
	return out
}

func keepRecord(r model.SignalRecord, cfg FilterConfig) bool {
	if r.DistanceKm < cfg.MinDistanceKm {
		return false
	}
	if cfg.IonosphericOnly && !core.RecordIonosphericPlausible(r) {
		return false
	}
	if cfg.BBox == nil {
		return true
	}
	box := *cfg.BBox

	tx := model.LatLon{Lat: r.TxLat, Lon: r.TxLon}
	rx := model.LatLon{Lat: r.RxLat, Lon: r.RxLon}

	if cfg.PathThroughBBox && pathHitsBox(tx, rx, box, cfg.PathSteps) {
		return true
	}

	switch cfg.Endpoint {
	case EndpointTx:
		return box.Contains(tx.Lat, tx.Lon)
	case EndpointRx:
		return box.Contains(rx.Lat, rx.Lon)
	case EndpointBoth:
		return box.Contains(tx.Lat, tx.Lon) && box.Contains(rx.Lat, rx.Lon)
	default:
		return box.Contains(tx.Lat, tx.Lon) || box.Contains(rx.Lat, rx.Lon)
	}
}

// pathHitsBox samples the short great-circle path by spherical linear
// interpolation and reports whether any sample falls inside the box.
// Coincident or antipodal-degenerate endpoints collapse to a containment
// test on the start point.
func pathHitsBox(start, end model.LatLon, box model.BoundingBox, steps int) bool {
	if steps < 1 {
		steps = defaultPathSteps
	}
	const degToRad = math.Pi / 180

	lat1 := start.Lat * degToRad
	lon1 := start.Lon * degToRad
	lat2 := end.Lat * degToRad
	lon2 := end.Lon * degToRad

	sinLat1, cosLat1 := math.Sincos(lat1)
	sinLat2, cosLat2 := math.Sincos(lat2)

	cosDelta := sinLat1*sinLat2 + cosLat1*cosLat2*math.Cos(lon2-lon1)
	delta := math.Acos(math.Max(-1, math.Min(1, cosDelta)))
	if delta == 0 {
		return box.Contains(start.Lat, start.Lon)
	}

	sinDelta := math.Sin(delta)
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		a := math.Sin((1-t)*delta) / sinDelta
		b := math.Sin(t*delta) / sinDelta

		x := a*cosLat1*math.Cos(lon1) + b*cosLat2*math.Cos(lon2)
		y := a*cosLat1*math.Sin(lon1) + b*cosLat2*math.Sin(lon2)
		z := a*sinLat1 + b*sinLat2

		lat := math.Atan2(z, math.Sqrt(x*x+y*y)) / degToRad
		lon := math.Mod(math.Atan2(y, x)/degToRad+540, 360) - 180

		if box.Contains(lat, lon) {
			return true
		}
	}
	return false
}
