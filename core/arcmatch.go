package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/searcharc/model"
	"github.com/signalsfoundry/searcharc/timewin"
)

// MatchConfig gates the ring/time matcher.
type MatchConfig struct {
	// Window is the maximum |record time - ping time| for a record to be
	// held against a ring.
	Window time.Duration
	// MaxDistanceKm is the largest curve-to-ring miss that still matches.
	MaxDistanceKm float64
	// CurveSteps is the propagation curve sampling resolution.
	CurveSteps    int
	EarthRadiusKm float64
}

// DefaultMatchConfig returns the standard gating constants.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Window:        20 * time.Minute,
		MaxDistanceKm: 250,
		CurveSteps:    64,
		EarthRadiusKm: AuthalicEarthRadiusKm,
	}
}

// MatchRecords holds every anomalous record against the rings. A record
// matches a ring when it was observed within the window of the ring's ping
// time and its short or long propagation curve passes within MaxDistanceKm
// of the ring; the closer curve names the path. Rings are tried in order and
// the first match claims the record. The second return lists the distinct
// two-minute windows of the matched records, sorted ascending.
func MatchRecords(scored []model.ScoredRecord, rings []model.Ring, cfg MatchConfig) ([]model.ArcMatch, []time.Time) {
	var matches []model.ArcMatch
	var windows []time.Time

	for _, rec := range scored {
		if !rec.Anomalous {
			continue
		}
		start := model.LatLon{Lat: rec.TxLat, Lon: rec.TxLon}
		end := model.LatLon{Lat: rec.RxLat, Lon: rec.RxLon}

		// Curves are sampled on first use and shared across rings.
		var short, long []model.LatLon
		for _, ring := range rings {
			if ring.Time.IsZero() {
				continue
			}
			dt := rec.Time.Sub(ring.Time)
			if dt < 0 {
				dt = -dt
			}
			if dt > cfg.Window {
				continue
			}
			if short == nil {
				short = GreatCirclePoints(start, end, cfg.CurveSteps)
				long = GreatCircleLongPath(start, end, cfg.CurveSteps)
			}

			miss, path := curveRingMissKm(short, ring, cfg.EarthRadiusKm), model.PathShort
			if longMiss := curveRingMissKm(long, ring, cfg.EarthRadiusKm); longMiss < miss {
				miss, path = longMiss, model.PathLong
			}
			if miss > cfg.MaxDistanceKm {
				continue
			}

			window := timewin.Floor(rec.Time)
			matches = append(matches, model.ArcMatch{
				Record:        rec,
				RingID:        ring.ID,
				RingTime:      ring.Time,
				RingRadiusKm:  ring.RadiusKm,
				MinDistanceKm: miss,
				Path:          path,
				Window:        window,
			})
			windows = append(windows, window)
			break
		}
	}
	return matches, timewin.Dedupe(windows)
}

// curveRingMissKm returns the smallest |distance-to-center - radius| over
// the sampled curve points.
func curveRingMissKm(points []model.LatLon, ring model.Ring, earthRadiusKm float64) float64 {
	best := math.Inf(1)
	for _, p := range points {
		d := HaversineKm(ring.Center.Lat, ring.Center.Lon, p.Lat, p.Lon, earthRadiusKm)
		if miss := math.Abs(d - ring.RadiusKm); miss < best {
			best = miss
		}
	}
	return best
}
