package core

import (
	"math"
	"time"

	"github.com/signalsfoundry/searcharc/model"
	"github.com/signalsfoundry/searcharc/timewin"
)

// InferPathConfig controls the fine-grid ground track inference.
type InferPathConfig struct {
	// Step is the spacing of estimated positions.
	Step time.Duration
	// HalfWindow selects records within |record time - step time|.
	HalfWindow time.Duration
	// CurveSteps is the propagation curve sampling resolution.
	CurveSteps int
	// CellDeg is the fine grid resolution inside the bounding box.
	CellDeg float64
}

// DefaultInferPathConfig returns the standard inference resolution.
func DefaultInferPathConfig() InferPathConfig {
	return InferPathConfig{
		Step:       timewin.Width,
		HalfWindow: time.Minute,
		CurveSteps: 120,
		CellDeg:    0.05,
	}
}

// InferPath estimates one position per time step between start and end: the
// center of the fine-grid cell hit most often by the propagation curves
// (both arcs) of the anomalous records observed within HalfWindow of the
// step. Count ties keep the earliest-populated cell. Steps with no in-window
// samples yield invalid points, preserving the gap in the track.
func InferPath(scored []model.ScoredRecord, bbox model.BoundingBox, start, end time.Time, cfg InferPathConfig) []model.PathPoint {
	steps := timewin.Steps(start, end, cfg.Step)
	out := make([]model.PathPoint, 0, len(steps))

	for _, t := range steps {
		counts := make(map[model.CellKey]int)
		var order []model.CellKey

		for _, rec := range scored {
			if !rec.Anomalous {
				continue
			}
			dt := rec.Time.Sub(t)
			if dt < 0 {
				dt = -dt
			}
			if dt > cfg.HalfWindow {
				continue
			}

			s := model.LatLon{Lat: rec.TxLat, Lon: rec.TxLon}
			e := model.LatLon{Lat: rec.RxLat, Lon: rec.RxLon}
			for _, curve := range [][]model.LatLon{
				GreatCirclePoints(s, e, cfg.CurveSteps),
				GreatCircleLongPath(s, e, cfg.CurveSteps),
			} {
				for _, p := range curve {
					if !bbox.Contains(p.Lat, p.Lon) {
						continue
					}
					key := model.CellKey{
						LatIdx: int(math.Floor((p.Lat - bbox.LatMin) / cfg.CellDeg)),
						LonIdx: int(math.Floor((p.Lon - bbox.LonMin) / cfg.CellDeg)),
					}
					if _, seen := counts[key]; !seen {
						order = append(order, key)
					}
					counts[key]++
				}
			}
		}

		if len(order) == 0 {
			out = append(out, model.PathPoint{Time: t})
			continue
		}
		best := order[0]
		for _, key := range order[1:] {
			if counts[key] > counts[best] {
				best = key
			}
		}
		out = append(out, model.PathPoint{
			Time:  t,
			Lat:   bbox.LatMin + (float64(best.LatIdx)+0.5)*cfg.CellDeg,
			Lon:   bbox.LonMin + (float64(best.LonIdx)+0.5)*cfg.CellDeg,
			Count: counts[best],
			Valid: true,
		})
	}
	return out
}

// SmoothPath applies a three-point moving average over valid neighbors.
// Invalid points stay invalid and never contribute, so gaps survive
// smoothing.
func SmoothPath(points []model.PathPoint) []model.PathPoint {
	out := make([]model.PathPoint, len(points))
	copy(out, points)
	for i, p := range points {
		if !p.Valid {
			continue
		}
		var latSum, lonSum float64
		n := 0
		for j := i - 1; j <= i+1; j++ {
			if j < 0 || j >= len(points) || !points[j].Valid {
				continue
			}
			latSum += points[j].Lat
			lonSum += points[j].Lon
			n++
		}
		out[i].Lat = latSum / float64(n)
		out[i].Lon = lonSum / float64(n)
	}
	return out
}
