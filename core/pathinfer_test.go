package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/searcharc/model"
)

func pathRecord(txLat, txLon, rxLat, rxLon float64, at time.Time, anomalous bool) model.ScoredRecord {
	rec := model.ScoredRecord{}
	rec.Time = at
	rec.TxLat, rec.TxLon = txLat, txLon
	rec.RxLat, rec.RxLon = rxLat, rxLon
	rec.Anomalous = anomalous
	return rec
}

// TestInferPath crosses an east-west propagation curve with a north-south one
// inside the box. The crossing cell collects a sample from each record, every
// other cell only one, so the estimate lands on the crossing. The middle step
// has no records in its window and must come back invalid.
func TestInferPath(t *testing.T) {
	t0 := time.Date(2014, 3, 7, 20, 0, 0, 0, time.UTC)
	bbox := model.BoundingBox{LatMin: -10, LatMax: 10, LonMin: 80, LonMax: 100}

	records := []model.ScoredRecord{
		// Not anomalous: would otherwise shift the first estimate to lon 95.
		pathRecord(-4.99, 95.21, 5.01, 95.21, t0, false),
		pathRecord(0.01, 60.21, 0.01, 120.21, t0, true),
		pathRecord(-4.99, 90.21, 5.01, 90.21, t0.Add(30*time.Second), true),
		pathRecord(-5.01, 85.51, 4.99, 85.51, t0.Add(4*time.Minute+45*time.Second), true),
	}

	points := InferPath(records, bbox, t0, t0.Add(4*time.Minute), DefaultInferPathConfig())
	if len(points) != 3 {
		t.Fatalf("InferPath returned %d points, want 3", len(points))
	}

	first := points[0]
	if !first.Valid {
		t.Fatalf("first point invalid, want valid")
	}
	if !first.Time.Equal(t0) {
		t.Fatalf("first point time = %v, want %v", first.Time, t0)
	}
	if !almostEqual(first.Lat, 0.025, 1e-9) || !almostEqual(first.Lon, 90.225, 1e-9) {
		t.Fatalf("first point = (%.6f, %.6f), want (0.025, 90.225)", first.Lat, first.Lon)
	}
	if first.Count != 2 {
		t.Fatalf("first point count = %d, want 2", first.Count)
	}

	if points[1].Valid {
		t.Fatalf("middle point valid, want invalid: no records near %v", points[1].Time)
	}
	if !points[1].Time.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("middle point time = %v, want %v", points[1].Time, t0.Add(2*time.Minute))
	}

	// The last window holds a single north-south record. Its curve endpoints
	// sit inside the box, so the start cell is hit by both arcs and wins.
	last := points[2]
	if !last.Valid {
		t.Fatalf("last point invalid, want valid")
	}
	if !almostEqual(last.Lat, -5.025, 1e-9) || !almostEqual(last.Lon, 85.525, 1e-9) {
		t.Fatalf("last point = (%.6f, %.6f), want (-5.025, 85.525)", last.Lat, last.Lon)
	}
	if last.Count != 2 {
		t.Fatalf("last point count = %d, want 2", last.Count)
	}
}

// TestInferPathNoRecords checks that an empty record set still produces one
// point per step, all invalid.
func TestInferPathNoRecords(t *testing.T) {
	t0 := time.Date(2014, 3, 7, 20, 0, 0, 0, time.UTC)
	bbox := model.BoundingBox{LatMin: -10, LatMax: 10, LonMin: 80, LonMax: 100}

	points := InferPath(nil, bbox, t0, t0.Add(6*time.Minute), DefaultInferPathConfig())
	if len(points) != 4 {
		t.Fatalf("InferPath returned %d points, want 4", len(points))
	}
	for i, p := range points {
		if p.Valid {
			t.Fatalf("point %d valid, want invalid", i)
		}
	}

	points = InferPath(nil, bbox, t0.Add(time.Hour), t0, DefaultInferPathConfig())
	if len(points) != 0 {
		t.Fatalf("reversed range returned %d points, want 0", len(points))
	}
}

// TestSmoothPath verifies the three-point moving average on a fully valid
// track, including the shorter averages at both ends.
func TestSmoothPath(t *testing.T) {
	t0 := time.Date(2014, 3, 7, 20, 0, 0, 0, time.UTC)
	points := []model.PathPoint{
		{Time: t0, Lat: 10, Lon: 100, Count: 3, Valid: true},
		{Time: t0.Add(2 * time.Minute), Lat: 12, Lon: 104, Count: 5, Valid: true},
		{Time: t0.Add(4 * time.Minute), Lat: 20, Lon: 112, Count: 1, Valid: true},
	}

	smoothed := SmoothPath(points)
	if len(smoothed) != 3 {
		t.Fatalf("SmoothPath returned %d points, want 3", len(smoothed))
	}
	wants := []model.LatLon{
		{Lat: 11, Lon: 102},
		{Lat: 14, Lon: 105.0 + 1.0/3.0},
		{Lat: 16, Lon: 108},
	}
	for i, want := range wants {
		if !almostEqual(smoothed[i].Lat, want.Lat, 1e-9) || !almostEqual(smoothed[i].Lon, want.Lon, 1e-9) {
			t.Fatalf("point %d = (%.6f, %.6f), want (%.6f, %.6f)",
				i, smoothed[i].Lat, smoothed[i].Lon, want.Lat, want.Lon)
		}
	}
	if smoothed[1].Count != 5 {
		t.Fatalf("smoothing changed count to %d, want 5", smoothed[1].Count)
	}
	if points[1].Lat != 12 {
		t.Fatalf("SmoothPath modified its input: lat = %v", points[1].Lat)
	}
}

// TestSmoothPathPreservesGaps checks that invalid points stay invalid and do
// not pull their neighbors toward zero.
func TestSmoothPathPreservesGaps(t *testing.T) {
	t0 := time.Date(2014, 3, 7, 20, 0, 0, 0, time.UTC)
	points := []model.PathPoint{
		{Time: t0, Lat: 10, Lon: 100, Valid: true},
		{Time: t0.Add(2 * time.Minute)},
		{Time: t0.Add(4 * time.Minute), Lat: 20, Lon: 112, Valid: true},
	}

	smoothed := SmoothPath(points)
	if smoothed[1].Valid {
		t.Fatalf("gap point became valid")
	}
	if !almostEqual(smoothed[0].Lat, 10, 1e-9) || !almostEqual(smoothed[0].Lon, 100, 1e-9) {
		t.Fatalf("point 0 = (%.6f, %.6f), want unchanged (10, 100)", smoothed[0].Lat, smoothed[0].Lon)
	}
	if !almostEqual(smoothed[2].Lat, 20, 1e-9) || !almostEqual(smoothed[2].Lon, 112, 1e-9) {
		t.Fatalf("point 2 = (%.6f, %.6f), want unchanged (20, 112)", smoothed[2].Lat, smoothed[2].Lon)
	}

	if out := SmoothPath(nil); len(out) != 0 {
		t.Fatalf("SmoothPath(nil) returned %d points, want 0", len(out))
	}
}
