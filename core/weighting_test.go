package core

import (
	"testing"

	"github.com/signalsfoundry/searcharc/model"
)

// Worked example: sender (0,90), receiver (0,92), SNR -20 on a band with
// median -10 and no reported distance. The record carries weight
// 2 * 2.333 = 4.667 to the great-circle midpoint (0,91).
func TestWeightingWorkedExample(t *testing.T) {
	rec := model.SignalRecord{
		Band:  "40m",
		TxLat: 0, TxLon: 90,
		RxLat: 0, RxLon: 92,
		SNR: -20,
	}
	records := []model.SignalRecord{
		rec,
		{Band: "40m", SNR: -10},
		{Band: "40m", SNR: -5},
	}

	medians := BandMedianSNR(records)
	if med := medians["40m"]; med != -10 {
		t.Fatalf("band median = %v, want -10", med)
	}

	w := ComputeWeights(rec, medians["40m"], DefaultWeightConfig())
	if w.HopCount != 1 {
		t.Fatalf("HopCount = %d, want 1", w.HopCount)
	}
	if !almostEqual(w.Deviation, 2, 1e-9) {
		t.Fatalf("Deviation = %v, want 2", w.Deviation)
	}
	if !almostEqual(w.SNR, 2.333, 0.001) {
		t.Fatalf("SNR weight = %v, want 2.333", w.SNR)
	}
	if !almostEqual(w.Final, 4.667, 0.001) {
		t.Fatalf("Final = %v, want 4.667", w.Final)
	}

	samples := HopSamples(rec, w)
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if !almostEqual(samples[0].Point.Lat, 0, 1e-9) || !almostEqual(samples[0].Point.Lon, 91, 1e-9) {
		t.Fatalf("midpoint = %+v, want (0, 91)", samples[0].Point)
	}
	if samples[0].Weight != w.Final {
		t.Fatalf("sample weight = %v, want %v", samples[0].Weight, w.Final)
	}
}

// Hop count rounds the reported distance to the nearest hop length, with a
// floor of one hop; missing distance means one hop.
func TestHopCountFromDistance(t *testing.T) {
	cases := []struct {
		distance float64
		want     int
	}{
		{0, 1},
		{-5, 1},
		{999, 1},
		{2000, 1},
		{3000, 2},
		{4100, 2},
		{8000, 4},
		{9001, 5},
	}
	cfg := DefaultWeightConfig()
	for _, tc := range cases {
		rec := model.SignalRecord{SNR: -1, DistanceKm: tc.distance}
		w := ComputeWeights(rec, 0, cfg)
		if w.HopCount != tc.want {
			t.Fatalf("distance %v: HopCount = %d, want %d", tc.distance, w.HopCount, tc.want)
		}
	}
}

// A multi-hop record inserts hopCount-1 interior samples, each at the full
// final weight.
func TestWeightConservationMultiHop(t *testing.T) {
	rec := model.SignalRecord{
		TxLat: 0, TxLon: 0,
		RxLat: 0, RxLon: 80,
		SNR:        -12,
		DistanceKm: 8000,
	}
	w := ComputeWeights(rec, -10, DefaultWeightConfig())
	if w.HopCount != 4 {
		t.Fatalf("HopCount = %d, want 4", w.HopCount)
	}

	samples := HopSamples(rec, w)
	if len(samples) != w.HopCount-1 {
		t.Fatalf("len(samples) = %d, want %d", len(samples), w.HopCount-1)
	}
	var total float64
	for _, s := range samples {
		if s.Weight != w.Final {
			t.Fatalf("sample weight = %v, want %v", s.Weight, w.Final)
		}
		total += s.Weight
	}
	if !almostEqual(total, w.Final*float64(w.HopCount-1), 1e-9) {
		t.Fatalf("total inserted weight = %v, want %v", total, w.Final*float64(w.HopCount-1))
	}
	// Interior samples at 1/4, 2/4, 3/4 along the equatorial arc.
	for i, wantLon := range []float64{20, 40, 60} {
		if !almostEqual(samples[i].Point.Lon, wantLon, 1e-6) {
			t.Fatalf("sample %d at lon %v, want %v", i, samples[i].Point.Lon, wantLon)
		}
	}
}

// Non-negative SNR keeps the SNR factor at one; large deviations are capped.
func TestWeightFactorsBounds(t *testing.T) {
	cfg := DefaultWeightConfig()

	w := ComputeWeights(model.SignalRecord{SNR: 5}, 0, cfg)
	if w.SNR != 1 {
		t.Fatalf("positive SNR weight = %v, want 1", w.SNR)
	}

	w = ComputeWeights(model.SignalRecord{SNR: 30}, -10, cfg)
	if !almostEqual(w.Deviation, 1+cfg.DeviationCap, 1e-9) {
		t.Fatalf("capped deviation = %v, want %v", w.Deviation, 1+cfg.DeviationCap)
	}
}

// Coincident endpoints still contribute exactly once.
func TestHopSamplesCoincidentEndpoints(t *testing.T) {
	rec := model.SignalRecord{
		TxLat: -31.9, TxLon: 115.8,
		RxLat: -31.9, RxLon: 115.8,
		SNR: -7,
	}
	w := ComputeWeights(rec, -7, DefaultWeightConfig())
	samples := HopSamples(rec, w)
	if len(samples) != 1 {
		t.Fatalf("len(samples) = %d, want 1", len(samples))
	}
	if samples[0].Point != (model.LatLon{Lat: -31.9, Lon: 115.8}) {
		t.Fatalf("sample point = %+v, want the shared endpoint", samples[0].Point)
	}
	if samples[0].Weight != w.Final {
		t.Fatalf("sample weight = %v, want %v", samples[0].Weight, w.Final)
	}
}
