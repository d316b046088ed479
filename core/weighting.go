package core

import (
	"math"

	"github.com/signalsfoundry/searcharc/model"
)

// WeightConfig carries the weighting heuristics. The divisors and the hop
// distance are domain constants without a documented derivation, so they stay
// configurable rather than hard-coded.
type WeightConfig struct {
	// DeviationDivisor converts dB of SNR deviation from the band median
	// into weight; DeviationCap bounds the contribution.
	DeviationDivisor float64
	DeviationCap     float64
	// SNRDivisor converts dB below zero into weight.
	SNRDivisor float64
	// HopDistanceKm is the assumed ground distance covered per ionospheric
	// hop.
	HopDistanceKm float64
}

// DefaultWeightConfig returns the standard weighting constants.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		DeviationDivisor: 10,
		DeviationCap:     2,
		SNRDivisor:       15,
		HopDistanceKm:    2000,
	}
}

// BandMedianSNR returns the median SNR per band identifier. Records without
// a band identifier share the "" bucket.
func BandMedianSNR(records []model.SignalRecord) map[string]float64 {
	byBand := make(map[string][]float64)
	for _, r := range records {
		byBand[r.Band] = append(byBand[r.Band], r.SNR)
	}
	medians := make(map[string]float64, len(byBand))
	for band, values := range byBand {
		med, _ := Median(values)
		medians[band] = med
	}
	return medians
}

// Weights breaks down one record's grid contribution.
type Weights struct {
	// Deviation grows with |SNR - band median|, capped.
	Deviation float64
	// SNR grows as the report drops below 0 dB.
	SNR float64
	// Hop is 1/HopCount.
	Hop      float64
	HopCount int
	// Final is the product of the three factors.
	Final float64
}

// ComputeWeights evaluates the weighting heuristics for one record against
// its band median SNR.
func ComputeWeights(r model.SignalRecord, bandMedian float64, cfg WeightConfig) Weights {
	dev := math.Abs(r.SNR-bandMedian) / cfg.DeviationDivisor
	if dev > cfg.DeviationCap {
		dev = cfg.DeviationCap
	}
	deviation := 1 + dev

	snr := 1.0
	if r.SNR < 0 {
		snr = 1 + -r.SNR/cfg.SNRDivisor
	}

	hopCount := 1
	if r.DistanceKm > 0 {
		hopCount = int(math.Round(r.DistanceKm / cfg.HopDistanceKm))
		if hopCount < 1 {
			hopCount = 1
		}
	}
	hop := 1.0 / float64(hopCount)

	return Weights{
		Deviation: deviation,
		SNR:       snr,
		Hop:       hop,
		HopCount:  hopCount,
		Final:     deviation * snr * hop,
	}
}

// WeightedPoint is one candidate grid contribution.
type WeightedPoint struct {
	Point  model.LatLon
	Weight float64
}

// HopSamples places a record's contribution along its propagation path.
// Single-hop links contribute once at the great-circle midpoint; multi-hop
// links contribute at each interior hop touchdown, every sample at the full
// final weight. Coincident endpoints collapse to a single sample.
func HopSamples(r model.SignalRecord, w Weights) []WeightedPoint {
	start := model.LatLon{Lat: r.TxLat, Lon: r.TxLon}
	end := model.LatLon{Lat: r.RxLat, Lon: r.RxLon}

	steps := w.HopCount
	if steps < 2 {
		steps = 2
	}
	pts := GreatCirclePoints(start, end, steps)
	if len(pts) == 2 {
		return []WeightedPoint{{Point: pts[0], Weight: w.Final}}
	}
	if w.HopCount <= 1 {
		return []WeightedPoint{{Point: pts[1], Weight: w.Final}}
	}
	samples := make([]WeightedPoint, 0, w.HopCount-1)
	for i := 1; i < len(pts)-1; i++ {
		samples = append(samples, WeightedPoint{Point: pts[i], Weight: w.Final})
	}
	return samples
}
