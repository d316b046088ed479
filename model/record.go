package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRecord is returned by SignalRecord.Validate for records that must
// not reach the analysis core.
var ErrInvalidRecord = errors.New("invalid signal record")

// SignalRecord is one observed transmission event: a sender/receiver pair
// with signal quality metrics. Immutable once parsed.
type SignalRecord struct {
	Time   time.Time
	Band   string
	TxSign string
	TxLat  float64
	TxLon  float64
	RxSign string
	RxLat  float64
	RxLon  float64

	// Frequency is the reported carrier frequency in Hz.
	Frequency float64
	// SNR is the reported signal-to-noise ratio in dB.
	SNR float64
	// Drift is the reported frequency drift in Hz/min.
	Drift float64
	// Power is the reported transmit power in dBm.
	Power float64
	// DistanceKm is the reported great-circle sender-receiver distance.
	// Zero when the source did not report one.
	DistanceKm float64
}

// Validate checks the numeric fields the core assumes are well-formed.
// Records failing validation are dropped at the ingestion boundary.
func (r SignalRecord) Validate() error {
	for _, c := range []struct {
		name string
		val  float64
	}{
		{"tx_lat", r.TxLat},
		{"tx_lon", r.TxLon},
		{"rx_lat", r.RxLat},
		{"rx_lon", r.RxLon},
		{"snr", r.SNR},
	} {
		if math.IsNaN(c.val) || math.IsInf(c.val, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidRecord, c.name)
		}
	}
	if r.TxLat < -90 || r.TxLat > 90 || r.RxLat < -90 || r.RxLat > 90 {
		return fmt.Errorf("%w: latitude out of [-90,90]", ErrInvalidRecord)
	}
	if r.TxLon < -180 || r.TxLon > 180 || r.RxLon < -180 || r.RxLon > 180 {
		return fmt.Errorf("%w: longitude out of [-180,180]", ErrInvalidRecord)
	}
	return nil
}

// BandMHz derives a numeric band frequency in MHz. Band identifiers from the
// spot database are plain MHz numbers ("7", "14"); when the identifier is not
// numeric the reported frequency is used instead. The second return is false
// when neither source yields a value.
func (r SignalRecord) BandMHz() (float64, bool) {
	if v, err := strconv.ParseFloat(strings.TrimSpace(r.Band), 64); err == nil {
		return v, true
	}
	if r.Frequency > 0 {
		return r.Frequency / 1e6, true
	}
	return 0, false
}

// BaselineLevel identifies which statistical baseline scored a record.
const (
	BaselineGroup = "group"
	BaselineBand  = "band"
	BaselineNone  = "none"
)

// ScoredRecord annotates a SignalRecord with robust z-scores against its
// propagation baseline and the resulting anomaly decision.
type ScoredRecord struct {
	SignalRecord

	BaselineLevel string
	// Robust z-scores per metric. Zero with the matching Has flag false when
	// the baseline could not produce one (missing values or zero MAD).
	SNRZ      float64
	HasSNRZ   bool
	FreqZ     float64
	HasFreqZ  bool
	DriftZ    float64
	HasDriftZ bool

	// Score is the largest available |z|.
	Score     float64
	Anomalous bool
	// Reason lists the metrics that crossed the threshold, e.g. "snr+drift".
	Reason string
}
