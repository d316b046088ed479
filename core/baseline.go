package core

import (
	"math"
	"strings"

	"github.com/signalsfoundry/searcharc/model"
)

// BaselineConfig controls baseline selection and anomaly flagging.
type BaselineConfig struct {
	// ZThreshold is the |z| at or above which a metric flags its record.
	ZThreshold float64
	// MinGroupCount is the minimum sample count for a per-link baseline;
	// smaller groups fall back to the per-band baseline.
	MinGroupCount int
	// IncludeRare flags records that produced no z-score at all when their
	// link or sender is itself rare.
	IncludeRare  bool
	RareGroupMax int
	RareTxMax    int
}

// DefaultBaselineConfig returns the standard detection thresholds.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{
		ZThreshold:    3.5,
		MinGroupCount: 5,
		RareGroupMax:  1,
		RareTxMax:     1,
	}
}

// BaselineKey identifies one directed propagation link on one band.
type BaselineKey struct {
	Tx   string
	Rx   string
	Band string
}

// MetricBaseline is the robust location/spread summary of one metric.
type MetricBaseline struct {
	Median float64
	MAD    float64
	// OK is false when no values were seen for the metric.
	OK bool
}

func (m MetricBaseline) z(v float64) (float64, bool) {
	if !m.OK {
		return 0, false
	}
	return RobustZ(v, m.Median, m.MAD)
}

// Baseline summarizes the SNR, frequency and drift distributions of one
// record group.
type Baseline struct {
	Count int
	SNR   MetricBaseline
	Freq  MetricBaseline
	Drift MetricBaseline
}

// Baselines carries link- and band-level summaries plus the occurrence
// counts used for rare-link handling.
type Baselines struct {
	Groups      map[BaselineKey]Baseline
	Bands       map[string]Baseline
	GroupCounts map[BaselineKey]int
	TxCounts    map[string]int
}

type baselineAcc struct {
	snr   []float64
	freq  []float64
	drift []float64
}

func (a *baselineAcc) add(r model.SignalRecord) {
	a.snr = append(a.snr, r.SNR)
	a.freq = append(a.freq, r.Frequency)
	a.drift = append(a.drift, r.Drift)
}

func (a *baselineAcc) summarize() Baseline {
	count := len(a.snr)
	if len(a.freq) > count {
		count = len(a.freq)
	}
	if len(a.drift) > count {
		count = len(a.drift)
	}
	return Baseline{
		Count: count,
		SNR:   summarizeMetric(a.snr),
		Freq:  summarizeMetric(a.freq),
		Drift: summarizeMetric(a.drift),
	}
}

func summarizeMetric(values []float64) MetricBaseline {
	med, ok := Median(values)
	if !ok {
		return MetricBaseline{}
	}
	mad, _ := MAD(values, med)
	return MetricBaseline{Median: med, MAD: mad, OK: true}
}

// BuildBaselines computes per-link and per-band baselines over the records.
func BuildBaselines(records []model.SignalRecord) Baselines {
	groups := make(map[BaselineKey]*baselineAcc)
	bands := make(map[string]*baselineAcc)
	groupCounts := make(map[BaselineKey]int)
	txCounts := make(map[string]int)

	for _, r := range records {
		key := BaselineKey{Tx: r.TxSign, Rx: r.RxSign, Band: r.Band}
		groupCounts[key]++
		txCounts[r.TxSign]++

		g := groups[key]
		if g == nil {
			g = &baselineAcc{}
			groups[key] = g
		}
		g.add(r)

		b := bands[r.Band]
		if b == nil {
			b = &baselineAcc{}
			bands[r.Band] = b
		}
		b.add(r)
	}

	out := Baselines{
		Groups:      make(map[BaselineKey]Baseline, len(groups)),
		Bands:       make(map[string]Baseline, len(bands)),
		GroupCounts: groupCounts,
		TxCounts:    txCounts,
	}
	for key, acc := range groups {
		out.Groups[key] = acc.summarize()
	}
	for band, acc := range bands {
		out.Bands[band] = acc.summarize()
	}
	return out
}

// Pick selects the baseline for a key: the link's own when it has enough
// samples, the band's otherwise. The returned level is one of the
// model.Baseline* constants.
func (b Baselines) Pick(key BaselineKey, minGroupCount int) (Baseline, string) {
	if g, ok := b.Groups[key]; ok && g.Count >= minGroupCount {
		return g, model.BaselineGroup
	}
	if band, ok := b.Bands[key.Band]; ok {
		return band, model.BaselineBand
	}
	return Baseline{}, model.BaselineNone
}

// ScoreRecords annotates every record with robust z-scores against its
// baseline and the resulting anomaly decision. A record is anomalous when
// any metric's |z| reaches the threshold, or, with IncludeRare set, when it
// produced no threshold crossing and its link or sender occurs at most the
// configured number of times.
func ScoreRecords(records []model.SignalRecord, bases Baselines, cfg BaselineConfig) []model.ScoredRecord {
	scored := make([]model.ScoredRecord, 0, len(records))
	for _, r := range records {
		key := BaselineKey{Tx: r.TxSign, Rx: r.RxSign, Band: r.Band}
		base, level := bases.Pick(key, cfg.MinGroupCount)

		s := model.ScoredRecord{SignalRecord: r, BaselineLevel: level}
		if level != model.BaselineNone {
			s.SNRZ, s.HasSNRZ = base.SNR.z(r.SNR)
			s.FreqZ, s.HasFreqZ = base.Freq.z(r.Frequency)
			s.DriftZ, s.HasDriftZ = base.Drift.z(r.Drift)
		}

		var reasons []string
		if s.HasSNRZ && math.Abs(s.SNRZ) >= cfg.ZThreshold {
			reasons = append(reasons, "snr")
		}
		if s.HasFreqZ && math.Abs(s.FreqZ) >= cfg.ZThreshold {
			reasons = append(reasons, "frequency")
		}
		if s.HasDriftZ && math.Abs(s.DriftZ) >= cfg.ZThreshold {
			reasons = append(reasons, "drift")
		}
		if len(reasons) == 0 && cfg.IncludeRare {
			if bases.GroupCounts[key] <= cfg.RareGroupMax {
				reasons = append(reasons, "rare_group")
			}
			if bases.TxCounts[r.TxSign] <= cfg.RareTxMax {
				reasons = append(reasons, "rare_tx")
			}
		}

		for _, z := range []struct {
			val float64
			ok  bool
		}{
			{s.SNRZ, s.HasSNRZ},
			{s.FreqZ, s.HasFreqZ},
			{s.DriftZ, s.HasDriftZ},
		} {
			if z.ok && math.Abs(z.val) > s.Score {
				s.Score = math.Abs(z.val)
			}
		}

		s.Anomalous = len(reasons) > 0
		s.Reason = strings.Join(reasons, "+")
		scored = append(scored, s)
	}
	return scored
}

// AnomalousOnly filters scored records down to the flagged subset.
func AnomalousOnly(scored []model.ScoredRecord) []model.ScoredRecord {
	out := make([]model.ScoredRecord, 0, len(scored))
	for _, s := range scored {
		if s.Anomalous {
			out = append(out, s)
		}
	}
	return out
}
