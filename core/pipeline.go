package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/searcharc/model"
	"github.com/signalsfoundry/searcharc/timewin"
)

const tracerName = "github.com/signalsfoundry/searcharc/core"

// Stage names reported through StageEvent and used for span naming.
const (
	StageBaseline   = "baseline"
	StageScore      = "score"
	StageFilter     = "filter"
	StageRings      = "rings"
	StageSample     = "sample"
	StageGrid       = "grid"
	StageCandidates = "candidates"
	StageMatch      = "match"
	StagePath       = "path"
)

// StageEvent describes one completed pipeline stage. In and Out count the
// items entering and leaving the stage; their meaning is per stage (records,
// rings, samples, grid cells).
type StageEvent struct {
	Stage    string
	Duration time.Duration
	In       int
	Out      int
}

// PipelineConfig bundles the tunables of a full analysis run. The Grid field
// acts as a template: its data fields (bounding box, rings, corridor) are
// filled from the run input.
type PipelineConfig struct {
	Baseline      BaselineConfig
	Weights       WeightConfig
	Calibration   model.RingCalibration
	Fit           FitOptions
	Grid          GridConfig
	TopCandidates int
	Match         MatchConfig
	Path          InferPathConfig

	// AnomalousOnly restricts sampling, matching and path inference to
	// records flagged anomalous.
	AnomalousOnly bool
	// IonosphericOnly drops records whose band/distance combination cannot
	// be an ionospheric propagation path.
	IonosphericOnly bool
	// RingPrior constrains grid samples to the built rings' neighborhoods.
	RingPrior bool
	// InferPath enables the fine-grid track estimate (needs a bounding box).
	InferPath bool
}

// DefaultPipelineConfig returns the standard analysis tuning.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Baseline:      DefaultBaselineConfig(),
		Weights:       DefaultWeightConfig(),
		Calibration:   DefaultRingCalibration(),
		Fit:           DefaultFitOptions(),
		Grid:          DefaultGridConfig(),
		TopCandidates: DefaultTopCandidates,
		Match:         DefaultMatchConfig(),
		Path:          DefaultInferPathConfig(),
	}
}

// PipelineInput carries the data of one analysis run.
type PipelineInput struct {
	Label   string
	Records []model.SignalRecord
	// RingSpecs must already carry resolved centers; specs without a usable
	// center are expected to have been dropped at ingestion.
	RingSpecs []model.RingSpec
	Corridor  model.Corridor
	BBox      *model.BoundingBox
	// FitPoints refine each ring radius against auxiliary evidence when
	// present.
	FitPoints []model.LatLon
	// PathStart and PathEnd bound the inferred track. Zero values derive
	// the range from the anomalous record times.
	PathStart time.Time
	PathEnd   time.Time
}

// Pipeline runs the analysis stages in a fixed order. Single-threaded; a Run
// over the same input and configuration is deterministic apart from the run
// ID and timestamp.
type Pipeline struct {
	cfg            PipelineConfig
	stageListeners []func(StageEvent)
}

// NewPipeline returns a pipeline with the given tuning.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	return &Pipeline{
		cfg:            cfg,
		stageListeners: []func(StageEvent){},
	}
}

// RegisterStageListener adds fn to the set notified after each completed
// stage, in registration order.
func (p *Pipeline) RegisterStageListener(fn func(StageEvent)) {
	p.stageListeners = append(p.stageListeners, fn)
}

// Run executes the full analysis over the input and returns the completed
// run. Degenerate inputs (no records, no rings, no corridor) produce empty
// results rather than errors.
func (p *Pipeline) Run(ctx context.Context, in PipelineInput) *model.Run {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "analysis.run",
		trace.WithAttributes(attribute.Int("analysis.records", len(in.Records))))
	defer span.End()

	var bases Baselines
	p.stage(ctx, StageBaseline, len(in.Records), func(context.Context) int {
		bases = BuildBaselines(in.Records)
		return len(bases.Groups)
	})

	var scored []model.ScoredRecord
	p.stage(ctx, StageScore, len(in.Records), func(context.Context) int {
		scored = ScoreRecords(in.Records, bases, p.cfg.Baseline)
		anomalous := 0
		for _, rec := range scored {
			if rec.Anomalous {
				anomalous++
			}
		}
		return anomalous
	})

	working := scored
	p.stage(ctx, StageFilter, len(scored), func(context.Context) int {
		if p.cfg.AnomalousOnly {
			working = AnomalousOnly(working)
		}
		if p.cfg.IonosphericOnly {
			kept := make([]model.ScoredRecord, 0, len(working))
			for _, rec := range working {
				if RecordIonosphericPlausible(rec.SignalRecord) {
					kept = append(kept, rec)
				}
			}
			working = kept
		}
		return len(working)
	})

	var rings []model.Ring
	p.stage(ctx, StageRings, len(in.RingSpecs), func(context.Context) int {
		rings = p.buildRings(in)
		return len(rings)
	})

	var samples []WeightedPoint
	p.stage(ctx, StageSample, len(working), func(context.Context) int {
		medians := BandMedianSNR(in.Records)
		for _, rec := range working {
			w := ComputeWeights(rec.SignalRecord, medians[rec.Band], p.cfg.Weights)
			samples = append(samples, HopSamples(rec.SignalRecord, w)...)
		}
		return len(samples)
	})

	gcfg := p.cfg.Grid
	gcfg.BBox = in.BBox
	gcfg.Corridor = in.Corridor
	if p.cfg.RingPrior {
		gcfg.Rings = rings
	}
	grid := NewGrid(gcfg)
	p.stage(ctx, StageGrid, len(samples), func(context.Context) int {
		for _, s := range samples {
			grid.Add(s.Point.Lat, s.Point.Lon, s.Weight)
		}
		return grid.Stats().Accepted
	})

	var heatmap []model.HeatmapPoint
	var candidates []model.Candidate
	p.stage(ctx, StageCandidates, grid.Stats().Accepted, func(context.Context) int {
		heatmap = grid.Heatmap()
		candidates = grid.Candidates(p.cfg.TopCandidates)
		return len(candidates)
	})

	var matches []model.ArcMatch
	var windows []time.Time
	p.stage(ctx, StageMatch, len(working), func(context.Context) int {
		matches, windows = MatchRecords(working, rings, p.cfg.Match)
		return len(matches)
	})

	var path []model.PathPoint
	if p.cfg.InferPath && in.BBox != nil {
		p.stage(ctx, StagePath, len(working), func(context.Context) int {
			start, end := in.PathStart, in.PathEnd
			if start.IsZero() || end.IsZero() {
				start, end = anomalousTimeRange(working)
			}
			if start.IsZero() {
				return 0
			}
			path = SmoothPath(InferPath(working, *in.BBox, start, end, p.cfg.Path))
			valid := 0
			for _, pt := range path {
				if pt.Valid {
					valid++
				}
			}
			return valid
		})
	}

	run := &model.Run{
		ID:        uuid.NewString(),
		Label:     in.Label,
		CreatedAt: time.Now().UTC(),
		Params: model.AnalysisParams{
			CellSizeDeg:         gcfg.CellSizeDeg,
			TopN:                p.cfg.TopCandidates,
			BBox:                in.BBox,
			RingToleranceKm:     gcfg.RingToleranceKm,
			CorridorToleranceKm: gcfg.CorridorToleranceKm,
			UseEllipsoidal:      p.cfg.Calibration.UseEllipsoidal,
			AnomalousOnly:       p.cfg.AnomalousOnly,
			RecordCount:         len(in.Records),
		},
		Result: &model.AnalysisResult{
			Heatmap:    heatmap,
			Candidates: candidates,
			Rings:      rings,
			Matches:    matches,
			Windows:    windows,
			Path:       path,
		},
	}
	span.SetAttributes(attribute.String("analysis.run_id", run.ID))
	return run
}

// stage times fn, wraps it in a child span and notifies the listeners.
func (p *Pipeline) stage(ctx context.Context, name string, in int, fn func(context.Context) int) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "analysis."+name)
	start := time.Now()
	out := fn(ctx)
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("stage.in", in), attribute.Int("stage.out", out))
	span.End()
	for _, listener := range p.stageListeners {
		listener(StageEvent{Stage: name, Duration: elapsed, In: in, Out: out})
	}
}

// buildRings materializes every spec and refines radii against the fit
// points when any are supplied.
func (p *Pipeline) buildRings(in PipelineInput) []model.Ring {
	rings := make([]model.Ring, 0, len(in.RingSpecs))
	for _, spec := range in.RingSpecs {
		ring := BuildRing(spec, p.cfg.Calibration)
		if len(in.FitPoints) > 0 {
			fitted := FitRadiusKm(ring.Center, ring.RadiusKm, in.FitPoints, p.cfg.Fit)
			if fitted != ring.RadiusKm {
				ring = MaterializeRing(ring.ID, ring.Center, fitted, ring.Time, p.cfg.Calibration)
			}
		}
		rings = append(rings, ring)
	}
	return rings
}

// anomalousTimeRange returns the floored window bounds spanning the
// anomalous records, or zero times when there are none.
func anomalousTimeRange(scored []model.ScoredRecord) (time.Time, time.Time) {
	var min, max time.Time
	for _, rec := range scored {
		if !rec.Anomalous || rec.Time.IsZero() {
			continue
		}
		if min.IsZero() || rec.Time.Before(min) {
			min = rec.Time
		}
		if max.IsZero() || rec.Time.After(max) {
			max = rec.Time
		}
	}
	if min.IsZero() {
		return time.Time{}, time.Time{}
	}
	return timewin.Floor(min), timewin.Floor(max)
}

// IonosphericPlausible reports whether a band/distance combination is
// consistent with ionospheric propagation. Bands up to 30 MHz need at least
// 200 km of ground distance. The 45-55 MHz region qualifies only inside the
// 500-2200 km sporadic-E window. Higher bands never qualify.
func IonosphericPlausible(bandMHz, distanceKm float64) bool {
	if distanceKm <= 0 {
		return false
	}
	if bandMHz <= 30 {
		return distanceKm >= 200
	}
	if bandMHz >= 45 && bandMHz <= 55 {
		return distanceKm >= 500 && distanceKm <= 2200
	}
	return false
}

// RecordIonosphericPlausible applies IonosphericPlausible to a record,
// deriving the band frequency from its band identifier or carrier frequency.
func RecordIonosphericPlausible(r model.SignalRecord) bool {
	bandMHz, ok := r.BandMHz()
	if !ok {
		return false
	}
	return IonosphericPlausible(bandMHz, r.DistanceKm)
}
