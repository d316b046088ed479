package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/searcharc/core"
	"github.com/signalsfoundry/searcharc/internal/config"
	"github.com/signalsfoundry/searcharc/internal/export"
	"github.com/signalsfoundry/searcharc/internal/ingest"
	"github.com/signalsfoundry/searcharc/internal/logging"
	"github.com/signalsfoundry/searcharc/internal/observability"
	"github.com/signalsfoundry/searcharc/model"
)

var (
	analyzeRecords   string
	analyzeAnnotated bool
	analyzeArcs      string
	analyzeCorridor  string
	analyzeTLE       string
	analyzeBBox      string
	analyzeLabel     string
	analyzeOut       string
	analyzeCellDeg   float64
	analyzeTop       int
	analyzeAnomOnly  bool
	analyzeIonoOnly  bool
	analyzeRingPrior bool
	analyzeInferPath bool
	analyzeFitCorr   bool
	analyzePathStart string
	analyzePathEnd   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the full analysis over a spot CSV",
	Long: `Analyze scores the records against their link baselines, spreads the
anomalous ones over the grid and writes the heatmap, candidate shortlist,
timing rings, ring matches, activity windows and optionally an inferred
track into the output directory, together with the complete run document
the serve command loads.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAnalyze(cmd.Context()); err != nil {
			fail(err)
		}
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeRecords, "records", "", "spot CSV to analyze (required)")
	f.BoolVar(&analyzeAnnotated, "annotated", false, "records file is an annotated shortlist export")
	f.StringVar(&analyzeArcs, "arcs", "", "arc metadata JSON with timing rings")
	f.StringVar(&analyzeCorridor, "corridor", "", "corridor GeoJSON constraining the grid")
	f.StringVar(&analyzeTLE, "tle", "", "satellite TLE file resolving arc centers")
	f.StringVar(&analyzeBBox, "bbox", "", "grid bounding box latMin,latMax,lonMin,lonMax")
	f.StringVar(&analyzeLabel, "label", "", "label stored with the run")
	f.StringVarP(&analyzeOut, "out", "o", "out", "output directory")
	f.Float64Var(&analyzeCellDeg, "cell-deg", 0, "grid cell size in degrees (default from config)")
	f.IntVar(&analyzeTop, "top", 0, "candidate shortlist length (default from config)")
	f.BoolVar(&analyzeAnomOnly, "anomalous-only", false, "sample and match only anomalous records")
	f.BoolVar(&analyzeIonoOnly, "ionospheric-only", false, "drop records implausible as ionospheric propagation")
	f.BoolVar(&analyzeRingPrior, "ring-prior", false, "restrict grid samples to ring neighborhoods")
	f.BoolVar(&analyzeInferPath, "infer-path", false, "estimate a track inside the bbox")
	f.BoolVar(&analyzeFitCorr, "fit-corridor", false, "refine ring radii against the corridor points")
	f.StringVar(&analyzePathStart, "path-start", "", "inferred track start time")
	f.StringVar(&analyzePathEnd, "path-end", "", "inferred track end time")
	_ = analyzeCmd.MarkFlagRequired("records")
}

func runAnalyze(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, log)

	records, stats, err := loadRecords(analyzeRecords, collector)
	if err != nil {
		return err
	}
	log.Info(ctx, "loaded spot records",
		logging.String("path", analyzeRecords),
		logging.Int("rows", stats.Rows),
		logging.Int("loaded", stats.Loaded),
		logging.Int("skipped", stats.Skipped))

	eph, err := loadEphemeris(analyzeTLE)
	if err != nil {
		return err
	}

	var specs []model.RingSpec
	cal := core.DefaultRingCalibration()
	if analyzeArcs != "" {
		fh, err := os.Open(analyzeArcs)
		if err != nil {
			return fmt.Errorf("open %s: %w", analyzeArcs, err)
		}
		specs, cal, err = ingest.LoadRingSpecs(fh, eph)
		fh.Close()
		if err != nil {
			return err
		}
		log.Info(ctx, "loaded timing arcs", logging.String("path", analyzeArcs), logging.Int("rings", len(specs)))
	}

	var corridor model.Corridor
	if analyzeCorridor != "" {
		fh, err := os.Open(analyzeCorridor)
		if err != nil {
			return fmt.Errorf("open %s: %w", analyzeCorridor, err)
		}
		corridor, err = ingest.LoadCorridor(fh)
		fh.Close()
		if err != nil {
			return err
		}
	}

	box, err := parseBBox(analyzeBBox)
	if err != nil {
		return err
	}
	if analyzeInferPath && box == nil {
		return fmt.Errorf("--infer-path requires --bbox")
	}

	in := core.PipelineInput{
		Label:     analyzeLabel,
		Records:   records,
		RingSpecs: specs,
		Corridor:  corridor,
		BBox:      box,
	}
	if analyzeFitCorr {
		in.FitPoints = corridorPoints(corridor)
	}
	if analyzePathStart != "" {
		if in.PathStart, err = parseTimeFlag(analyzePathStart); err != nil {
			return err
		}
	}
	if analyzePathEnd != "" {
		if in.PathEnd, err = parseTimeFlag(analyzePathEnd); err != nil {
			return err
		}
	}

	pipeline := core.NewPipeline(pipelineConfig(cfg, cal))
	pipeline.RegisterStageListener(func(ev core.StageEvent) {
		collector.ObserveStage(ev.Stage, ev.Duration)
		if ev.Stage == core.StageGrid {
			collector.AddSamples("accepted", ev.Out)
			collector.AddSamples("rejected", ev.In-ev.Out)
		}
		log.Debug(ctx, "pipeline stage done",
			logging.String("stage", ev.Stage),
			logging.Int("in", ev.In),
			logging.Int("out", ev.Out),
			logging.Duration("duration", ev.Duration))
	})

	run := pipeline.Run(ctx, in)
	collector.IncRuns()

	ctx, log = logging.WithRunLogger(ctx, log, run.ID)
	log.Info(ctx, "analysis complete",
		logging.Int("heatmap_cells", len(run.Result.Heatmap)),
		logging.Int("candidates", len(run.Result.Candidates)),
		logging.Int("matches", len(run.Result.Matches)),
		logging.Int("windows", len(run.Result.Windows)))

	if err := writeOutputs(analyzeOut, run, corridor); err != nil {
		return err
	}
	log.Info(ctx, "outputs written", logging.String("dir", analyzeOut))
	return nil
}

// pipelineConfig maps the flat configuration and the analyze flags onto the
// pipeline tuning.
func pipelineConfig(cfg config.Config, cal model.RingCalibration) core.PipelineConfig {
	pcfg := core.DefaultPipelineConfig()
	pcfg.Baseline.ZThreshold = cfg.ZThreshold
	pcfg.Baseline.MinGroupCount = cfg.MinGroupCount
	pcfg.Weights.HopDistanceKm = cfg.HopDistanceKm
	cal.UseEllipsoidal = cfg.UseEllipsoidal
	pcfg.Calibration = cal
	pcfg.Grid.CellSizeDeg = cfg.GridCellDeg
	pcfg.Grid.RingToleranceKm = cfg.RingToleranceKm
	pcfg.Grid.CorridorToleranceKm = cfg.CorridorToleranceKm
	pcfg.TopCandidates = cfg.TopCandidates
	if analyzeCellDeg > 0 {
		pcfg.Grid.CellSizeDeg = analyzeCellDeg
	}
	if analyzeTop > 0 {
		pcfg.TopCandidates = analyzeTop
	}
	pcfg.AnomalousOnly = analyzeAnomOnly
	pcfg.IonosphericOnly = analyzeIonoOnly
	pcfg.RingPrior = analyzeRingPrior
	pcfg.InferPath = analyzeInferPath
	return pcfg
}

// loadRecords reads the records file in either the spot or the annotated
// shortlist layout.
func loadRecords(path string, collector *observability.Collector) ([]model.SignalRecord, ingest.LoadStats, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, ingest.LoadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	if analyzeAnnotated {
		scored, stats, err := ingest.LoadAnnotatedSpots(fh)
		if err != nil {
			return nil, stats, err
		}
		records := make([]model.SignalRecord, len(scored))
		for i, sr := range scored {
			records[i] = sr.SignalRecord
		}
		collector.AddIngested("annotated", stats.Loaded)
		return records, stats, nil
	}

	records, stats, err := ingest.LoadSpots(fh)
	if err != nil {
		return nil, stats, err
	}
	collector.AddIngested("csv", stats.Loaded)
	return records, stats, nil
}

// loadEphemeris builds a satellite ephemeris from a TLE file. A leading name
// line is tolerated; the last two lines are taken as the element set.
func loadEphemeris(path string) (*core.Ephemeris, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("tle %s: want two element lines", path)
	}
	return core.NewEphemerisFromTLE(lines[len(lines)-2], lines[len(lines)-1]), nil
}

// corridorPoints flattens the corridor lines for ring-radius fitting.
func corridorPoints(c model.Corridor) []model.LatLon {
	var pts []model.LatLon
	for _, line := range c.Lines {
		pts = append(pts, line...)
	}
	return pts
}

// artifact pairs an output file name with its writer.
type artifact struct {
	name  string
	write func(io.Writer) error
}

// writeOutputs writes every artifact of the run into dir, creating it first.
// The corridor and path files appear only when there is something to write.
func writeOutputs(dir string, run *model.Run, corridor model.Corridor) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	res := run.Result
	artifacts := []artifact{
		{"heatmap.json", func(w io.Writer) error { return export.WriteHeatmapJSON(w, res.Heatmap) }},
		{"candidates.json", func(w io.Writer) error { return export.WriteCandidatesJSON(w, res.Candidates) }},
		{"candidates.csv", func(w io.Writer) error { return export.WriteCandidatesCSV(w, res.Candidates) }},
		{"rings.geojson", func(w io.Writer) error { return export.WriteRingsGeoJSON(w, res.Rings) }},
		{"matches.csv", func(w io.Writer) error { return export.WriteMatchesCSV(w, res.Matches) }},
		{"windows.txt", func(w io.Writer) error { return export.WriteWindows(w, res.Windows) }},
		{"run.json", func(w io.Writer) error { return export.WriteRunJSON(w, run) }},
	}
	if !corridor.Empty() {
		artifacts = append(artifacts, artifact{
			"corridor.geojson", func(w io.Writer) error { return export.WriteCorridorGeoJSON(w, corridor) },
		})
	}
	if len(res.Path) > 0 {
		artifacts = append(artifacts,
			artifact{"path.geojson", func(w io.Writer) error { return export.WritePathGeoJSON(w, res.Path) }},
			artifact{"path.csv", func(w io.Writer) error { return export.WritePathCSV(w, res.Path) }})
	}
	for _, art := range artifacts {
		if err := writeArtifact(filepath.Join(dir, art.name), art.write); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifact(path string, write func(io.Writer) error) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
