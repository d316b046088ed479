package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/searcharc/internal/config"
	"github.com/signalsfoundry/searcharc/internal/logging"
	"github.com/signalsfoundry/searcharc/model"
)

// flagTimeLayout is the spot-database timestamp format accepted on the
// command line; RFC 3339 is tried first.
const flagTimeLayout = "2006-01-02 15:04:05"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "searcharc",
	Short: "Estimate plausible ground tracks from propagation anomalies",
	Long: `Searcharc analyzes archived radio propagation spots against satellite
burst-timing arcs. It flags spots that deviate from their link baselines,
spreads their plausible reflection points over a geographic grid and ranks
the cells into candidate positions, optionally constrained by timing rings
and a drift corridor.

Typical flow:

  searcharc fetch --bands 14 -o spots.csv
  searcharc analyze --records spots.csv --arcs arcs.json -o out
  searcharc serve --run out/run.json`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an optional config file")
	rootCmd.AddCommand(fetchCmd, analyzeCmd, serveCmd)
}

// setup loads the configuration and builds the logger the subcommands share.
func setup() (config.Config, logging.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, log, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// parseBBox reads "latMin,latMax,lonMin,lonMax"; empty input means no box.
func parseBBox(s string) (*model.BoundingBox, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox %q: want latMin,latMax,lonMin,lonMax", s)
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bbox %q: %w", s, err)
		}
		vals[i] = v
	}
	box := &model.BoundingBox{LatMin: vals[0], LatMax: vals[1], LonMin: vals[2], LonMax: vals[3]}
	if box.LatMin > box.LatMax {
		return nil, fmt.Errorf("bbox %q: latMin exceeds latMax", s)
	}
	return box, nil
}

// parseTimeFlag accepts RFC 3339 or the spot-database layout, read as UTC.
func parseTimeFlag(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(flagTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("time %q: want RFC 3339 or %q", s, flagTimeLayout)
	}
	return t, nil
}
