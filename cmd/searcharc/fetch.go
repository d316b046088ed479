package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/searcharc/internal/export"
	"github.com/signalsfoundry/searcharc/internal/logging"
	"github.com/signalsfoundry/searcharc/internal/wsprlive"
)

var (
	fetchStart       string
	fetchEnd         string
	fetchBands       []string
	fetchLimit       int
	fetchURL         string
	fetchBBox        string
	fetchEndpoint    string
	fetchPathBBox    bool
	fetchPathSteps   int
	fetchMinDistance float64
	fetchIonoOnly    bool
	fetchOutput      string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download spot records from the propagation database",
	Long: `Fetch queries the public spot database over its HTTP CSV interface,
applies the geographic and propagation filters and writes the surviving
records as a spot CSV ready for the analyze command.

Without flags the query covers the recovered search window on all bands.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runFetch(cmd.Context()); err != nil {
			fail(err)
		}
	},
}

func init() {
	f := fetchCmd.Flags()
	f.StringVar(&fetchStart, "start", "", "window start, RFC 3339 or \"YYYY-MM-DD HH:MM:SS\" UTC")
	f.StringVar(&fetchEnd, "end", "", "window end")
	f.StringSliceVar(&fetchBands, "bands", nil, "band identifiers to select, e.g. 7,14")
	f.IntVar(&fetchLimit, "limit", 0, "row cap, 0 for no limit")
	f.StringVar(&fetchURL, "url", "", "database base URL (default from config)")
	f.StringVar(&fetchBBox, "bbox", "", "keep records touching latMin,latMax,lonMin,lonMax")
	f.StringVar(&fetchEndpoint, "endpoint", wsprlive.EndpointEither, "endpoint that must fall in the bbox: tx, rx, both or either")
	f.BoolVar(&fetchPathBBox, "path-through-bbox", false, "also keep records whose great-circle path crosses the bbox")
	f.IntVar(&fetchPathSteps, "path-steps", 0, "great-circle sample count for --path-through-bbox")
	f.Float64Var(&fetchMinDistance, "min-distance-km", 0, "drop records below this reported distance")
	f.BoolVar(&fetchIonoOnly, "ionospheric-only", false, "drop records implausible as ionospheric propagation")
	f.StringVarP(&fetchOutput, "output", "o", "", "output CSV path (default stdout)")
}

func runFetch(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	q := wsprlive.DefaultQuery()
	if fetchStart != "" {
		if q.Start, err = parseTimeFlag(fetchStart); err != nil {
			return err
		}
	}
	if fetchEnd != "" {
		if q.End, err = parseTimeFlag(fetchEnd); err != nil {
			return err
		}
	}
	q.Bands = fetchBands
	q.Limit = fetchLimit

	box, err := parseBBox(fetchBBox)
	if err != nil {
		return err
	}
	fcfg := wsprlive.DefaultFilterConfig()
	fcfg.BBox = box
	fcfg.Endpoint = fetchEndpoint
	fcfg.PathThroughBBox = fetchPathBBox
	if fetchPathSteps > 0 {
		fcfg.PathSteps = fetchPathSteps
	}
	fcfg.MinDistanceKm = fetchMinDistance
	fcfg.IonosphericOnly = fetchIonoOnly

	baseURL := cfg.WSPRLiveURL
	if fetchURL != "" {
		baseURL = fetchURL
	}
	client := wsprlive.NewClient(
		wsprlive.WithBaseURL(baseURL),
		wsprlive.WithTimeout(cfg.WSPRLiveTimeout()),
		wsprlive.WithLogger(log),
	)

	records, _, err := client.Fetch(ctx, q)
	if err != nil {
		return err
	}
	kept := wsprlive.FilterRecords(records, fcfg)
	log.Info(ctx, "filtered spot records",
		logging.Int("fetched", len(records)),
		logging.Int("kept", len(kept)))

	out := io.Writer(os.Stdout)
	if fetchOutput != "" {
		fh, err := os.Create(fetchOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", fetchOutput, err)
		}
		defer fh.Close()
		out = fh
	}
	return export.WriteSpotsCSV(out, kept)
}
