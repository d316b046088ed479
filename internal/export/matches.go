package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/signalsfoundry/searcharc/model"
)

// timeColumnLayout is the UTC timestamp format of the archived toolchain's
// CSV outputs.
const timeColumnLayout = "2006-01-02 15:04:05"

// matchColumns is the candidate-shortlist column order. Positions are
// decoded degrees; the locator text they came from is not retained.
var matchColumns = []string{
	"utc", "band", "tx", "rx",
	"tx_lat", "tx_lon", "rx_lat", "rx_lon",
	"snr", "freq_mhz", "drift", "distance_km",
	"arc_id", "arc_time", "arc_radius_km", "min_dist_to_arc_km", "path",
}

// WriteMatchesCSV writes one row per ring match in the shortlist column
// order.
func WriteMatchesCSV(w io.Writer, matches []model.ArcMatch) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(matchColumns); err != nil {
		return fmt.Errorf("WriteMatchesCSV: write failed: %w", err)
	}
	for _, m := range matches {
		r := m.Record
		row := []string{
			r.Time.UTC().Format(timeColumnLayout),
			r.Band,
			r.TxSign,
			r.RxSign,
			formatCoord(r.TxLat),
			formatCoord(r.TxLon),
			formatCoord(r.RxLat),
			formatCoord(r.RxLon),
			formatNumber(r.SNR),
			strconv.FormatFloat(r.Frequency/1e6, 'f', 6, 64),
			formatNumber(r.Drift),
			formatNumber(r.DistanceKm),
			m.RingID,
			m.RingTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(m.RingRadiusKm, 'f', 2, 64),
			strconv.FormatFloat(m.MinDistanceKm, 'f', 2, 64),
			m.Path,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteMatchesCSV: write failed: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteMatchesCSV: flush failed: %w", err)
	}
	return nil
}

// WritePathCSV writes the inferred ground track, one row per time window.
// Windows with no contributing samples keep their timestamp and count but
// leave the position columns empty.
func WritePathCSV(w io.Writer, path []model.PathPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"utc", "lat", "lon", "count"}); err != nil {
		return fmt.Errorf("WritePathCSV: write failed: %w", err)
	}
	for _, p := range path {
		lat, lon := "", ""
		if p.Valid {
			lat = formatCoord(p.Lat)
			lon = formatCoord(p.Lon)
		}
		row := []string{p.Time.UTC().Format(timeColumnLayout), lat, lon, strconv.Itoa(p.Count)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WritePathCSV: write failed: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WritePathCSV: flush failed: %w", err)
	}
	return nil
}

// WriteWindows writes the observation windows as sorted UTC timestamp
// lines.
func WriteWindows(w io.Writer, windows []time.Time) error {
	sorted := make([]time.Time, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for _, t := range sorted {
		if _, err := fmt.Fprintln(w, t.UTC().Format(timeColumnLayout)); err != nil {
			return fmt.Errorf("WriteWindows: write failed: %w", err)
		}
	}
	return nil
}
