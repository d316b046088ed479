package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/signalsfoundry/searcharc/model"
)

// RoundWeight rounds a cell weight to the published 4-decimal precision.
// The analysis core keeps full precision; rounding happens only at this
// output boundary.
func RoundWeight(w float64) float64 {
	return math.Round(w*1e4) / 1e4
}

// WriteHeatmapJSON writes the populated cells as a JSON array of
// lat/lon/weight/count objects with weights rounded to 4 decimals.
func WriteHeatmapJSON(w io.Writer, points []model.HeatmapPoint) error {
	out := make([]model.HeatmapPoint, len(points))
	for i, p := range points {
		p.Weight = RoundWeight(p.Weight)
		out[i] = p
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("WriteHeatmapJSON: encode failed: %w", err)
	}
	return nil
}

// WriteCandidatesJSON writes the ranked shortlist as a JSON array, weights
// rounded as in WriteHeatmapJSON.
func WriteCandidatesJSON(w io.Writer, candidates []model.Candidate) error {
	out := make([]model.Candidate, len(candidates))
	for i, c := range candidates {
		c.Weight = RoundWeight(c.Weight)
		out[i] = c
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("WriteCandidatesJSON: encode failed: %w", err)
	}
	return nil
}

// WriteCandidatesCSV writes the ranked shortlist with rank, position,
// rounded weight and sample count per row.
func WriteCandidatesCSV(w io.Writer, candidates []model.Candidate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"rank", "lat", "lon", "weight", "count"}); err != nil {
		return fmt.Errorf("WriteCandidatesCSV: write failed: %w", err)
	}
	for _, c := range candidates {
		row := []string{
			strconv.Itoa(c.Rank),
			formatCoord(c.Lat),
			formatCoord(c.Lon),
			strconv.FormatFloat(RoundWeight(c.Weight), 'f', 4, 64),
			strconv.Itoa(c.Count),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteCandidatesCSV: write failed: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteCandidatesCSV: flush failed: %w", err)
	}
	return nil
}

func formatCoord(v float64) string  { return strconv.FormatFloat(v, 'f', 6, 64) }
func formatNumber(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
