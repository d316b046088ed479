package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/searcharc/model"
)

// spotTimeLayout is the timestamp format emitted by the spot database CSV.
const spotTimeLayout = "2006-01-02 15:04:05"

// spotColumns is the fixed column layout of a headerless spot CSV.
const spotColumns = 13

// LoadStats summarizes what a loader did with its input rows.
type LoadStats struct {
	// Rows counts data rows seen, header excluded.
	Rows int
	// Loaded counts rows converted into records.
	Loaded int
	// Skipped counts rows dropped for malformed fields or failed validation.
	Skipped int
}

// LoadSpots reads signal records from a spot-database CSV export. The layout
// is headerless with columns time, band, tx_sign, tx_lat, tx_lon, rx_sign,
// rx_lat, rx_lon, frequency, snr, drift, power, distance; a leading header
// row is detected and skipped. Malformed rows are counted, not fatal; only
// unreadable or fully empty input returns an error.
func LoadSpots(r io.Reader) ([]model.SignalRecord, LoadStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var (
		records []model.SignalRecord
		stats   LoadStats
		sawRow  bool
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			sawRow = true
			stats.Rows++
			stats.Skipped++
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("LoadSpots: read failed: %w", err)
		}

		if !sawRow {
			sawRow = true
			if isSpotHeader(row) {
				continue
			}
		}

		stats.Rows++
		rec, ok := parseSpotRow(row)
		if !ok {
			stats.Skipped++
			continue
		}
		if rec.Validate() != nil {
			stats.Skipped++
			continue
		}
		records = append(records, rec)
		stats.Loaded++
	}

	if !sawRow {
		return nil, stats, errors.New("LoadSpots: empty input")
	}
	return records, stats, nil
}

// isSpotHeader reports whether a first row names columns instead of carrying
// data. The export tooling sometimes prepends one.
func isSpotHeader(row []string) bool {
	for _, field := range row {
		switch strings.TrimSpace(field) {
		case "time", "band":
			return true
		}
	}
	return false
}

func parseSpotRow(row []string) (model.SignalRecord, bool) {
	if len(row) < spotColumns {
		return model.SignalRecord{}, false
	}

	at, err := time.ParseInLocation(spotTimeLayout, strings.TrimSpace(row[0]), time.UTC)
	if err != nil {
		return model.SignalRecord{}, false
	}

	vals := make([]float64, 0, 9)
	for _, idx := range []int{3, 4, 6, 7, 8, 9, 10, 11, 12} {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return model.SignalRecord{}, false
		}
		vals = append(vals, v)
	}

	return model.SignalRecord{
		Time:       at,
		Band:       strings.TrimSpace(row[1]),
		TxSign:     strings.TrimSpace(row[2]),
		TxLat:      vals[0],
		TxLon:      vals[1],
		RxSign:     strings.TrimSpace(row[5]),
		RxLat:      vals[2],
		RxLon:      vals[3],
		Frequency:  vals[4],
		SNR:        vals[5],
		Drift:      vals[6],
		Power:      vals[7],
		DistanceKm: vals[8],
	}, true
}

// LoadAnnotatedSpots reads the archived-spot CSV produced by the offline
// annotation toolchain. Positions come as Maidenhead locators (the 6-char
// column preferred over the 4-char one), frequency is in MHz, and the
// "SNR 1.0 SD Anom" column carries a precomputed anomaly flag. Rows without
// decodable locators or a parseable timestamp are skipped and counted.
func LoadAnnotatedSpots(r io.Reader) ([]model.ScoredRecord, LoadStats, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, LoadStats{}, errors.New("LoadAnnotatedSpots: empty input")
	}
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("LoadAnnotatedSpots: read header failed: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols["UTC"]; !ok {
		return nil, LoadStats{}, errors.New("LoadAnnotatedSpots: missing UTC column")
	}

	var (
		records []model.ScoredRecord
		stats   LoadStats
	)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			stats.Rows++
			stats.Skipped++
			continue
		}
		if err != nil {
			return nil, stats, fmt.Errorf("LoadAnnotatedSpots: read failed: %w", err)
		}

		stats.Rows++
		rec, ok := parseAnnotatedRow(row, cols)
		if !ok {
			stats.Skipped++
			continue
		}
		records = append(records, rec)
		stats.Loaded++
	}
	return records, stats, nil
}

func parseAnnotatedRow(row []string, cols map[string]int) (model.ScoredRecord, bool) {
	field := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	utc := field("UTC")
	if utc == "" {
		return model.ScoredRecord{}, false
	}
	at, err := time.ParseInLocation(spotTimeLayout, utc, time.UTC)
	if err != nil {
		at, err = time.Parse(time.RFC3339, utc)
		if err != nil {
			return model.ScoredRecord{}, false
		}
		at = at.UTC()
	}

	txGrid := firstNonEmpty(field("Tx Grid 6ch"), field("Tx Grid"))
	rxGrid := firstNonEmpty(field("Rx Grid 6ch"), field("Rx Grid"))
	if txGrid == "" || rxGrid == "" {
		return model.ScoredRecord{}, false
	}
	tx, err := GridCenter(txGrid)
	if err != nil {
		return model.ScoredRecord{}, false
	}
	rx, err := GridCenter(rxGrid)
	if err != nil {
		return model.ScoredRecord{}, false
	}

	rec := model.SignalRecord{
		Time:   at,
		Band:   field("Band"),
		TxSign: field("Tx"),
		TxLat:  tx.Lat,
		TxLon:  tx.Lon,
		RxSign: field("Rx"),
		RxLat:  rx.Lat,
		RxLon:  rx.Lon,
	}
	for _, numeric := range []struct {
		name string
		dst  *float64
		// scale converts the column unit into the record unit.
		scale float64
	}{
		{"SNR", &rec.SNR, 1},
		{"Frequency", &rec.Frequency, 1e6},
		{"Drift", &rec.Drift, 1},
		{"Distance", &rec.DistanceKm, 1},
	} {
		raw := field(numeric.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.ScoredRecord{}, false
		}
		*numeric.dst = v * numeric.scale
	}
	if rec.Validate() != nil {
		return model.ScoredRecord{}, false
	}

	scored := model.ScoredRecord{SignalRecord: rec}
	if field("SNR 1.0 SD Anom") == "1" {
		scored.Anomalous = true
		scored.Reason = "snr"
	}
	return scored, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
