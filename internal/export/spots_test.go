package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/searcharc/internal/ingest"
	"github.com/signalsfoundry/searcharc/model"
)

// TestWriteSpotsCSVRoundTrip checks that a written spot file loads back
// through the ingestion loader with the same field values.
func TestWriteSpotsCSVRoundTrip(t *testing.T) {
	records := []model.SignalRecord{
		{
			Time:       time.Date(2014, time.March, 7, 18, 26, 0, 0, time.UTC),
			Band:       "14",
			TxSign:     "VK6XT",
			TxLat:      -31.77,
			TxLon:      117.605,
			RxSign:     "JA5NVN",
			RxLat:      34.020833,
			RxLon:      133.5625,
			Frequency:  14097050,
			SNR:        -21,
			Drift:      0,
			Power:      37,
			DistanceKm: 7885,
		},
	}

	var buf bytes.Buffer
	if err := WriteSpotsCSV(&buf, records); err != nil {
		t.Fatalf("WriteSpotsCSV(records): %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("WriteSpotsCSV produced %d lines, want header plus one row", len(lines))
	}
	wantHeader := "time,band,tx_sign,tx_lat,tx_lon,rx_sign,rx_lat,rx_lon,frequency,snr,drift,power,distance"
	if lines[0] != wantHeader {
		t.Fatalf("header = %q, want %q", lines[0], wantHeader)
	}

	loaded, stats, err := ingest.LoadSpots(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("LoadSpots(written CSV): %v", err)
	}
	if stats.Loaded != 1 {
		t.Fatalf("LoadSpots loaded %d records, want 1", stats.Loaded)
	}
	got, want := loaded[0], records[0]
	if !got.Time.Equal(want.Time) {
		t.Fatalf("round-trip Time = %v, want %v", got.Time, want.Time)
	}
	if got.TxSign != want.TxSign || got.RxSign != want.RxSign || got.Band != want.Band {
		t.Fatalf("round-trip identity = %s/%s band %s, want %s/%s band %s",
			got.TxSign, got.RxSign, got.Band, want.TxSign, want.RxSign, want.Band)
	}
	if got.TxLat != want.TxLat || got.TxLon != want.TxLon || got.RxLat != want.RxLat || got.RxLon != want.RxLon {
		t.Fatalf("round-trip coordinates = %v,%v %v,%v, want %v,%v %v,%v",
			got.TxLat, got.TxLon, got.RxLat, got.RxLon,
			want.TxLat, want.TxLon, want.RxLat, want.RxLon)
	}
	if got.Frequency != want.Frequency || got.SNR != want.SNR || got.DistanceKm != want.DistanceKm {
		t.Fatalf("round-trip metrics = %v Hz %v dB %v km, want %v Hz %v dB %v km",
			got.Frequency, got.SNR, got.DistanceKm, want.Frequency, want.SNR, want.DistanceKm)
	}
}

// TestWriteRunJSONRoundTrip checks that a run document survives the
// write/parse cycle the serve command relies on.
func TestWriteRunJSONRoundTrip(t *testing.T) {
	run := &model.Run{
		ID:        "run-roundtrip",
		Label:     "baseline sweep",
		CreatedAt: time.Date(2026, time.August, 25, 10, 0, 0, 0, time.UTC),
		Params:    model.AnalysisParams{CellSizeDeg: 1, TopN: 50, RecordCount: 2},
		Result: &model.AnalysisResult{
			Heatmap:    []model.HeatmapPoint{{Lat: -35.5, Lon: 91.5, Weight: 2.5, Count: 4}},
			Candidates: []model.Candidate{{HeatmapPoint: model.HeatmapPoint{Lat: -35.5, Lon: 91.5, Weight: 2.5, Count: 4}, Rank: 1}},
			Windows:    []time.Time{time.Date(2014, time.March, 7, 18, 26, 0, 0, time.UTC)},
		},
	}

	var buf bytes.Buffer
	if err := WriteRunJSON(&buf, run); err != nil {
		t.Fatalf("WriteRunJSON(run): %v", err)
	}

	var got model.Run
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal(written run): %v", err)
	}
	if got.ID != run.ID || got.Label != run.Label {
		t.Fatalf("round-trip run = %s %q, want %s %q", got.ID, got.Label, run.ID, run.Label)
	}
	if !got.CreatedAt.Equal(run.CreatedAt) {
		t.Fatalf("round-trip CreatedAt = %v, want %v", got.CreatedAt, run.CreatedAt)
	}
	if got.Result == nil || len(got.Result.Candidates) != 1 {
		t.Fatalf("round-trip Result = %+v, want one candidate", got.Result)
	}
	if got.Result.Candidates[0].Rank != 1 || got.Result.Candidates[0].Weight != 2.5 {
		t.Fatalf("round-trip candidate = %+v, want rank 1 weight 2.5", got.Result.Candidates[0])
	}
}
