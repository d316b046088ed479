package wsprlive

import (
	"testing"

	"github.com/signalsfoundry/searcharc/model"
)

func spotRecord(sign string, txLat, txLon, rxLat, rxLon, distanceKm float64) model.SignalRecord {
	return model.SignalRecord{
		Band:       "14",
		TxSign:     sign,
		TxLat:      txLat,
		TxLon:      txLon,
		RxSign:     sign,
		RxLat:      rxLat,
		RxLon:      rxLon,
		DistanceKm: distanceKm,
	}
}

func bandRecord(sign, band string, distanceKm float64) model.SignalRecord {
	r := spotRecord(sign, 5, 5, 6, 6, distanceKm)
	r.Band = band
	return r
}

func signs(records []model.SignalRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.TxSign
	}
	return out
}

// TestFilterRecordsEndpointModes exercises each endpoint mode against a box
// covering 0..10 degrees on both axes.
func TestFilterRecordsEndpointModes(t *testing.T) {
	box := &model.BoundingBox{LatMin: 0, LatMax: 10, LonMin: 0, LonMax: 10}
	records := []model.SignalRecord{
		spotRecord("TXIN", 5, 5, 40, 40, 1000),
		spotRecord("RXIN", 40, 40, 5, 5, 1000),
		spotRecord("BOTH", 5, 5, 6, 6, 1000),
		spotRecord("NONE", 40, 40, 50, 50, 1000),
	}

	tests := []struct {
		endpoint string
		want     []string
	}{
		{EndpointTx, []string{"TXIN", "BOTH"}},
		{EndpointRx, []string{"RXIN", "BOTH"}},
		{EndpointBoth, []string{"BOTH"}},
		{EndpointEither, []string{"TXIN", "RXIN", "BOTH"}},
		{"", []string{"TXIN", "RXIN", "BOTH"}},
	}
	for _, tt := range tests {
		cfg := DefaultFilterConfig()
		cfg.BBox = box
		cfg.Endpoint = tt.endpoint

		got := FilterRecords(records, cfg)
		if len(got) != len(tt.want) {
			t.Fatalf("endpoint %q kept %v, want %v", tt.endpoint, signs(got), tt.want)
		}
		for i := range got {
			if got[i].TxSign != tt.want[i] {
				t.Fatalf("endpoint %q kept %v, want %v", tt.endpoint, signs(got), tt.want)
			}
		}
	}
}

// TestFilterRecordsMinDistance drops records under the distance floor and
// keeps the boundary value.
func TestFilterRecordsMinDistance(t *testing.T) {
	records := []model.SignalRecord{
		spotRecord("SHORT", 5, 5, 6, 6, 100),
		spotRecord("EDGE", 5, 5, 6, 6, 500),
		spotRecord("LONG", 5, 5, 6, 6, 900),
	}

	cfg := DefaultFilterConfig()
	cfg.MinDistanceKm = 500

	got := FilterRecords(records, cfg)
	if len(got) != 2 || got[0].TxSign != "EDGE" || got[1].TxSign != "LONG" {
		t.Fatalf("FilterRecords kept %v, want [EDGE LONG]", signs(got))
	}
}

// TestFilterRecordsIonosphericOnly keeps only records whose band and distance
// fit a plausible ionospheric hop.
func TestFilterRecordsIonosphericOnly(t *testing.T) {
	records := []model.SignalRecord{
		bandRecord("HFLONG", "20", 5000),
		bandRecord("HFSHORT", "20", 100),
		bandRecord("SIXMID", "50", 1000),
		bandRecord("SIXFAR", "50", 3000),
	}

	cfg := DefaultFilterConfig()
	cfg.IonosphericOnly = true

	got := FilterRecords(records, cfg)
	if len(got) != 2 || got[0].TxSign != "HFLONG" || got[1].TxSign != "SIXMID" {
		t.Fatalf("FilterRecords kept %v, want [HFLONG SIXMID]", signs(got))
	}
}

// TestFilterRecordsPathThroughBox admits a link whose great-circle path
// crosses the box even though both endpoints sit outside it.
func TestFilterRecordsPathThroughBox(t *testing.T) {
	box := &model.BoundingBox{LatMin: -5, LatMax: 5, LonMin: -5, LonMax: 5}
	crossing := []model.SignalRecord{spotRecord("CROSS", 0, -20, 0, 20, 4400)}

	cfg := DefaultFilterConfig()
	cfg.BBox = box
	cfg.Endpoint = EndpointBoth

	if got := FilterRecords(crossing, cfg); len(got) != 0 {
		t.Fatalf("endpoint filter kept %v without the path test", signs(got))
	}

	cfg.PathThroughBBox = true
	if got := FilterRecords(crossing, cfg); len(got) != 1 {
		t.Fatalf("path test rejected a link crossing the box")
	}
}

// TestPathHitsBox samples the great-circle path, including the degenerate
// zero-length case and a crossing of the antimeridian.
func TestPathHitsBox(t *testing.T) {
	tests := []struct {
		name  string
		start model.LatLon
		end   model.LatLon
		box   model.BoundingBox
		want  bool
	}{
		{
			name:  "equatorial crossing",
			start: model.LatLon{Lat: 0, Lon: -20},
			end:   model.LatLon{Lat: 0, Lon: 20},
			box:   model.BoundingBox{LatMin: -5, LatMax: 5, LonMin: -5, LonMax: 5},
			want:  true,
		},
		{
			name:  "misses northern box",
			start: model.LatLon{Lat: 0, Lon: -20},
			end:   model.LatLon{Lat: 0, Lon: 20},
			box:   model.BoundingBox{LatMin: 40, LatMax: 50, LonMin: -5, LonMax: 5},
			want:  false,
		},
		{
			name:  "degenerate point inside",
			start: model.LatLon{Lat: 5, Lon: 5},
			end:   model.LatLon{Lat: 5, Lon: 5},
			box:   model.BoundingBox{LatMin: 0, LatMax: 10, LonMin: 0, LonMax: 10},
			want:  true,
		},
		{
			name:  "degenerate point outside",
			start: model.LatLon{Lat: 40, Lon: 40},
			end:   model.LatLon{Lat: 40, Lon: 40},
			box:   model.BoundingBox{LatMin: 0, LatMax: 10, LonMin: 0, LonMax: 10},
			want:  false,
		},
		{
			name:  "antimeridian crossing",
			start: model.LatLon{Lat: 0, Lon: 160},
			end:   model.LatLon{Lat: 0, Lon: -160},
			box:   model.BoundingBox{LatMin: -5, LatMax: 5, LonMin: 170, LonMax: 180},
			want:  true,
		},
	}
	for _, tt := range tests {
		if got := pathHitsBox(tt.start, tt.end, tt.box, 96); got != tt.want {
			t.Fatalf("pathHitsBox %s = %v, want %v", tt.name, got, tt.want)
		}
	}
}
