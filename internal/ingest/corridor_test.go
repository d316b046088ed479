package ingest

import (
	"strings"
	"testing"
)

// LineString and MultiLineString features become corridor polylines in
// lat,lon order; other geometry types are ignored.
func TestLoadCorridor(t *testing.T) {
	payload := `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[100.0, 0.0], [101.0, 1.0]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "MultiLineString", "coordinates": [[[10.0, 2.0], [11.0, 3.0]], [[20.0, 4.0], [21.0, 5.0]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [5.0, 6.0]}}
  ]
}`

	corridor, err := LoadCorridor(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("LoadCorridor: %v", err)
	}
	if len(corridor.Lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3", len(corridor.Lines))
	}

	first := corridor.Lines[0]
	if len(first) != 2 || first[0].Lat != 0 || first[0].Lon != 100 {
		t.Fatalf("first line = %+v, want lat,lon swapped from GeoJSON order", first)
	}
	if corridor.Lines[2][1].Lat != 5 || corridor.Lines[2][1].Lon != 21 {
		t.Fatalf("last line end = %+v", corridor.Lines[2][1])
	}
	if corridor.Empty() {
		t.Fatalf("corridor with %d lines reported empty", len(corridor.Lines))
	}
}

// Collections without line features decode to an empty corridor, and broken
// JSON is a decode error.
func TestLoadCorridorDegenerate(t *testing.T) {
	empty := `{"type": "FeatureCollection", "features": []}`
	corridor, err := LoadCorridor(strings.NewReader(empty))
	if err != nil {
		t.Fatalf("LoadCorridor on empty collection: %v", err)
	}
	if !corridor.Empty() {
		t.Fatalf("empty collection produced corridor %+v", corridor)
	}

	if _, err := LoadCorridor(strings.NewReader("not json")); err == nil {
		t.Fatalf("LoadCorridor on malformed input: expected error")
	}
}
