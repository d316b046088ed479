package ingest

import (
	"fmt"
	"io"

	geojson "github.com/paulmach/go.geojson"

	"github.com/signalsfoundry/searcharc/model"
)

// LoadCorridor reads a GeoJSON FeatureCollection and extracts its LineString
// and MultiLineString features as corridor polylines. Other geometry types
// are ignored; positions follow the GeoJSON lon,lat order.
func LoadCorridor(r io.Reader) (model.Corridor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Corridor{}, fmt.Errorf("LoadCorridor: read failed: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return model.Corridor{}, fmt.Errorf("LoadCorridor: decode failed: %w", err)
	}

	var corridor model.Corridor
	for _, feature := range fc.Features {
		geom := feature.Geometry
		if geom == nil {
			continue
		}
		switch {
		case geom.IsLineString():
			appendLine(&corridor, geom.LineString)
		case geom.IsMultiLineString():
			for _, line := range geom.MultiLineString {
				appendLine(&corridor, line)
			}
		}
	}
	return corridor, nil
}

func appendLine(corridor *model.Corridor, positions [][]float64) {
	line := make([]model.LatLon, 0, len(positions))
	for _, pos := range positions {
		if len(pos) < 2 {
			continue
		}
		line = append(line, model.LatLon{Lat: pos[1], Lon: pos[0]})
	}
	if len(line) >= 2 {
		corridor.Lines = append(corridor.Lines, line)
	}
}
