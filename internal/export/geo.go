package export

import (
	"fmt"
	"io"
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/signalsfoundry/searcharc/model"
)

// RingsFeatureCollection renders materialized rings as closed LineString
// features carrying id, radius_km and time properties.
func RingsFeatureCollection(rings []model.Ring) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, ring := range rings {
		coords := make([][]float64, 0, len(ring.Points))
		for _, p := range ring.Points {
			coords = append(coords, []float64{p.Lon, p.Lat})
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("id", ring.ID)
		f.SetProperty("radius_km", ring.RadiusKm)
		if !ring.Time.IsZero() {
			f.SetProperty("time", ring.Time.UTC().Format(time.RFC3339))
		}
		fc.AddFeature(f)
	}
	return fc
}

// CorridorFeatureCollection renders the corridor polylines as LineString
// features. Degenerate lines are dropped.
func CorridorFeatureCollection(c model.Corridor) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, line := range c.Lines {
		if len(line) < 2 {
			continue
		}
		coords := make([][]float64, 0, len(line))
		for _, p := range line {
			coords = append(coords, []float64{p.Lon, p.Lat})
		}
		fc.AddFeature(geojson.NewLineStringFeature(coords))
	}
	return fc
}

// PathFeatureCollection renders the inferred ground track: one LineString
// through the valid steps, when at least two exist, followed by one Point
// feature per valid step carrying time and count properties.
func PathFeatureCollection(path []model.PathPoint) *geojson.FeatureCollection {
	line := make([][]float64, 0, len(path))
	points := make([]*geojson.Feature, 0, len(path))
	for _, p := range path {
		if !p.Valid {
			continue
		}
		line = append(line, []float64{p.Lon, p.Lat})
		pt := geojson.NewPointFeature([]float64{p.Lon, p.Lat})
		pt.SetProperty("time", p.Time.UTC().Format(time.RFC3339))
		pt.SetProperty("count", p.Count)
		points = append(points, pt)
	}

	fc := geojson.NewFeatureCollection()
	if len(line) >= 2 {
		fc.AddFeature(geojson.NewLineStringFeature(line))
	}
	for _, pt := range points {
		fc.AddFeature(pt)
	}
	return fc
}

// WriteRingsGeoJSON writes the ring collection to w.
func WriteRingsGeoJSON(w io.Writer, rings []model.Ring) error {
	return writeFeatureCollection(w, RingsFeatureCollection(rings))
}

// WriteCorridorGeoJSON writes the corridor collection to w.
func WriteCorridorGeoJSON(w io.Writer, c model.Corridor) error {
	return writeFeatureCollection(w, CorridorFeatureCollection(c))
}

// WritePathGeoJSON writes the inferred track collection to w.
func WritePathGeoJSON(w io.Writer, path []model.PathPoint) error {
	return writeFeatureCollection(w, PathFeatureCollection(path))
}

func writeFeatureCollection(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("export: marshal feature collection: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export: write feature collection: %w", err)
	}
	return nil
}
