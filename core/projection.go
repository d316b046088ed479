package core

import (
	"math"

	"github.com/signalsfoundry/searcharc/model"
)

// XY is a 2D plot coordinate.
type XY struct {
	X float64
	Y float64
}

// RenderRequest is the explicit, immutable view description the rendering
// layer passes in on every invocation: view center, zoom scale, and canvas
// translate/flip parameters. The projection keeps no state of its own.
type RenderRequest struct {
	Center     model.LatLon
	Scale      float64
	TranslateX float64
	TranslateY float64
	// FlipY inverts the vertical axis for screen-style coordinate systems
	// where y grows downward.
	FlipY bool
}

// Project maps a geographic point through the orthographic projection for
// this view. The second return is false when the point lies on the far
// hemisphere (cosine of the angular distance to the view center is
// negative); callers must treat that as "not drawable", never as an error.
func (r RenderRequest) Project(lat, lon float64) (XY, bool) {
	phi := lat * deg2Rad
	lambda := lon * deg2Rad
	phi0 := r.Center.Lat * deg2Rad
	lambda0 := r.Center.Lon * deg2Rad

	cosC := math.Sin(phi0)*math.Sin(phi) + math.Cos(phi0)*math.Cos(phi)*math.Cos(lambda-lambda0)
	if cosC < 0 {
		return XY{}, false
	}

	x := r.Scale * math.Cos(phi) * math.Sin(lambda-lambda0)
	y := r.Scale * (math.Cos(phi0)*math.Sin(phi) - math.Sin(phi0)*math.Cos(phi)*math.Cos(lambda-lambda0))

	out := XY{X: r.TranslateX + x}
	if r.FlipY {
		out.Y = r.TranslateY - y
	} else {
		out.Y = r.TranslateY + y
	}
	return out, true
}

// ProjectPath maps a point sequence through Project and splits it into the
// visible polyline segments, dropping far-hemisphere stretches. A segment is
// emitted only when it contains at least two consecutive visible points.
func (r RenderRequest) ProjectPath(points []model.LatLon) [][]XY {
	var segments [][]XY
	var current []XY

	flush := func() {
		if len(current) >= 2 {
			segments = append(segments, current)
		}
		current = nil
	}

	for _, p := range points {
		xy, ok := r.Project(p.Lat, p.Lon)
		if !ok {
			flush()
			continue
		}
		current = append(current, xy)
	}
	flush()
	return segments
}
