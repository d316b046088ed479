package model

import "time"

// CellKey addresses a grid cell at a fixed angular resolution.
type CellKey struct {
	LatIdx int
	LonIdx int
}

// GridCell accumulates weighted point insertions. Cells are created on first
// insertion and never deleted.
type GridCell struct {
	Key    CellKey
	LatSum float64
	LonSum float64
	Weight float64
	Count  int
}

// Centroid returns the weighted centroid of the cell. Weight must be
// positive; cells only exist after at least one accepted insertion.
func (c GridCell) Centroid() LatLon {
	return LatLon{Lat: c.LatSum / c.Weight, Lon: c.LonSum / c.Weight}
}

// HeatmapPoint is the read-only view of one populated cell.
type HeatmapPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
}

// Candidate is a ranked heatmap point. Rank is 1-based, descending by
// weight, ties broken by cell insertion order.
type Candidate struct {
	HeatmapPoint
	Rank int `json:"rank"`
}

// Propagation path attribution for an ArcMatch.
const (
	PathShort = "short"
	PathLong  = "long"
)

// ArcMatch records a scored signal whose propagation curve passed close to a
// timing ring inside that ring's observation window.
type ArcMatch struct {
	Record        ScoredRecord
	RingID        string
	RingTime      time.Time
	RingRadiusKm  float64
	MinDistanceKm float64
	// Path is "short" or "long" depending on which great-circle arc came
	// closer to the ring.
	Path string
	// Window is the record time floored to its 2-minute bin.
	Window time.Time
}

// PathPoint is one step of an inferred ground track. Invalid points mark
// time windows with no contributing samples.
type PathPoint struct {
	Time  time.Time
	Lat   float64
	Lon   float64
	Count int
	Valid bool
}
