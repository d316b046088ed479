package model

import "time"

// AnalysisParams captures the externally supplied configuration of one
// analysis run, for reproducibility and display.
type AnalysisParams struct {
	CellSizeDeg         float64      `json:"cell_size_deg"`
	TopN                int          `json:"top_n"`
	BBox                *BoundingBox `json:"bbox,omitempty"`
	RingToleranceKm     float64      `json:"ring_tolerance_km,omitempty"`
	CorridorToleranceKm float64      `json:"corridor_tolerance_km,omitempty"`
	UseEllipsoidal      bool         `json:"use_ellipsoidal"`
	AnomalousOnly       bool         `json:"anomalous_only"`
	RecordCount         int          `json:"record_count"`
}

// AnalysisResult bundles everything one run produced.
type AnalysisResult struct {
	Heatmap    []HeatmapPoint
	Candidates []Candidate
	Rings      []Ring
	Matches    []ArcMatch
	Windows    []time.Time
	Path       []PathPoint
}

// Run is a completed analysis held by the run store and served by the API.
type Run struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Params    AnalysisParams
	Result    *AnalysisResult
}
