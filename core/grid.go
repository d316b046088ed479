package core

import (
	"math"
	"sort"

	"github.com/signalsfoundry/searcharc/model"
)

// DefaultTopCandidates is the candidate list length when none is requested.
const DefaultTopCandidates = 50

// GridConfig configures the spatial aggregator and its admission filters.
// Absent filters (nil box, no rings, empty corridor) admit everything.
type GridConfig struct {
	CellSizeDeg float64
	// BBox rejects samples outside the box when set.
	BBox *model.BoundingBox
	// Rings keep only samples whose distance to some ring center is within
	// RingToleranceKm of that ring's radius.
	Rings           []model.Ring
	RingToleranceKm float64
	// Corridor keeps only samples within CorridorToleranceKm of one of its
	// segments.
	Corridor            model.Corridor
	CorridorToleranceKm float64
	EarthRadiusKm       float64
}

// DefaultGridConfig returns an unfiltered one-degree grid.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		CellSizeDeg:         1,
		RingToleranceKm:     250,
		CorridorToleranceKm: 50,
		EarthRadiusKm:       AuthalicEarthRadiusKm,
	}
}

// GridStats counts sample admission outcomes.
type GridStats struct {
	Accepted         int
	RejectedBBox     int
	RejectedRing     int
	RejectedCorridor int
}

// Grid accumulates weighted samples into fixed-size cells. Not safe for
// concurrent use.
type Grid struct {
	cfg   GridConfig
	cells map[model.CellKey]*model.GridCell
	order []model.CellKey
	stats GridStats
}

// NewGrid builds an empty grid for the configuration.
func NewGrid(cfg GridConfig) *Grid {
	if cfg.CellSizeDeg <= 0 {
		cfg.CellSizeDeg = 1
	}
	if cfg.EarthRadiusKm <= 0 {
		cfg.EarthRadiusKm = AuthalicEarthRadiusKm
	}
	return &Grid{
		cfg:   cfg,
		cells: make(map[model.CellKey]*model.GridCell),
	}
}

// Add offers one weighted sample to the grid. The filters run in order:
// bounding box, ring proximity, corridor proximity. The return reports
// whether the sample was accepted into a cell.
func (g *Grid) Add(lat, lon, weight float64) bool {
	if g.cfg.BBox != nil && !g.cfg.BBox.Contains(lat, lon) {
		g.stats.RejectedBBox++
		return false
	}
	if !g.nearAnyRing(lat, lon) {
		g.stats.RejectedRing++
		return false
	}
	if !g.nearCorridor(lat, lon) {
		g.stats.RejectedCorridor++
		return false
	}

	key := model.CellKey{
		LatIdx: int(math.Floor((lat + 90) / g.cfg.CellSizeDeg)),
		LonIdx: int(math.Floor((lon + 180) / g.cfg.CellSizeDeg)),
	}
	cell := g.cells[key]
	if cell == nil {
		cell = &model.GridCell{Key: key}
		g.cells[key] = cell
		g.order = append(g.order, key)
	}
	cell.LatSum += lat * weight
	cell.LonSum += lon * weight
	cell.Weight += weight
	cell.Count++
	g.stats.Accepted++
	return true
}

func (g *Grid) nearAnyRing(lat, lon float64) bool {
	if len(g.cfg.Rings) == 0 {
		return true
	}
	for _, ring := range g.cfg.Rings {
		d := HaversineKm(ring.Center.Lat, ring.Center.Lon, lat, lon, g.cfg.EarthRadiusKm)
		if math.Abs(d-ring.RadiusKm) <= g.cfg.RingToleranceKm {
			return true
		}
	}
	return false
}

func (g *Grid) nearCorridor(lat, lon float64) bool {
	if g.cfg.Corridor.Empty() {
		return true
	}
	for _, line := range g.cfg.Corridor.Lines {
		for i := 0; i+1 < len(line); i++ {
			if pointToSegmentKm(lat, lon, line[i], line[i+1], g.cfg.EarthRadiusKm) <= g.cfg.CorridorToleranceKm {
				return true
			}
		}
	}
	return false
}

// pointToSegmentKm approximates the distance from a point to a segment in a
// local equirectangular frame centered on the point.
func pointToSegmentKm(lat, lon float64, a, b model.LatLon, radiusKm float64) float64 {
	kmPerDeg := radiusKm * math.Pi / 180
	cosLat := math.Cos(lat * deg2Rad)

	ax := NormalizeLonDeg(a.Lon-lon) * kmPerDeg * cosLat
	ay := (a.Lat - lat) * kmPerDeg
	bx := NormalizeLonDeg(b.Lon-lon) * kmPerDeg * cosLat
	by := (b.Lat - lat) * kmPerDeg

	dx := bx - ax
	dy := by - ay
	segLen2 := dx*dx + dy*dy
	if segLen2 == 0 {
		return math.Hypot(ax, ay)
	}
	t := -(ax*dx + ay*dy) / segLen2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(ax+t*dx, ay+t*dy)
}

// Stats returns the admission counters.
func (g *Grid) Stats() GridStats {
	return g.stats
}

// Heatmap returns one point per populated cell, centroids at full precision,
// in cell insertion order.
func (g *Grid) Heatmap() []model.HeatmapPoint {
	out := make([]model.HeatmapPoint, 0, len(g.order))
	for _, key := range g.order {
		cell := g.cells[key]
		centroid := cell.Centroid()
		out = append(out, model.HeatmapPoint{
			Lat:    centroid.Lat,
			Lon:    centroid.Lon,
			Weight: cell.Weight,
			Count:  cell.Count,
		})
	}
	return out
}

// Candidates returns the top-n cells by weight, ranked from one. Ties keep
// cell insertion order. Non-positive n means DefaultTopCandidates.
func (g *Grid) Candidates(n int) []model.Candidate {
	if n <= 0 {
		n = DefaultTopCandidates
	}
	points := g.Heatmap()
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Weight > points[j].Weight
	})
	if len(points) > n {
		points = points[:n]
	}
	out := make([]model.Candidate, len(points))
	for i, p := range points {
		out[i] = model.Candidate{HeatmapPoint: p, Rank: i + 1}
	}
	return out
}
