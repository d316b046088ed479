package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/signalsfoundry/searcharc/internal/export"
	"github.com/signalsfoundry/searcharc/model"
)

type runSummary struct {
	ID           string               `json:"id"`
	Label        string               `json:"label,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	Params       model.AnalysisParams `json:"params"`
	HeatmapCells int                  `json:"heatmap_cells"`
	Candidates   int                  `json:"candidates"`
	Rings        int                  `json:"rings"`
	Matches      int                  `json:"matches"`
	PathPoints   int                  `json:"path_points"`
}

type runDetail struct {
	runSummary
	Windows []time.Time `json:"windows"`
}

func summarize(run *model.Run) runSummary {
	s := runSummary{
		ID:        run.ID,
		Label:     run.Label,
		CreatedAt: run.CreatedAt,
		Params:    run.Params,
	}
	if r := run.Result; r != nil {
		s.HeatmapCells = len(r.Heatmap)
		s.Candidates = len(r.Candidates)
		s.Rings = len(r.Rings)
		s.Matches = len(r.Matches)
		s.PathPoints = len(r.Path)
	}
	return s
}

// resolveRun looks up the run named by the id parameter; "latest" aliases
// the most recent run.
func (s *Server) resolveRun(c *fiber.Ctx) (*model.Run, error) {
	id := c.Params("id")
	if id == "latest" {
		if run := s.store.Latest(); run != nil {
			return run, nil
		}
		return nil, fiber.NewError(fiber.StatusNotFound, "no runs stored")
	}
	run, err := s.store.Get(id)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "run not found")
	}
	return run, nil
}

func (s *Server) handleListRuns(c *fiber.Ctx) error {
	runs := s.store.List()
	out := make([]runSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, summarize(run))
	}
	return c.JSON(out)
}

func (s *Server) handleGetRun(c *fiber.Ctx) error {
	run, err := s.resolveRun(c)
	if err != nil {
		return err
	}
	detail := runDetail{runSummary: summarize(run)}
	if run.Result != nil {
		detail.Windows = run.Result.Windows
	}
	return c.JSON(detail)
}

func (s *Server) handleHeatmap(c *fiber.Ctx) error {
	run, err := s.resolveRun(c)
	if err != nil {
		return err
	}
	points := []model.HeatmapPoint{}
	if run.Result != nil {
		points = make([]model.HeatmapPoint, len(run.Result.Heatmap))
		for i, p := range run.Result.Heatmap {
			p.Weight = export.RoundWeight(p.Weight)
			points[i] = p
		}
	}
	return c.JSON(points)
}

func (s *Server) handleCandidates(c *fiber.Ctx) error {
	run, err := s.resolveRun(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
		}
	}

	out := []model.Candidate{}
	if run.Result != nil {
		candidates := run.Result.Candidates
		if limit > 0 && limit < len(candidates) {
			candidates = candidates[:limit]
		}
		out = make([]model.Candidate, len(candidates))
		for i, cand := range candidates {
			cand.Weight = export.RoundWeight(cand.Weight)
			out[i] = cand
		}
	}
	return c.JSON(out)
}

func (s *Server) handleRingsGeoJSON(c *fiber.Ctx) error {
	run, err := s.resolveRun(c)
	if err != nil {
		return err
	}
	var rings []model.Ring
	if run.Result != nil {
		rings = run.Result.Rings
	}
	return c.JSON(export.RingsFeatureCollection(rings))
}

func (s *Server) handlePathGeoJSON(c *fiber.Ctx) error {
	run, err := s.resolveRun(c)
	if err != nil {
		return err
	}
	var path []model.PathPoint
	if run.Result != nil {
		path = run.Result.Path
	}
	return c.JSON(export.PathFeatureCollection(path))
}
