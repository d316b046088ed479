package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/searcharc/core"
	"github.com/signalsfoundry/searcharc/model"
)

// internal JSON shapes for the arc metadata file; unexported so the on-disk
// format can evolve without touching the model.
type arcFileJSON struct {
	Meta arcMetaJSON    `json:"meta"`
	Arcs []arcEntryJSON `json:"arcs"`
}

type arcMetaJSON struct {
	RangeScale          *float64                 `json:"range_scale"`
	BTOBiasUs           float64                  `json:"bto_bias_us"`
	GroundRangeOffsetKm float64                  `json:"ground_range_offset_km"`
	GroundRangeScale    *float64                 `json:"ground_range_scale"`
	UseWGS84            *bool                    `json:"use_wgs84"`
	SatAltKm            *float64                 `json:"sat_alt_km"`
	CentersByArc        map[string]arcCenterJSON `json:"centers_by_arc"`
}

type arcCenterJSON struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type arcEntryJSON struct {
	ID             string         `json:"id"`
	Channel        string         `json:"channel"`
	BTOUs          float64        `json:"bto_us"`
	RadiusKm       float64        `json:"radius_km"`
	CenterOverride *arcCenterJSON `json:"center_override"`
}

// LoadRingSpecs reads the arc metadata JSON and returns ring specs together
// with the calibration the file's meta block implies. Each arc's center is
// resolved by precedence: an explicit center_override, then the meta
// centers_by_arc entry, then the satellite sub-point at the arc's ping time
// when an ephemeris is supplied. Arcs with no resolvable center are dropped.
// Ping times are joined from the recovered handshake schedule by arc ID.
func LoadRingSpecs(r io.Reader, eph *core.Ephemeris) ([]model.RingSpec, model.RingCalibration, error) {
	var payload arcFileJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, model.RingCalibration{}, fmt.Errorf("LoadRingSpecs: decode failed: %w", err)
	}

	cal := calibrationFromMeta(payload.Meta)
	schedule := core.DefaultPingSchedule()

	specs := make([]model.RingSpec, 0, len(payload.Arcs))
	for _, arc := range payload.Arcs {
		if arc.ID == "" {
			continue
		}
		at := schedule[arc.ID]

		var center model.LatLon
		switch {
		case arc.CenterOverride != nil:
			center = model.LatLon{Lat: arc.CenterOverride.Lat, Lon: arc.CenterOverride.Lon}
		case hasCenter(payload.Meta.CentersByArc, arc.ID):
			c := payload.Meta.CentersByArc[arc.ID]
			center = model.LatLon{Lat: c.Lat, Lon: c.Lon}
		case eph != nil && !at.IsZero():
			center, _ = eph.SubSatellitePoint(at)
		default:
			continue
		}

		specs = append(specs, model.RingSpec{
			ID:        arc.ID,
			Channel:   arc.Channel,
			Center:    center,
			BTOMicros: arc.BTOUs,
			RadiusKm:  arc.RadiusKm,
			Time:      at,
		})
	}
	return specs, cal, nil
}

// calibrationFromMeta overlays the meta block on the default calibration.
// Absent fields keep their defaults, so a bare {"arcs": [...]} file behaves
// like the recovered toolchain with no tuning applied.
func calibrationFromMeta(meta arcMetaJSON) model.RingCalibration {
	cal := core.DefaultRingCalibration()
	cal.BTOBiasUs = meta.BTOBiasUs
	cal.GroundRangeOffsetKm = meta.GroundRangeOffsetKm
	if meta.RangeScale != nil {
		cal.RangeScale = *meta.RangeScale
	}
	if meta.GroundRangeScale != nil {
		cal.GroundRangeScale = *meta.GroundRangeScale
	}
	if meta.UseWGS84 != nil {
		cal.UseWGS84 = *meta.UseWGS84
	}
	if meta.SatAltKm != nil {
		cal.SatAltKm = *meta.SatAltKm
	}
	return cal
}

func hasCenter(centers map[string]arcCenterJSON, id string) bool {
	_, ok := centers[id]
	return ok
}
