package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/store"
)

// Bounds is a geographic rectangle for overlay rendering. North/South are
// latitudes, East/West longitudes.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

func (b Bounds) validate() error {
	if b.North <= b.South {
		return fmt.Errorf("north (%.4f) must exceed south (%.4f)", b.North, b.South)
	}
	if b.East <= b.West {
		return fmt.Errorf("east (%.4f) must exceed west (%.4f)", b.East, b.West)
	}
	return nil
}

// OverlayCell is one rendered grid cell of an indicator overlay.
type OverlayCell struct {
	Latitude  float64          `json:"lat"`
	Longitude float64          `json:"lon"`
	Value     float64          `json:"value"`
	RiskLevel domain.RiskLevel `json:"risk_level"`
}

// maxOverlayCells caps resolution×resolution so one request cannot render an
// unbounded grid.
const maxOverlayCells = 10000

// Overlay renders a resolution×resolution lattice of classified indicator
// values across bounds. Cells covered by stored rows use the nearest stored
// value; cells with no stored neighbor are filled synthetically, so the
// overlay is always dense.
func (r *Resolver) Overlay(ctx context.Context, source, indicatorID, scenarioID, periodID string, bounds Bounds, resolution int) ([]OverlayCell, error) {
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	def, ok := domain.IndicatorByID(indicatorID)
	if !ok {
		return nil, fmt.Errorf("unknown indicator %q", indicatorID)
	}
	if resolution < 2 {
		resolution = 2
	}
	if resolution*resolution > maxOverlayCells {
		return nil, fmt.Errorf("resolution %d exceeds the %d-cell budget", resolution, maxOverlayCells)
	}

	box := store.Box{
		LatMin: bounds.South,
		LatMax: bounds.North,
		LonMin: bounds.West,
		LonMax: bounds.East,
	}
	stored, err := r.store.QueryByIndicator(ctx, indicatorID, source, scenarioID, periodID, box)
	if err != nil {
		r.logger.Warn("overlay store query failed, rendering synthetic", "indicator", indicatorID, "error", err)
		stored = nil
	}

	scenario := domain.ScenarioByID(scenarioID)
	period := domain.TimePeriodByID(periodID)
	latStep := (bounds.North - bounds.South) / float64(resolution-1)
	lonStep := (bounds.East - bounds.West) / float64(resolution-1)

	// Half a cell diagonal: stored rows farther than this from a lattice
	// point belong to some other cell.
	snapSq := (latStep*latStep + lonStep*lonStep) / 4

	cells := make([]OverlayCell, 0, resolution*resolution)
	for i := 0; i < resolution; i++ {
		lat := bounds.South + float64(i)*latStep
		for j := 0; j < resolution; j++ {
			lon := bounds.West + float64(j)*lonStep

			value, found := nearestValue(stored, lat, lon, snapSq)
			if !found {
				value = domain.Generate(def, lat, lon, scenario, period)
				r.metrics.SyntheticGenerated.Inc()
			}
			cells = append(cells, OverlayCell{
				Latitude:  round4(lat),
				Longitude: round4(lon),
				Value:     value,
				RiskLevel: domain.Classify(def, value),
			})
		}
	}
	return cells, nil
}

func nearestValue(points []domain.GridDataPoint, lat, lon, maxSq float64) (float64, bool) {
	bestSq := -1.0
	var bestValue float64
	for _, p := range points {
		dLat := p.Latitude - lat
		dLon := p.Longitude - lon
		d := dLat*dLat + dLon*dLon
		if d <= maxSq && (bestSq < 0 || d < bestSq) {
			bestSq = d
			bestValue = p.Value
		}
	}
	return bestValue, bestSq >= 0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
