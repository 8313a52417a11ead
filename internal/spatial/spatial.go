// Package spatial resolves a query coordinate to the nearest stored grid
// point within a search radius.
package spatial

import (
	"context"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/store"
)

// DefaultRadiusDeg is the search radius when the query does not set one.
// Imported grids are sparse and irregular, so a couple of degrees keeps
// most queries hitting a neighbor without scanning a continent.
const DefaultRadiusDeg = 2.5

// Engine finds the nearest stored grid cell for a query location.
type Engine struct {
	store store.GridStore
}

// New creates a spatial engine over a grid store.
func New(s store.GridStore) *Engine {
	return &Engine{store: s}
}

// Result is the outcome of a nearest-point lookup. Found is false when no
// candidate fell inside the search box; that is a normal outcome, not an
// error.
type Result struct {
	Found      bool
	Latitude   float64
	Longitude  float64
	DistanceSq float64
	Points     []domain.GridDataPoint
}

// Nearest prefilters candidates to the axis-aligned box [lat±R]×[lon±R],
// picks the candidate minimizing planar Euclidean distance (not geodesic;
// distances here only rank nearby grid cells), and returns every row stored
// at the winning coordinate, optionally filtered to indicatorIDs.
//
// Equidistant candidates tie-break to the first encountered in storage
// order: the comparison is strict <, so an earlier row keeps the win.
func (e *Engine) Nearest(ctx context.Context, source string, loc domain.LocationQuery, indicatorIDs []string, scenario, period string) (Result, error) {
	radius := loc.RadiusDeg
	if radius <= 0 {
		radius = DefaultRadiusDeg
	}

	box := store.Box{
		LatMin: loc.Latitude - radius,
		LatMax: loc.Latitude + radius,
		LonMin: loc.Longitude - radius,
		LonMax: loc.Longitude + radius,
	}
	candidates, err := e.store.QueryBox(ctx, source, scenario, period, box)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	best := Result{DistanceSq: -1}
	for _, p := range candidates {
		dLat := p.Latitude - loc.Latitude
		dLon := p.Longitude - loc.Longitude
		d := dLat*dLat + dLon*dLon
		if best.DistanceSq < 0 || d < best.DistanceSq {
			best = Result{Found: true, Latitude: p.Latitude, Longitude: p.Longitude, DistanceSq: d}
		}
	}

	wanted := indicatorSet(indicatorIDs)
	for _, p := range candidates {
		if p.Latitude != best.Latitude || p.Longitude != best.Longitude {
			continue
		}
		if wanted != nil {
			if _, ok := wanted[p.IndicatorID]; !ok {
				continue
			}
		}
		best.Points = append(best.Points, p)
	}
	return best, nil
}

func indicatorSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
