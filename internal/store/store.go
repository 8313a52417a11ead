// Package store persists grid data points keyed by
// (source, indicator, scenario, period, latitude, longitude).
//
// The only write primitive is "delete every row matching the point's cell
// key, then insert the new set" inside one transaction, so readers never
// observe a grid cell mixing stale and fresh indicator sets.
package store

import (
	"context"

	"github.com/climascope/climate-grid-engine/internal/domain"
)

// Box is an inclusive axis-aligned coordinate range.
type Box struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// Contains reports whether a coordinate falls inside the box, inclusive on
// all edges.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// Stats summarizes stored coverage for operational visibility.
type Stats struct {
	Sources     int `json:"sources"`
	Scenarios   int `json:"scenarios"`
	TimePeriods int `json:"time_periods"`
	Locations   int `json:"locations"`
	Rows        int `json:"rows"`
}

// GridStore is the persistence contract for grid data points.
type GridStore interface {
	// UpsertBatch atomically replaces all indicators at each point's cell
	// key with the new set, chunked to bound transaction size.
	UpsertBatch(ctx context.Context, points []domain.GridDataPoint) error

	// QueryBox returns every row for the source/scenario/period whose
	// coordinates fall inside the box.
	QueryBox(ctx context.Context, source, scenario, period string, box Box) ([]domain.GridDataPoint, error)

	// QueryByIndicator restricts QueryBox to one indicator, for overlays.
	QueryByIndicator(ctx context.Context, indicatorID, source, scenario, period string, box Box) ([]domain.GridDataPoint, error)

	// Stats reports distinct sources, scenarios, periods, and locations.
	Stats(ctx context.Context) (Stats, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
