package ingest

import (
	"fmt"

	"github.com/climascope/climate-grid-engine/internal/domain"
)

// DefaultLocations returns the standard import lattice: a 10°×10° global
// grid clipped to [-60, 70] latitude (open ocean poleward of that holds no
// assets worth a grid cell). limit > 0 truncates the lattice, which keeps
// smoke imports cheap.
func DefaultLocations(limit int) []domain.LocationQuery {
	var out []domain.LocationQuery
	for lat := -60.0; lat <= 70.0; lat += 10 {
		for lon := -180.0; lon < 180.0; lon += 10 {
			out = append(out, domain.LocationQuery{
				ID:        fmt.Sprintf("grid_%g_%g", lat, lon),
				Latitude:  lat,
				Longitude: lon,
			})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
