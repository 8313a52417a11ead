package domain

import "context"

// ClimateProvider fetches raw daily series from the upstream projection API.
type ClimateProvider interface {
	// FetchDaily returns the daily series for one coordinate over
	// [startDate, endDate] (ISO dates) under the given scenario.
	FetchDaily(ctx context.Context, lat, lon float64, startDate, endDate, scenario string) (DailySeries, error)

	// FetchBaseline returns the 30-year historical mean temperature for one
	// coordinate, used to express projected means as warming anomalies.
	FetchBaseline(ctx context.Context, lat, lon float64) (float64, error)
}
