// Package engine composes the grid store, spatial query engine, ingestion
// pipeline, and synthetic generator into the stored→live→synthetic fallback
// cascade consumed by the route layer.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/ingest"
	"github.com/climascope/climate-grid-engine/internal/observability"
	"github.com/climascope/climate-grid-engine/internal/spatial"
	"github.com/climascope/climate-grid-engine/internal/store"
)

// Ingestor runs a scoped live import. Satisfied by *ingest.Pipeline; tests
// substitute a counting fake.
type Ingestor interface {
	Run(ctx context.Context, opts ingest.Options, progress ingest.ProgressSink) (ingest.Summary, error)
}

// Resolver answers indicator queries without ever failing outright: stored
// rows win, a synchronous scoped import is the second chance, and the
// synthetic model is the floor.
type Resolver struct {
	store    store.GridStore
	spatial  *spatial.Engine
	ingestor Ingestor
	logger   *slog.Logger
	metrics  *observability.Metrics

	// cacheSynthetic writes generated values through to the store so
	// repeated queries are cheap. Best-effort: failures are logged, never
	// surfaced to the read path.
	cacheSynthetic bool
}

// New creates a Resolver. ingestor may be nil to disable the live tier
// (the cascade then degrades straight to synthetic).
func New(st store.GridStore, sp *spatial.Engine, ingestor Ingestor, logger *slog.Logger, metrics *observability.Metrics, cacheSynthetic bool) *Resolver {
	return &Resolver{
		store:          st,
		spatial:        sp,
		ingestor:       ingestor,
		logger:         logger,
		metrics:        metrics,
		cacheSynthetic: cacheSynthetic,
	}
}

// Resolution is the outcome of a Resolve call. LastUpdated is the freshest
// UpdatedAt among the rows that answered, or the resolution time when
// everything came from the synthetic tier.
type Resolution struct {
	Points      []domain.RiskDataPoint
	LastUpdated time.Time
}

// Resolve returns one classified RiskDataPoint per (location, indicator)
// pair. The cascade is total: missing data is never an error, and each
// point's Provenance records the tier that produced it.
func (r *Resolver) Resolve(ctx context.Context, source string, locations []domain.LocationQuery, indicatorIDs []string, scenarioID, periodID string) (Resolution, error) {
	if len(indicatorIDs) == 0 {
		for _, def := range domain.Catalog(source) {
			indicatorIDs = append(indicatorIDs, def.ID)
		}
	}

	var out Resolution
	for _, loc := range locations {
		points, updated, err := r.resolveLocation(ctx, source, loc, indicatorIDs, scenarioID, periodID)
		if err != nil {
			return Resolution{}, err
		}
		out.Points = append(out.Points, points...)
		if updated.After(out.LastUpdated) {
			out.LastUpdated = updated
		}
	}
	return out, nil
}

func (r *Resolver) resolveLocation(ctx context.Context, source string, loc domain.LocationQuery, indicatorIDs []string, scenarioID, periodID string) ([]domain.RiskDataPoint, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, time.Time{}, err
	}

	// Tier 1: stored. A hit short-circuits, no network call is made.
	res, err := r.spatial.Nearest(ctx, source, loc, indicatorIDs, scenarioID, periodID)
	if err != nil {
		r.logger.Warn("stored-tier query failed", "location", loc.ID, "error", err)
	}
	if len(res.Points) > 0 {
		r.metrics.ResolveRequests.WithLabelValues(domain.ProvenanceStored).Inc()
		points, updated := r.classified(loc, res.Points, domain.ProvenanceStored)
		return points, updated, nil
	}

	// Tier 2: live. Only the cmip6 family has a fetchable upstream.
	if r.ingestor != nil && source == domain.SourceCMIP6 {
		if points, updated, ok := r.resolveLive(ctx, source, loc, indicatorIDs, scenarioID, periodID); ok {
			r.metrics.ResolveRequests.WithLabelValues(domain.ProvenanceLive).Inc()
			return points, updated, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, time.Time{}, err
		}
	}

	// Tier 3: synthetic. Always yields a value for every pair.
	r.metrics.ResolveRequests.WithLabelValues(domain.ProvenanceSynthetic).Inc()
	points, updated := r.resolveSynthetic(ctx, source, loc, indicatorIDs, scenarioID, periodID)
	return points, updated, nil
}

func (r *Resolver) resolveLive(ctx context.Context, source string, loc domain.LocationQuery, indicatorIDs []string, scenarioID, periodID string) ([]domain.RiskDataPoint, time.Time, bool) {
	opts := ingest.Options{
		Source:    source,
		Locations: []domain.LocationQuery{loc},
		Scenarios: []domain.ScenarioDefinition{domain.ScenarioByID(scenarioID)},
		Periods:   []domain.TimePeriodDefinition{domain.TimePeriodByID(periodID)},
	}
	summary, err := r.ingestor.Run(ctx, opts, nil)
	if err != nil || summary.Imported == 0 {
		r.logger.Warn("live-tier ingestion yielded nothing",
			"location", loc.ID, "imported", summary.Imported, "errors", summary.Errors, "error", err)
		return nil, time.Time{}, false
	}

	res, err := r.spatial.Nearest(ctx, source, loc, indicatorIDs, scenarioID, periodID)
	if err != nil || len(res.Points) == 0 {
		return nil, time.Time{}, false
	}
	points, updated := r.classified(loc, res.Points, domain.ProvenanceLive)
	return points, updated, true
}

func (r *Resolver) resolveSynthetic(ctx context.Context, source string, loc domain.LocationQuery, indicatorIDs []string, scenarioID, periodID string) ([]domain.RiskDataPoint, time.Time) {
	scenario := domain.ScenarioByID(scenarioID)
	period := domain.TimePeriodByID(periodID)
	now := domain.Clock().Now().UTC()

	out := make([]domain.RiskDataPoint, 0, len(indicatorIDs))
	var cache []domain.GridDataPoint
	for _, id := range indicatorIDs {
		def, ok := domain.IndicatorByID(id)
		if !ok {
			continue
		}
		value := domain.Generate(def, loc.Latitude, loc.Longitude, scenario, period)
		r.metrics.SyntheticGenerated.Inc()

		out = append(out, domain.RiskDataPoint{
			LocationID:  loc.ID,
			IndicatorID: id,
			Scenario:    scenarioID,
			TimePeriod:  periodID,
			Value:       value,
			RiskLevel:   domain.Classify(def, value),
			Percentile:  syntheticPercentile,
			Provenance:  domain.ProvenanceSynthetic,
		})
		cache = append(cache, domain.GridDataPoint{
			Source:      source,
			IndicatorID: id,
			Scenario:    scenarioID,
			TimePeriod:  periodID,
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			Value:       value,
			Unit:        def.Unit,
			Model:       "synthetic",
			Percentile:  syntheticPercentile,
			DataSource:  domain.ProvenanceSynthetic,
			UpdatedAt:   now,
		})
	}

	if r.cacheSynthetic && len(cache) > 0 {
		// Best-effort cache-through; the read path never blocks on it.
		if err := r.store.UpsertBatch(ctx, cache); err != nil {
			r.logger.Warn("synthetic cache write failed", "location", loc.ID, "error", err)
		}
	}
	return out, now
}

// syntheticPercentile marks generated values as lower-confidence than the
// ingested default of 50.
const syntheticPercentile = 25

func (r *Resolver) classified(loc domain.LocationQuery, points []domain.GridDataPoint, provenance string) ([]domain.RiskDataPoint, time.Time) {
	out := make([]domain.RiskDataPoint, 0, len(points))
	var updated time.Time
	for _, p := range points {
		if p.UpdatedAt.After(updated) {
			updated = p.UpdatedAt
		}
		out = append(out, domain.RiskDataPoint{
			LocationID:  loc.ID,
			IndicatorID: p.IndicatorID,
			Scenario:    p.Scenario,
			TimePeriod:  p.TimePeriod,
			Value:       p.Value,
			RiskLevel:   domain.ClassifyByID(p.IndicatorID, p.Value),
			Percentile:  p.Percentile,
			Provenance:  provenance,
		})
	}
	return out, updated
}

// Stats proxies store coverage statistics for the route layer.
func (r *Resolver) Stats(ctx context.Context) (store.Stats, error) {
	return r.store.Stats(ctx)
}
