// Package ingest fetches raw daily series from the climate provider, derives
// indicator values, and upserts them into the grid store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/observability"
	"github.com/climascope/climate-grid-engine/internal/store"
)

// Publisher forwards imported grid points to a downstream sink. A nil
// Publisher disables publishing.
type Publisher interface {
	PublishBatch(ctx context.Context, points []domain.GridDataPoint) error
}

// ProgressSink receives human-readable progress lines during a run.
type ProgressSink func(line string)

// Summary reports the outcome of a run. A run never aborts on individual
// failures; it works through the whole batch and reports the error count.
type Summary struct {
	Imported int `json:"imported"`
	Errors   int `json:"errors"`
}

// Options scopes a run. Zero-value fields expand to defaults: the cmip6
// source, every scenario, and every time period.
type Options struct {
	Source    string
	Locations []domain.LocationQuery
	Scenarios []domain.ScenarioDefinition
	Periods   []domain.TimePeriodDefinition
}

func (o Options) withDefaults() Options {
	if o.Source == "" {
		o.Source = domain.SourceCMIP6
	}
	if len(o.Scenarios) == 0 {
		o.Scenarios = domain.Scenarios
	}
	if len(o.Periods) == 0 {
		o.Periods = domain.TimePeriods
	}
	return o
}

// Pipeline drives fetch → derive → upsert for batches of locations.
//
// Work is strictly sequential with a pacing delay between upstream calls.
// That is deliberate backpressure against provider rate limits, not an
// accidental serialization; do not parallelize fetches without an equivalent
// limiter.
type Pipeline struct {
	provider  domain.ClimateProvider
	store     store.GridStore
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	delay     time.Duration
	model     string
}

// New creates a Pipeline. publisher may be nil.
func New(provider domain.ClimateProvider, st store.GridStore, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, delay time.Duration, model string) *Pipeline {
	return &Pipeline{
		provider:  provider,
		store:     st,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		delay:     delay,
		model:     model,
	}
}

// Run imports every (location, scenario, period) unit in opts. Individual
// fetch, derivation, or persistence failures are logged, counted, and
// skipped. progress may be nil. The returned error is non-nil only on
// context cancellation; the Summary is valid either way.
func (p *Pipeline) Run(ctx context.Context, opts Options, progress ProgressSink) (Summary, error) {
	opts = opts.withDefaults()

	p.metrics.ImportRunning.Set(1)
	defer p.metrics.ImportRunning.Set(0)

	var summary Summary
	p.logger.Info("import started",
		"source", opts.Source,
		"locations", len(opts.Locations),
		"scenarios", len(opts.Scenarios),
		"periods", len(opts.Periods),
	)

	catalog := domain.Catalog(opts.Source)
	for _, loc := range opts.Locations {
		baseline, err := p.fetchBaseline(ctx, loc, &summary)
		if err != nil {
			return summary, err
		}

		for _, scenario := range opts.Scenarios {
			for _, period := range opts.Periods {
				if !sleepWithContext(ctx, p.delay) {
					return summary, ctx.Err()
				}
				p.importUnit(ctx, catalog, loc, scenario, period, baseline, opts.Source, &summary, progress)
			}
		}
	}

	p.logger.Info("import finished", "imported", summary.Imported, "errors", summary.Errors)
	return summary, nil
}

// fetchBaseline returns the location's 30-year historical mean, or nil when
// the fetch fails (temperature indicators then fall back to absolute means).
// The returned error is non-nil only on context cancellation.
func (p *Pipeline) fetchBaseline(ctx context.Context, loc domain.LocationQuery, summary *Summary) (*float64, error) {
	if !sleepWithContext(ctx, p.delay) {
		return nil, ctx.Err()
	}
	v, err := p.provider.FetchBaseline(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("baseline fetch failed",
			"lat", loc.Latitude, "lon", loc.Longitude, "error", err)
		p.metrics.ImportErrors.Inc()
		summary.Errors++
		return nil, nil
	}
	return &v, nil
}

func (p *Pipeline) importUnit(ctx context.Context, catalog []domain.IndicatorDefinition, loc domain.LocationQuery, scenario domain.ScenarioDefinition, period domain.TimePeriodDefinition, baseline *float64, source string, summary *Summary, progress ProgressSink) {
	start := time.Now()
	defer func() {
		p.metrics.ImportUnitDuration.Observe(time.Since(start).Seconds())
	}()

	series, err := p.provider.FetchDaily(ctx, loc.Latitude, loc.Longitude, period.StartDate, period.EndDate, scenario.ID)
	if err != nil {
		p.logger.Warn("daily fetch failed",
			"lat", loc.Latitude, "lon", loc.Longitude,
			"scenario", scenario.ID, "period", period.ID, "error", err)
		p.metrics.ImportErrors.Inc()
		summary.Errors++
		return
	}

	now := domain.Clock().Now().UTC()
	points := make([]domain.GridDataPoint, 0, len(catalog))
	for _, def := range catalog {
		value, err := domain.DeriveIndicator(def, series, baseline, period)
		if err != nil {
			p.logger.Warn("derivation failed",
				"indicator", def.ID, "lat", loc.Latitude, "lon", loc.Longitude,
				"scenario", scenario.ID, "period", period.ID, "error", err)
			p.metrics.ImportErrors.Inc()
			summary.Errors++
			continue
		}
		points = append(points, domain.GridDataPoint{
			Source:      source,
			IndicatorID: def.ID,
			Scenario:    scenario.ID,
			TimePeriod:  period.ID,
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			Value:       value,
			Unit:        def.Unit,
			Model:       p.model,
			Percentile:  50,
			DataSource:  "open-meteo",
			UpdatedAt:   now,
		})
	}
	if len(points) == 0 {
		return
	}

	if err := p.store.UpsertBatch(ctx, points); err != nil {
		p.logger.Error("grid store write failed",
			"lat", loc.Latitude, "lon", loc.Longitude,
			"scenario", scenario.ID, "period", period.ID, "error", err)
		p.metrics.ImportErrors.Inc()
		summary.Errors++
		return
	}
	summary.Imported += len(points)
	p.metrics.PointsImported.Add(float64(len(points)))

	p.publish(ctx, points)

	if progress != nil {
		progress(fmt.Sprintf("imported %d indicators at (%.2f, %.2f) %s/%s",
			len(points), loc.Latitude, loc.Longitude, scenario.ID, period.ID))
	}
}

// publish forwards points to the sink topic, best-effort: a publish failure
// never fails the import unit.
func (p *Pipeline) publish(ctx context.Context, points []domain.GridDataPoint) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishBatch(ctx, points); err != nil {
		p.logger.Warn("publish failed", "points", len(points), "error", err)
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
