package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/ingest"
	"github.com/climascope/climate-grid-engine/internal/observability"
	"github.com/climascope/climate-grid-engine/internal/spatial"
	"github.com/climascope/climate-grid-engine/internal/store"
)

type fakeIngestor struct {
	calls   int
	err     error
	onRun   func(opts ingest.Options)
	summary ingest.Summary
}

func (f *fakeIngestor) Run(_ context.Context, opts ingest.Options, _ ingest.ProgressSink) (ingest.Summary, error) {
	f.calls++
	if f.onRun != nil {
		f.onRun(opts)
	}
	return f.summary, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestResolver(t *testing.T, st store.GridStore, ing Ingestor, cacheSynthetic bool) *Resolver {
	t.Helper()
	return New(st, spatial.New(st), ing, discardLogger(), observability.NewMetricsForTesting(), cacheSynthetic)
}

func storedPoint(indicatorID string, value float64) domain.GridDataPoint {
	return domain.GridDataPoint{
		Source:      domain.SourceCMIP6,
		IndicatorID: indicatorID,
		Scenario:    "ssp245",
		TimePeriod:  "2041-2060",
		Latitude:    51.5,
		Longitude:   -0.1,
		Value:       value,
		Percentile:  50,
		UpdatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func london() domain.LocationQuery {
	return domain.LocationQuery{ID: "london", Latitude: 51.0, Longitude: 0.0, RadiusDeg: 3}
}

func TestResolveStoredShortCircuits(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertBatch(context.Background(), []domain.GridDataPoint{
		storedPoint("days_above_35c", 10),
		storedPoint("heatwave_frequency", 2.5),
	}))

	ing := &fakeIngestor{}
	r := newTestResolver(t, st, ing, false)

	res, err := r.Resolve(context.Background(), domain.SourceCMIP6,
		[]domain.LocationQuery{london()}, nil, "ssp245", "2041-2060")
	require.NoError(t, err)
	require.Len(t, res.Points, 2)

	assert.Zero(t, ing.calls, "a stored hit must not trigger ingestion")
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), res.LastUpdated,
		"freshness reflects the stored rows")
	for _, p := range res.Points {
		assert.Equal(t, domain.ProvenanceStored, p.Provenance)
		assert.Equal(t, "london", p.LocationID)
	}

	byID := map[string]domain.RiskDataPoint{}
	for _, p := range res.Points {
		byID[p.IndicatorID] = p
	}
	assert.Equal(t, domain.RiskMedium, byID["days_above_35c"].RiskLevel)
	assert.Equal(t, 10.0, byID["days_above_35c"].Value)
}

func TestResolveLiveTier(t *testing.T) {
	st := store.NewMemoryStore()
	ing := &fakeIngestor{summary: ingest.Summary{Imported: 1}}
	ing.onRun = func(opts ingest.Options) {
		require.Len(t, opts.Locations, 1)
		require.Len(t, opts.Scenarios, 1)
		require.Len(t, opts.Periods, 1)
		assert.Equal(t, "ssp245", opts.Scenarios[0].ID)
		assert.Equal(t, "2041-2060", opts.Periods[0].ID)
		require.NoError(t, st.UpsertBatch(context.Background(), []domain.GridDataPoint{
			storedPoint("days_above_35c", 42),
		}))
	}
	r := newTestResolver(t, st, ing, false)

	res, err := r.Resolve(context.Background(), domain.SourceCMIP6,
		[]domain.LocationQuery{london()}, []string{"days_above_35c"}, "ssp245", "2041-2060")
	require.NoError(t, err)
	require.Len(t, res.Points, 1)

	assert.Equal(t, 1, ing.calls)
	assert.Equal(t, domain.ProvenanceLive, res.Points[0].Provenance)
	assert.Equal(t, 42.0, res.Points[0].Value)
	assert.Equal(t, domain.RiskHigh, res.Points[0].RiskLevel)
	assert.False(t, res.LastUpdated.IsZero())
}

func TestResolveSyntheticWhenIngestionFails(t *testing.T) {
	st := store.NewMemoryStore()
	ing := &fakeIngestor{err: errors.New("upstream down")}
	r := newTestResolver(t, st, ing, false)

	loc := london()
	ids := []string{"days_above_35c", "heatwave_frequency"}
	res, err := r.Resolve(context.Background(), domain.SourceCMIP6,
		[]domain.LocationQuery{loc}, ids, "ssp370", "2081-2100")
	require.NoError(t, err)
	require.Len(t, res.Points, 2, "the cascade must produce a point per pair")
	assert.False(t, res.LastUpdated.IsZero(), "synthetic answers are fresh as of now")

	scenario := domain.ScenarioByID("ssp370")
	period := domain.TimePeriodByID("2081-2100")
	for i, p := range res.Points {
		assert.Equal(t, domain.ProvenanceSynthetic, p.Provenance)
		assert.Equal(t, 25.0, p.Percentile)

		def, ok := domain.IndicatorByID(ids[i])
		require.True(t, ok)
		want := domain.Generate(def, loc.Latitude, loc.Longitude, scenario, period)
		assert.Equal(t, want, p.Value)
		assert.Equal(t, domain.Classify(def, want), p.RiskLevel)
	}
}

func TestResolveImpactSourceSkipsLiveTier(t *testing.T) {
	st := store.NewMemoryStore()
	ing := &fakeIngestor{summary: ingest.Summary{Imported: 1}}
	r := newTestResolver(t, st, ing, false)

	res, err := r.Resolve(context.Background(), domain.SourceImpact,
		[]domain.LocationQuery{london()}, []string{"water_stress_index"}, "ssp245", "2041-2060")
	require.NoError(t, err)
	require.Len(t, res.Points, 1)

	assert.Zero(t, ing.calls, "impact indicators have no fetchable upstream")
	assert.Equal(t, domain.ProvenanceSynthetic, res.Points[0].Provenance)
}

func TestResolveNilIngestorFallsToSynthetic(t *testing.T) {
	r := newTestResolver(t, store.NewMemoryStore(), nil, false)

	res, err := r.Resolve(context.Background(), domain.SourceCMIP6,
		[]domain.LocationQuery{london()}, []string{"days_above_40c"}, "ssp126", "2021-2040")
	require.NoError(t, err)
	require.Len(t, res.Points, 1)
	assert.Equal(t, domain.ProvenanceSynthetic, res.Points[0].Provenance)
}

func TestResolveDefaultsToFullCatalog(t *testing.T) {
	r := newTestResolver(t, store.NewMemoryStore(), nil, false)

	res, err := r.Resolve(context.Background(), domain.SourceImpact,
		[]domain.LocationQuery{london()}, nil, "ssp585", "2061-2080")
	require.NoError(t, err)
	assert.Len(t, res.Points, len(domain.Catalog(domain.SourceImpact)))
}

func TestResolveSyntheticCacheThrough(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestResolver(t, st, nil, true)

	loc := london()
	first, err := r.Resolve(context.Background(), domain.SourceImpact,
		[]domain.LocationQuery{loc}, []string{"water_stress_index"}, "ssp245", "2041-2060")
	require.NoError(t, err)
	require.Len(t, first.Points, 1)
	assert.Equal(t, domain.ProvenanceSynthetic, first.Points[0].Provenance)

	second, err := r.Resolve(context.Background(), domain.SourceImpact,
		[]domain.LocationQuery{loc}, []string{"water_stress_index"}, "ssp245", "2041-2060")
	require.NoError(t, err)
	require.Len(t, second.Points, 1)
	assert.Equal(t, domain.ProvenanceStored, second.Points[0].Provenance, "the cached row should satisfy the next query")
	assert.Equal(t, first.Points[0].Value, second.Points[0].Value)
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(t, store.NewMemoryStore(), nil, false)
	_, err := r.Resolve(ctx, domain.SourceCMIP6,
		[]domain.LocationQuery{london()}, nil, "ssp245", "2041-2060")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOverlayDense(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertBatch(context.Background(), []domain.GridDataPoint{
		storedPoint("days_above_35c", 75),
	}))
	r := newTestResolver(t, st, nil, false)

	bounds := Bounds{North: 52, South: 50, East: 1, West: -1}
	cells, err := r.Overlay(context.Background(), domain.SourceCMIP6,
		"days_above_35c", "ssp245", "2041-2060", bounds, 5)
	require.NoError(t, err)
	require.Len(t, cells, 25, "the overlay must be dense across the lattice")

	stored := 0
	for _, c := range cells {
		assert.GreaterOrEqual(t, c.Latitude, bounds.South)
		assert.LessOrEqual(t, c.Latitude, bounds.North)
		if c.Value == 75 {
			stored++
			assert.Equal(t, domain.RiskVeryHigh, c.RiskLevel)
		}
	}
	assert.Greater(t, stored, 0, "the lattice point next to the stored row should use its value")
}

func TestOverlayValidation(t *testing.T) {
	r := newTestResolver(t, store.NewMemoryStore(), nil, false)

	_, err := r.Overlay(context.Background(), domain.SourceCMIP6,
		"days_above_35c", "ssp245", "2041-2060", Bounds{North: 50, South: 52, East: 1, West: -1}, 5)
	assert.Error(t, err)

	_, err = r.Overlay(context.Background(), domain.SourceCMIP6,
		"no_such_indicator", "ssp245", "2041-2060", Bounds{North: 52, South: 50, East: 1, West: -1}, 5)
	assert.Error(t, err)

	_, err = r.Overlay(context.Background(), domain.SourceCMIP6,
		"days_above_35c", "ssp245", "2041-2060", Bounds{North: 52, South: 50, East: 1, West: -1}, 200)
	assert.Error(t, err)
}
