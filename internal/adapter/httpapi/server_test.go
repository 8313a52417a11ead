package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/engine"
	"github.com/climascope/climate-grid-engine/internal/ingest"
	"github.com/climascope/climate-grid-engine/internal/observability"
	"github.com/climascope/climate-grid-engine/internal/spatial"
	"github.com/climascope/climate-grid-engine/internal/store"
)

type fakeImporter struct {
	calls   int
	lastOpt ingest.Options
	summary ingest.Summary
	err     error
}

func (f *fakeImporter) Run(_ context.Context, opts ingest.Options, _ ingest.ProgressSink) (ingest.Summary, error) {
	f.calls++
	f.lastOpt = opts
	return f.summary, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, st store.GridStore, importer Importer) *Server {
	t.Helper()
	resolver := engine.New(st, spatial.New(st), nil, discardLogger(), observability.NewMetricsForTesting(), false)
	return NewServer(":0", resolver, importer, st, nil, discardLogger())
}

func postJSON(t *testing.T, srv *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzStoreDown(t *testing.T) {
	st := store.NewMemoryStore()
	resolver := engine.New(st, spatial.New(st), nil, discardLogger(), observability.NewMetricsForTesting(), false)
	srv := NewServer(":0", resolver, nil, failingPinger{}, nil, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestQuerySynthetic(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	rec := postJSON(t, srv, "/api/v1/climate/query", queryRequest{
		Locations:  []domain.LocationQuery{{Name: "London", Latitude: 51.5, Longitude: -0.1}},
		Indicators: []string{"days_above_35c", "heatwave_frequency"},
		Scenario:   "ssp245",
		TimePeriod: "2041-2060",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.RiskData, 2)
	for _, p := range resp.RiskData {
		assert.Equal(t, domain.ProvenanceSynthetic, p.Provenance)
		assert.NotEmpty(t, p.LocationID, "locations without an id get one assigned")
		assert.NotEmpty(t, p.RiskLevel)
	}

	require.Len(t, resp.Locations, 1)
	assert.NotEmpty(t, resp.Locations[0].ID, "the echoed location carries its assigned id")
	assert.Equal(t, []string{"days_above_35c", "heatwave_frequency"}, resp.Indicators)
	assert.Equal(t, domain.SourceCMIP6, resp.Metadata.Source)
	assert.Equal(t, "ssp245", resp.Metadata.Scenario)
	assert.Equal(t, "2041-2060", resp.Metadata.TimePeriod)
	assert.False(t, resp.Metadata.LastUpdated.IsZero())
}

func TestQueryStored(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertBatch(context.Background(), []domain.GridDataPoint{{
		Source:      domain.SourceCMIP6,
		IndicatorID: "days_above_35c",
		Scenario:    "ssp245",
		TimePeriod:  "2041-2060",
		Latitude:    51.5,
		Longitude:   -0.1,
		Value:       12,
		Percentile:  50,
		UpdatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}}))
	srv := newTestServer(t, st, nil)

	rec := postJSON(t, srv, "/api/v1/climate/query", queryRequest{
		Locations:  []domain.LocationQuery{{ID: "lon", Latitude: 51.0, Longitude: 0.0, RadiusDeg: 3}},
		Indicators: []string{"days_above_35c"},
		Scenario:   "ssp245",
		TimePeriod: "2041-2060",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.RiskData, 1)
	assert.Equal(t, domain.ProvenanceStored, resp.RiskData[0].Provenance)
	assert.Equal(t, 12.0, resp.RiskData[0].Value)
	assert.Equal(t, "lon", resp.RiskData[0].LocationID)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), resp.Metadata.LastUpdated.UTC(),
		"last_updated reports the freshest stored row")
}

func TestQueryValidation(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	t.Run("no locations", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/climate/query", queryRequest{Scenario: "ssp245"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown scenario", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/climate/query", queryRequest{
			Locations: []domain.LocationQuery{{Latitude: 1, Longitude: 2}},
			Scenario:  "rcp85",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "unknown scenario")
	})

	t.Run("unknown period", func(t *testing.T) {
		rec := postJSON(t, srv, "/api/v1/climate/query", queryRequest{
			Locations:  []domain.LocationQuery{{Latitude: 1, Longitude: 2}},
			TimePeriod: "2200-2220",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/climate/query", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOverlay(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	rec := postJSON(t, srv, "/api/v1/climate/overlay", overlayRequest{
		IndicatorID: "days_above_35c",
		Scenario:    "ssp585",
		TimePeriod:  "2081-2100",
		Bounds:      engine.Bounds{North: 52, South: 50, East: 1, West: -1},
		Resolution:  4,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp overlayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 16, resp.Count)
	require.Len(t, resp.Cells, 16)
	assert.NotEmpty(t, resp.Cells[0].RiskLevel)
}

func TestOverlayBadBounds(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	rec := postJSON(t, srv, "/api/v1/climate/overlay", overlayRequest{
		IndicatorID: "days_above_35c",
		Bounds:      engine.Bounds{North: 50, South: 52, East: 1, West: -1},
		Resolution:  4,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndicators(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indicatorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	want := len(domain.Catalog(domain.SourceCMIP6)) + len(domain.Catalog(domain.SourceImpact))
	assert.Len(t, resp.Indicators, want)
	assert.Len(t, resp.Scenarios, len(domain.Scenarios))
	assert.Len(t, resp.TimePeriods, len(domain.TimePeriods))
}

func TestIndicatorsSourceFilter(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/indicators?source=impact", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp indicatorsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Indicators, len(domain.Catalog(domain.SourceImpact)))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/indicators?source=nope", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImport(t *testing.T) {
	imp := &fakeImporter{summary: ingest.Summary{Imported: 16}}
	srv := newTestServer(t, store.NewMemoryStore(), imp)

	rec := postJSON(t, srv, "/api/v1/admin/import", importRequest{
		Locations: []domain.LocationQuery{{ID: "lon", Latitude: 51.5, Longitude: -0.1}},
		Scenarios: []string{"ssp245"},
		Periods:   []string{"2041-2060"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ingest.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 16, resp.Imported)
	assert.Equal(t, 1, imp.calls)
	require.Len(t, imp.lastOpt.Scenarios, 1)
	assert.Equal(t, "ssp245", imp.lastOpt.Scenarios[0].ID)
}

func TestImportGridLimit(t *testing.T) {
	imp := &fakeImporter{}
	srv := newTestServer(t, store.NewMemoryStore(), imp)

	rec := postJSON(t, srv, "/api/v1/admin/import", importRequest{GridLimit: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, imp.lastOpt.Locations, 5)
}

func TestImportRequiresScope(t *testing.T) {
	imp := &fakeImporter{}
	srv := newTestServer(t, store.NewMemoryStore(), imp)

	rec := postJSON(t, srv, "/api/v1/admin/import", importRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, imp.calls)
}

func TestImportDisabled(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(), nil)

	rec := postJSON(t, srv, "/api/v1/admin/import", importRequest{GridLimit: 1})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStats(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.UpsertBatch(context.Background(), []domain.GridDataPoint{{
		Source: domain.SourceCMIP6, IndicatorID: "days_above_35c",
		Scenario: "ssp245", TimePeriod: "2041-2060", Latitude: 1, Longitude: 2,
	}}))
	srv := newTestServer(t, st, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Rows)
	assert.Equal(t, 1, stats.Locations)
}
