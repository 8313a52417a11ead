// Package openmeteo implements domain.ClimateProvider against an
// Open-Meteo-style climate projection API.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/climascope/climate-grid-engine/internal/domain"
	"github.com/climascope/climate-grid-engine/internal/observability"
)

// Baseline window: a fixed 30-year historical span whose mean anchors
// warming anomalies.
const (
	baselineStart = "1981-01-01"
	baselineEnd   = "2010-12-31"
)

var dailyVariables = []string{
	"temperature_2m_mean",
	"temperature_2m_max",
	"temperature_2m_min",
	"precipitation_sum",
}

// Client fetches daily series over HTTP.
type Client struct {
	baseURL    string
	models     string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a provider client. models is the comma-separated list of
// climate models passed upstream; its first model names the provenance tag on
// derived rows.
func NewClient(baseURL, models string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		models:     models,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Models returns the configured model list.
func (c *Client) Models() string { return c.models }

// FetchDaily returns the daily series for one coordinate and date range.
func (c *Client) FetchDaily(ctx context.Context, lat, lon float64, startDate, endDate, scenario string) (domain.DailySeries, error) {
	resp, err := c.doRequest(ctx, "daily", lat, lon, startDate, endDate, scenario)
	if err != nil {
		return domain.DailySeries{}, err
	}

	series := domain.DailySeries{
		Time:     resp.Daily.Time,
		MeanTemp: resp.Daily.TemperatureMean,
		MaxTemp:  resp.Daily.TemperatureMax,
		MinTemp:  resp.Daily.TemperatureMin,
		Precip:   resp.Daily.PrecipitationSum,
	}
	if len(series.Time) == 0 {
		c.metrics.UpstreamRequests.WithLabelValues("daily", "malformed").Inc()
		return domain.DailySeries{}, fmt.Errorf("empty daily series at (%.2f, %.2f): %w", lat, lon, domain.ErrMalformedResponse)
	}
	return series, nil
}

// FetchBaseline returns the 30-year historical mean temperature for one
// coordinate.
func (c *Client) FetchBaseline(ctx context.Context, lat, lon float64) (float64, error) {
	resp, err := c.doRequest(ctx, "baseline", lat, lon, baselineStart, baselineEnd, "")
	if err != nil {
		return 0, err
	}

	mean, ok := domain.SeriesMean(domain.Compact(resp.Daily.TemperatureMean))
	if !ok {
		c.metrics.UpstreamRequests.WithLabelValues("baseline", "malformed").Inc()
		return 0, fmt.Errorf("empty baseline series at (%.2f, %.2f): %w", lat, lon, domain.ErrMalformedResponse)
	}
	return mean, nil
}

func (c *Client) doRequest(ctx context.Context, kind string, lat, lon float64, startDate, endDate, scenario string) (*response, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", lat)},
		"longitude":  {fmt.Sprintf("%.4f", lon)},
		"start_date": {startDate},
		"end_date":   {endDate},
		"models":     {c.models},
		"daily":      {strings.Join(dailyVariables, ",")},
	}
	if scenario != "" {
		params.Set("scenario", scenario)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%s fetch: %v: %w", kind, err, domain.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.UpstreamRequests.WithLabelValues(kind, "error").Inc()
		return nil, fmt.Errorf("%s fetch: status %d: %s: %w", kind, resp.StatusCode, body, domain.ErrUpstreamUnavailable)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(kind, "malformed").Inc()
		return nil, fmt.Errorf("decode %s response: %v: %w", kind, err, domain.ErrMalformedResponse)
	}

	c.metrics.UpstreamRequests.WithLabelValues(kind, "success").Inc()
	return &parsed, nil
}

// Provider API response types. Values may be null for days the model did not
// produce, hence the pointer slices.

type response struct {
	Daily daily `json:"daily"`
}

type daily struct {
	Time             []string   `json:"time"`
	TemperatureMean  []*float64 `json:"temperature_2m_mean"`
	TemperatureMax   []*float64 `json:"temperature_2m_max"`
	TemperatureMin   []*float64 `json:"temperature_2m_min"`
	PrecipitationSum []*float64 `json:"precipitation_sum"`
}
