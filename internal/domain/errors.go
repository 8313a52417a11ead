package domain

import "errors"

// Sentinel errors for the ingestion error taxonomy. Both are logged, counted,
// and skipped by the pipeline; neither aborts a batch. An empty spatial result
// is not an error at all.
var (
	// ErrUpstreamUnavailable wraps network or HTTP failures from the
	// climate data provider.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrMalformedResponse marks a provider response whose daily series is
	// missing or empty.
	ErrMalformedResponse = errors.New("malformed provider response")
)
