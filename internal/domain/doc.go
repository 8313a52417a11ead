// Package domain models location-indexed climate-hazard indicators.
//
// # Data Source
//
// Raw daily series come from an Open-Meteo-style climate projection API
// (https://climate-api.open-meteo.com/v1/climate): for a coordinate, a date
// range, and a set of daily variables (mean/max/min 2m temperature and
// precipitation sum) the provider returns parallel arrays, one value per day,
// with nulls for days the model did not produce. The engine's physical
// ("cmip6") indicators are derived from those series; impact-family
// indicators ("impact" source) have no fetchable upstream here and are
// served by the deterministic synthetic model.
//
// # Derivation Conventions
//
// Temperature means are reported as warming anomalies against a 30-year
// historical baseline when a baseline is available and the period is a
// projection; historic periods report a zero anomaly. Event-style counts
// (hot days, heat waves) are normalized to an annual rate with
// count / (seriesLength/365), so series of any length yield days-per-year
// or events-per-year figures.
//
// Heat waves use non-overlapping 3-day windows: a counter increments while
// the daily mean exceeds 32°C and resets each time it reaches 3, so an
// unbroken 9-day hot streak counts as exactly 3 events. The 95th-percentile
// cutoff for extreme precipitation is index-based (sorted[floor(0.95·n)],
// no interpolation) and the total sums values strictly above the cutoff.
// Both behaviors are load-bearing for downstream consumers.
//
// # Risk Classification
//
// Every indicator maps to a five-level ordinal scale (low, medium, high,
// very_high, extreme) via an ascending four-element threshold vector with
// strict < band boundaries. Indicators where more negative means worse
// (crop yield change, drought severity) classify the magnitude of the
// negative excursion instead; non-negative values are always low.
//
// # Synthetic Model
//
// When neither stored nor live data exists, Generate produces a plausible
// value from a fixed trigonometric hash of (lat, lon, indicator seed) and
// coarse climate-zone heuristics, scaled by scenario and time-horizon
// severity multipliers. Output is bit-for-bit deterministic and tagged as
// synthetic provenance so it is never mistaken for measured data.
package domain
