package domain

import "time"

// Provenance tiers for returned values.
const (
	ProvenanceStored    = "stored"
	ProvenanceLive      = "live"
	ProvenanceSynthetic = "synthetic"
)

// GridDataPoint is one indicator value at one grid cell. The tuple
// (Source, IndicatorID, Scenario, TimePeriod, Latitude, Longitude) is unique
// in the store; rows are only ever replaced as a whole batch per cell key,
// never mutated field-by-field.
type GridDataPoint struct {
	Source      string    `json:"source"`
	IndicatorID string    `json:"indicator_id"`
	Scenario    string    `json:"scenario"`
	TimePeriod  string    `json:"time_period"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	Model       string    `json:"model,omitempty"`
	Percentile  float64   `json:"percentile"`
	DataSource  string    `json:"data_source,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CellKey identifies the grid cell a point belongs to. All indicators at one
// cell share a key and are replaced together on re-import.
func (p GridDataPoint) CellKey() CellKey {
	return CellKey{
		Source:     p.Source,
		Scenario:   p.Scenario,
		TimePeriod: p.TimePeriod,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
	}
}

// CellKey is the delete-then-insert replacement unit.
type CellKey struct {
	Source     string
	Scenario   string
	TimePeriod string
	Latitude   float64
	Longitude  float64
}

// LocationQuery is a point of interest to resolve indicators for.
type LocationQuery struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`

	// RadiusDeg bounds the nearest-neighbor search box in degrees.
	// Zero means the engine default.
	RadiusDeg float64 `json:"radius,omitempty"`
}

// RiskDataPoint is the classified result for one (location, indicator) pair.
// It is produced by every read path and never persisted.
type RiskDataPoint struct {
	LocationID  string    `json:"location_id"`
	IndicatorID string    `json:"indicator_id"`
	Scenario    string    `json:"scenario"`
	TimePeriod  string    `json:"time_period"`
	Value       float64   `json:"value"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Percentile  float64   `json:"percentile"`
	Provenance  string    `json:"provenance"`
}

// DailySeries holds parallel per-day arrays as fetched from the provider.
// Nil entries are days the upstream model produced no value.
type DailySeries struct {
	Time     []string
	MeanTemp []*float64
	MaxTemp  []*float64
	MinTemp  []*float64
	Precip   []*float64
}

// Compact drops nil entries from a nullable series.
func Compact(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}
