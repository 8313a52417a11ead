package domain

// Source families. The cmip6 family is backed by the climate projection API
// and its indicators are derived from daily series; the impact family has no
// fetchable upstream in this service and resolves through the synthetic model.
const (
	SourceCMIP6  = "cmip6"
	SourceImpact = "impact"
)

// Category groups indicators by hazard type.
type Category string

const (
	CategoryTemperature   Category = "temperature"
	CategoryPrecipitation Category = "precipitation"
	CategoryExtreme       Category = "extreme"
	CategoryDrought       Category = "drought"
	CategoryFlood         Category = "flood"
	CategoryCoastal       Category = "coastal"
	CategoryWater         Category = "water"
	CategoryAgriculture   Category = "agriculture"
	CategoryWildfire      Category = "wildfire"
	CategoryStorm         Category = "storm"
	CategoryHealth        Category = "health"
)

// Polarity states which direction of an indicator's value is bad.
type Polarity string

const (
	HigherIsWorse Polarity = "higher_is_worse"
	LowerIsWorse  Polarity = "lower_is_worse"
)

// IndicatorDefinition describes one climate-hazard metric. Definitions are
// immutable and loaded once from the package-level catalog.
type IndicatorDefinition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Category Category `json:"category"`
	Polarity Polarity `json:"polarity"`
	Source   string   `json:"source"`

	// Seed feeds the synthetic hash so each indicator produces an
	// independent pseudo-random sequence over the same coordinates.
	Seed float64 `json:"-"`

	// Thresholds is the ascending risk vector [t0,t1,t2,t3]. Nil means
	// DefaultThresholds applies.
	Thresholds []float64 `json:"-"`
}

// catalog is the full indicator registry, cmip6 family first.
var catalog = []IndicatorDefinition{
	{ID: "mean_temperature_change", Name: "Mean Temperature Change", Unit: "°C", Category: CategoryTemperature, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 1, Thresholds: []float64{1, 2, 3, 4}},
	{ID: "max_temperature_change", Name: "Max Temperature Change", Unit: "°C", Category: CategoryTemperature, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 2, Thresholds: []float64{1.5, 2.5, 3.5, 5}},
	{ID: "min_temperature_change", Name: "Min Temperature Change", Unit: "°C", Category: CategoryTemperature, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 3, Thresholds: []float64{1, 2, 3, 4}},
	{ID: "precipitation_mean", Name: "Mean Daily Precipitation", Unit: "mm/day", Category: CategoryPrecipitation, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 4, Thresholds: []float64{4, 8, 12, 18}},
	{ID: "days_above_35c", Name: "Days Above 35°C", Unit: "days/year", Category: CategoryExtreme, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 5, Thresholds: []float64{10, 30, 60, 100}},
	{ID: "days_above_40c", Name: "Days Above 40°C", Unit: "days/year", Category: CategoryExtreme, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 6, Thresholds: []float64{5, 15, 40, 80}},
	{ID: "heatwave_frequency", Name: "Heat Wave Frequency", Unit: "events/year", Category: CategoryExtreme, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 7, Thresholds: []float64{2, 5, 10, 18}},
	{ID: "longest_dry_spell", Name: "Longest Dry Spell", Unit: "days", Category: CategoryDrought, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 8, Thresholds: []float64{20, 40, 60, 90}},
	{ID: "extreme_precipitation_total", Name: "Extreme Precipitation Total", Unit: "mm", Category: CategoryFlood, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 9, Thresholds: []float64{50, 120, 250, 400}},
	{ID: "sea_level_rise_proxy", Name: "Sea Level Rise Proxy", Unit: "m", Category: CategoryCoastal, Polarity: HigherIsWorse, Source: SourceCMIP6, Seed: 10, Thresholds: []float64{0.2, 0.4, 0.6, 0.9}},

	{ID: "water_stress_index", Name: "Water Stress Index", Unit: "%", Category: CategoryWater, Polarity: HigherIsWorse, Source: SourceImpact, Seed: 11},
	{ID: "drought_severity_index", Name: "Drought Severity Index", Unit: "index", Category: CategoryDrought, Polarity: LowerIsWorse, Source: SourceImpact, Seed: 12, Thresholds: []float64{0.5, 1, 1.5, 2}},
	{ID: "crop_yield_change", Name: "Crop Yield Change", Unit: "%", Category: CategoryAgriculture, Polarity: LowerIsWorse, Source: SourceImpact, Seed: 13, Thresholds: []float64{5, 10, 20, 30}},
	{ID: "wildfire_danger_days", Name: "Wildfire Danger Days", Unit: "days/year", Category: CategoryWildfire, Polarity: HigherIsWorse, Source: SourceImpact, Seed: 14, Thresholds: []float64{15, 35, 60, 90}},
	{ID: "cyclone_frequency", Name: "Tropical Cyclone Frequency", Unit: "events/decade", Category: CategoryStorm, Polarity: HigherIsWorse, Source: SourceImpact, Seed: 15, Thresholds: []float64{1, 2, 4, 6}},
	{ID: "heat_health_risk", Name: "Heat Health Risk", Unit: "index", Category: CategoryHealth, Polarity: HigherIsWorse, Source: SourceImpact, Seed: 16},
}

// Catalog returns the indicator definitions for a source family, or the whole
// registry when source is empty.
func Catalog(source string) []IndicatorDefinition {
	if source == "" {
		out := make([]IndicatorDefinition, len(catalog))
		copy(out, catalog)
		return out
	}
	var out []IndicatorDefinition
	for _, def := range catalog {
		if def.Source == source {
			out = append(out, def)
		}
	}
	return out
}

// IndicatorByID looks up a single definition.
func IndicatorByID(id string) (IndicatorDefinition, bool) {
	for _, def := range catalog {
		if def.ID == id {
			return def, true
		}
	}
	return IndicatorDefinition{}, false
}

// ScenarioDefinition is an emissions pathway. Multiplier scales synthetic
// output only; real ingestion derives scenario differences from actual data.
type ScenarioDefinition struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Multiplier float64 `json:"-"`
}

// TimePeriodDefinition is a multi-decade horizon. StartDate/EndDate bound the
// provider fetch for the period; Multiplier scales synthetic output only.
type TimePeriodDefinition struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	StartDate  string  `json:"-"`
	EndDate    string  `json:"-"`
	Historic   bool    `json:"historic"`
	Multiplier float64 `json:"-"`
}

// Scenarios lists the supported emissions pathways, mildest first.
var Scenarios = []ScenarioDefinition{
	{ID: "ssp126", Name: "SSP1-2.6 Low Emissions", Multiplier: 0.8},
	{ID: "ssp245", Name: "SSP2-4.5 Intermediate Emissions", Multiplier: 1.0},
	{ID: "ssp370", Name: "SSP3-7.0 High Emissions", Multiplier: 1.3},
	{ID: "ssp585", Name: "SSP5-8.5 Very High Emissions", Multiplier: 1.6},
}

// TimePeriods lists the supported horizons, historic first.
var TimePeriods = []TimePeriodDefinition{
	{ID: "1995-2014", Name: "Historic Baseline", StartDate: "1995-01-01", EndDate: "2014-12-31", Historic: true, Multiplier: 0.5},
	{ID: "2021-2040", Name: "Near Term", StartDate: "2021-01-01", EndDate: "2040-12-31", Multiplier: 0.8},
	{ID: "2041-2060", Name: "Mid Century", StartDate: "2041-01-01", EndDate: "2060-12-31", Multiplier: 1.0},
	{ID: "2061-2080", Name: "Late Century", StartDate: "2061-01-01", EndDate: "2080-12-31", Multiplier: 1.3},
	{ID: "2081-2100", Name: "End of Century", StartDate: "2081-01-01", EndDate: "2100-12-31", Multiplier: 1.6},
}

// ScenarioByID looks up a scenario, falling back to the intermediate pathway
// for unknown ids so synthetic generation always has a multiplier.
func ScenarioByID(id string) ScenarioDefinition {
	for _, s := range Scenarios {
		if s.ID == id {
			return s
		}
	}
	return Scenarios[1]
}

// TimePeriodByID looks up a period, falling back to mid-century.
func TimePeriodByID(id string) TimePeriodDefinition {
	for _, p := range TimePeriods {
		if p.ID == id {
			return p
		}
	}
	return TimePeriods[2]
}
