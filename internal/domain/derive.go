package domain

import (
	"fmt"
	"math"
	"sort"
)

// Derivation thresholds. Fixed by the indicator definitions; changing them
// changes the meaning of stored data.
const (
	hotDayThreshold35  = 35.0
	hotDayThreshold40  = 40.0
	heatwaveThresholdC = 32.0
	heatwaveRunDays    = 3
	drySpellThresholdMM = 1.0

	// seaLevelPerDegreeC is a crude linear proxy (metres of rise per degree
	// of warming). An approximation, not a physical sea-level model.
	seaLevelPerDegreeC = 0.25
)

// SeriesMean returns the arithmetic mean of a series.
func SeriesMean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// AnnualizedCount counts days strictly above threshold, normalized to a
// days-per-year rate via count / (n/365).
func AnnualizedCount(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	years := float64(len(values)) / 365.0
	return float64(count) / years
}

// HeatwaveEvents counts non-overlapping 3-day runs of daily means above 32°C,
// normalized to events per year. The run counter resets each time it reaches
// 3, so a 9-day unbroken streak yields exactly 3 events.
func HeatwaveEvents(meanTemp []float64) float64 {
	if len(meanTemp) == 0 {
		return 0
	}
	events := 0
	run := 0
	for _, v := range meanTemp {
		if v > heatwaveThresholdC {
			run++
			if run == heatwaveRunDays {
				events++
				run = 0
			}
		} else {
			run = 0
		}
	}
	years := float64(len(meanTemp)) / 365.0
	return float64(events) / years
}

// LongestDrySpell returns the maximum run of consecutive days with
// precipitation below 1mm.
func LongestDrySpell(precip []float64) float64 {
	longest, run := 0, 0
	for _, v := range precip {
		if v < drySpellThresholdMM {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	return float64(longest)
}

// ExtremePrecipTotal sums daily precipitation strictly above the series'
// 95th percentile. The cutoff is index-based: sorted[floor(0.95·n)], no
// interpolation between adjacent sorted values.
func ExtremePrecipTotal(precip []float64) float64 {
	if len(precip) == 0 {
		return 0
	}
	sorted := make([]float64, len(precip))
	copy(sorted, precip)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.95 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	cutoff := sorted[idx]

	var total float64
	for _, v := range precip {
		if v > cutoff {
			total += v
		}
	}
	return total
}

// CoastalProxy linearly scales a warming anomaly into a sea-level figure.
func CoastalProxy(anomalyC float64) float64 {
	return anomalyC * seaLevelPerDegreeC
}

// temperatureAnomaly implements the direct-mean rule: projected periods with
// a baseline report periodMean−baseline; historic periods report zero;
// without a baseline the absolute mean is the best available value.
func temperatureAnomaly(values []float64, baseline *float64, period TimePeriodDefinition) (float64, error) {
	mean, ok := SeriesMean(values)
	if !ok {
		return 0, fmt.Errorf("temperature series empty: %w", ErrMalformedResponse)
	}
	if period.Historic {
		return 0, nil
	}
	if baseline == nil {
		return mean, nil
	}
	return mean - *baseline, nil
}

// DeriveIndicator computes one cmip6-family indicator value from a daily
// series. baseline may be nil when the historical fetch failed.
func DeriveIndicator(def IndicatorDefinition, s DailySeries, baseline *float64, period TimePeriodDefinition) (float64, error) {
	meanTemp := Compact(s.MeanTemp)
	precip := Compact(s.Precip)

	switch def.ID {
	case "mean_temperature_change":
		return temperatureAnomaly(meanTemp, baseline, period)
	case "max_temperature_change":
		return temperatureAnomaly(Compact(s.MaxTemp), baseline, period)
	case "min_temperature_change":
		return temperatureAnomaly(Compact(s.MinTemp), baseline, period)
	case "precipitation_mean":
		mean, ok := SeriesMean(precip)
		if !ok {
			return 0, fmt.Errorf("precipitation series empty: %w", ErrMalformedResponse)
		}
		return mean, nil
	case "days_above_35c":
		return nonEmpty(Compact(s.MaxTemp), func(v []float64) float64 { return AnnualizedCount(v, hotDayThreshold35) })
	case "days_above_40c":
		return nonEmpty(Compact(s.MaxTemp), func(v []float64) float64 { return AnnualizedCount(v, hotDayThreshold40) })
	case "heatwave_frequency":
		return nonEmpty(meanTemp, HeatwaveEvents)
	case "longest_dry_spell":
		return nonEmpty(precip, LongestDrySpell)
	case "extreme_precipitation_total":
		return nonEmpty(precip, ExtremePrecipTotal)
	case "sea_level_rise_proxy":
		anomaly, err := temperatureAnomaly(meanTemp, baseline, period)
		if err != nil {
			return 0, err
		}
		return CoastalProxy(anomaly), nil
	default:
		return 0, fmt.Errorf("indicator %q has no series derivation", def.ID)
	}
}

func nonEmpty(values []float64, fn func([]float64) float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("series empty: %w", ErrMalformedResponse)
	}
	return fn(values), nil
}
