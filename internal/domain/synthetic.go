package domain

import "math"

// HashFraction derives a reproducible pseudo-random fraction in [0, 1) from a
// coordinate and an indicator seed using the classic trigonometric hash
// frac(sin(lat·12.9898 + lon·78.233 + seed) · 43758.5453). The exact formula
// is load-bearing: stored synthetic values must reproduce bit-for-bit across
// runs and releases.
func HashFraction(lat, lon, seed float64) float64 {
	x := math.Sin(lat*12.9898+lon*78.233+seed) * 43758.5453
	return x - math.Floor(x)
}

// Climate-zone heuristics. Coarse on purpose: the synthetic model only has a
// coordinate to work with, so it leans on latitude belts and a few bounding
// boxes to pick plausible magnitudes.

func isTropical(lat float64) bool { return math.Abs(lat) < 23.5 }
func isPolar(lat float64) bool    { return math.Abs(lat) > 55 }

func isSubtropical(lat float64) bool {
	a := math.Abs(lat)
	return a >= 23.5 && a < 35
}

// isDryBelt covers the subtropical high-pressure belts where the world's
// major deserts sit.
func isDryBelt(lat float64) bool {
	a := math.Abs(lat)
	return a >= 20 && a <= 35
}

// isMonsoonBelt is a bounding box over South/Southeast Asia.
func isMonsoonBelt(lat, lon float64) bool {
	return lat >= 5 && lat <= 30 && lon >= 60 && lon <= 120
}

// isCycloneBasin covers the longitude bands of the Atlantic, West Pacific,
// and Indian ocean basins within tropical-cyclone latitudes.
func isCycloneBasin(lat, lon float64) bool {
	a := math.Abs(lat)
	if a < 5 || a > 35 {
		return false
	}
	switch {
	case lon >= -100 && lon <= -60: // Atlantic
		return true
	case lon >= 100 && lon <= 180: // West Pacific
		return true
	case lon >= 40 && lon <= 100: // Indian
		return true
	}
	return false
}

// baseRange picks the plausible value range for an indicator at a coordinate.
// Lower-is-worse categories return negative ranges so the sign survives the
// severity multipliers.
func baseRange(def IndicatorDefinition, lat, lon float64) (lo, hi float64) {
	switch def.Category {
	case CategoryTemperature:
		// Polar amplification: high latitudes warm faster.
		if isPolar(lat) {
			return 1.2, 2.8
		}
		return 0.8, 1.8
	case CategoryPrecipitation:
		switch {
		case isMonsoonBelt(lat, lon):
			return 8, 16
		case isTropical(lat):
			return 5, 12
		case isDryBelt(lat):
			return 0.5, 2.5
		default:
			return 2, 6
		}
	case CategoryExtreme:
		switch {
		case isDryBelt(lat):
			return 20, 65
		case isTropical(lat):
			return 10, 40
		case isPolar(lat):
			return 0, 2
		default:
			return 3, 15
		}
	case CategoryDrought:
		if def.Polarity == LowerIsWorse {
			if isDryBelt(lat) {
				return -2.2, -0.8
			}
			return -1.2, -0.2
		}
		if isDryBelt(lat) {
			return 30, 75
		}
		return 10, 35
	case CategoryFlood:
		switch {
		case isMonsoonBelt(lat, lon):
			return 150, 380
		case isTropical(lat):
			return 90, 260
		default:
			return 40, 140
		}
	case CategoryCoastal:
		return 0.15, 0.55
	case CategoryWater:
		if isDryBelt(lat) {
			return 45, 85
		}
		return 10, 45
	case CategoryAgriculture:
		if isTropical(lat) || isDryBelt(lat) {
			return -22, -6
		}
		return -8, 4
	case CategoryWildfire:
		switch {
		case isDryBelt(lat) || isSubtropical(lat):
			return 25, 75
		case isPolar(lat):
			return 0, 5
		default:
			return 8, 30
		}
	case CategoryStorm:
		if isCycloneBasin(lat, lon) {
			return 1.5, 7
		}
		return 0, 0.8
	case CategoryHealth:
		if isTropical(lat) {
			return 45, 85
		}
		return 15, 50
	default:
		return 10, 60
	}
}

// Generate produces a deterministic synthetic indicator value for a
// coordinate, scenario, and horizon. It is a pure function: identical inputs
// always produce the identical output, with no hidden state or wall-clock
// dependency. Values are rounded to two decimals.
func Generate(def IndicatorDefinition, lat, lon float64, scenario ScenarioDefinition, period TimePeriodDefinition) float64 {
	f := HashFraction(lat, lon, def.Seed)
	lo, hi := baseRange(def, lat, lon)
	v := lo + f*(hi-lo)
	v *= scenario.Multiplier * period.Multiplier
	return math.Round(v*100) / 100
}

// GenerateByID is Generate with catalog lookups from string ids.
func GenerateByID(indicatorID string, lat, lon float64, scenarioID, periodID string) (float64, bool) {
	def, ok := IndicatorByID(indicatorID)
	if !ok {
		return 0, false
	}
	return Generate(def, lat, lon, ScenarioByID(scenarioID), TimePeriodByID(periodID)), true
}
