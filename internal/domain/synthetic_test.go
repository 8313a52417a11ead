package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFraction(t *testing.T) {
	t.Run("origin with zero seed is a fixed point", func(t *testing.T) {
		// sin(0) = 0, so the hash is exactly 0 regardless of the scale factor.
		assert.Equal(t, 0.0, HashFraction(0, 0, 0))
	})

	t.Run("always in [0,1)", func(t *testing.T) {
		coords := []struct{ lat, lon, seed float64 }{
			{51.5, -0.1, 1}, {-33.9, 151.2, 7}, {90, 180, 3},
			{-90, -180, 16}, {0.0001, -0.0001, 5},
		}
		for _, c := range coords {
			f := HashFraction(c.lat, c.lon, c.seed)
			assert.GreaterOrEqual(t, f, 0.0)
			assert.Less(t, f, 1.0)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, HashFraction(48.9, 2.3, 4), HashFraction(48.9, 2.3, 4))
	})

	t.Run("seed decorrelates indicators", func(t *testing.T) {
		assert.NotEqual(t, HashFraction(48.9, 2.3, 1), HashFraction(48.9, 2.3, 2))
	})
}

func TestGenerate_Deterministic(t *testing.T) {
	scenario := ScenarioByID("ssp370")
	period := TimePeriodByID("2061-2080")

	for _, def := range Catalog("") {
		first := Generate(def, 12.97, 77.59, scenario, period)
		second := Generate(def, 12.97, 77.59, scenario, period)
		assert.Equal(t, first, second, def.ID)
	}
}

func TestGenerate_ScenarioOrdering(t *testing.T) {
	// For a positive-valued indicator the severity multipliers must order
	// scenarios from mildest to worst at a fixed coordinate.
	def, ok := IndicatorByID("days_above_35c")
	require.True(t, ok)
	period := TimePeriodByID("2041-2060")

	low := Generate(def, 25.2, 55.3, ScenarioByID("ssp126"), period)
	mid := Generate(def, 25.2, 55.3, ScenarioByID("ssp245"), period)
	high := Generate(def, 25.2, 55.3, ScenarioByID("ssp585"), period)

	assert.Less(t, low, mid)
	assert.Less(t, mid, high)
}

func TestGenerate_HorizonOrdering(t *testing.T) {
	def, ok := IndicatorByID("water_stress_index")
	require.True(t, ok)
	scenario := ScenarioByID("ssp245")

	near := Generate(def, 28.6, 77.2, scenario, TimePeriodByID("2021-2040"))
	end := Generate(def, 28.6, 77.2, scenario, TimePeriodByID("2081-2100"))

	assert.Less(t, near, end)
}

func TestGenerate_LowerIsWorseSign(t *testing.T) {
	def, ok := IndicatorByID("crop_yield_change")
	require.True(t, ok)

	// Tropical coordinates produce a strictly negative yield change.
	v := Generate(def, 5.6, -55.2, ScenarioByID("ssp585"), TimePeriodByID("2081-2100"))
	assert.Negative(t, v)
}

func TestGenerate_CycloneBasins(t *testing.T) {
	def, ok := IndicatorByID("cyclone_frequency")
	require.True(t, ok)
	scenario := ScenarioByID("ssp245")
	period := TimePeriodByID("2041-2060")

	// Gulf of Mexico sits in the Atlantic basin band; the mid-Atlantic
	// temperate ocean does not.
	basin := Generate(def, 25.0, -90.0, scenario, period)
	outside := Generate(def, 50.0, -30.0, scenario, period)

	assert.Greater(t, basin, 1.0)
	assert.Less(t, outside, 1.0)
}

func TestGenerateByID(t *testing.T) {
	v, ok := GenerateByID("heat_health_risk", -1.3, 36.8, "ssp370", "2061-2080")
	require.True(t, ok)
	assert.NotZero(t, v)

	_, ok = GenerateByID("no_such_indicator", 0, 0, "ssp126", "2021-2040")
	assert.False(t, ok)
}
