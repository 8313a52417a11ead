package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_HigherIsWorse(t *testing.T) {
	def := IndicatorDefinition{
		Polarity:   HigherIsWorse,
		Thresholds: []float64{10, 30, 60, 100},
	}

	tests := []struct {
		name     string
		value    float64
		expected RiskLevel
	}{
		{"well below first threshold", 0, RiskLow},
		{"just below first threshold", 9.99, RiskLow},
		{"exactly on first threshold is medium", 10, RiskMedium},
		{"mid band", 45, RiskHigh},
		{"exactly on third threshold", 60, RiskVeryHigh},
		{"above last threshold", 150, RiskExtreme},
		{"exactly on last threshold", 100, RiskExtreme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(def, tt.value))
		})
	}
}

func TestClassify_LowerIsWorse(t *testing.T) {
	def := IndicatorDefinition{
		Polarity:   LowerIsWorse,
		Thresholds: []float64{5, 10, 20, 30},
	}

	tests := []struct {
		name     string
		value    float64
		expected RiskLevel
	}{
		{"positive is always low", 12, RiskLow},
		{"zero is low", 0, RiskLow},
		{"small negative", -3, RiskMedium},
		{"moderate negative", -7, RiskHigh},
		{"large negative", -15, RiskVeryHigh},
		{"beyond third threshold", -25, RiskExtreme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(def, tt.value))
		})
	}
}

func TestClassify_DefaultThresholds(t *testing.T) {
	def := IndicatorDefinition{Polarity: HigherIsWorse}

	assert.Equal(t, RiskLow, Classify(def, 24))
	assert.Equal(t, RiskMedium, Classify(def, 25))
	assert.Equal(t, RiskHigh, Classify(def, 50))
	assert.Equal(t, RiskVeryHigh, Classify(def, 75))
	assert.Equal(t, RiskExtreme, Classify(def, 90))
}

func TestClassifyByID(t *testing.T) {
	// Catalog indicator with an explicit vector.
	assert.Equal(t, RiskLow, ClassifyByID("days_above_35c", 5))
	assert.Equal(t, RiskExtreme, ClassifyByID("days_above_35c", 120))

	// Lower-is-worse catalog indicator.
	assert.Equal(t, RiskLow, ClassifyByID("crop_yield_change", 2))
	assert.Equal(t, RiskExtreme, ClassifyByID("crop_yield_change", -28))

	// Unknown ids fall back to the default vector.
	assert.Equal(t, RiskMedium, ClassifyByID("no_such_indicator", 30))
}

func TestCatalogThresholdsAscending(t *testing.T) {
	for _, def := range Catalog("") {
		if def.Thresholds == nil {
			continue
		}
		require.Len(t, def.Thresholds, 4, def.ID)
		for i := 1; i < 4; i++ {
			assert.Greater(t, def.Thresholds[i], def.Thresholds[i-1], def.ID)
		}
	}
}
