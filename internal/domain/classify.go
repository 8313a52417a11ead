package domain

// RiskLevel is the five-step ordinal risk scale.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very_high"
	RiskExtreme  RiskLevel = "extreme"
)

// DefaultThresholds applies to indicators without an explicit vector.
var DefaultThresholds = []float64{25, 50, 75, 90}

// Classify maps a raw value to a risk level using the indicator's ascending
// threshold vector [t0,t1,t2,t3] with strict < boundaries: a value exactly on
// a threshold lands in the higher band.
//
// For lower-is-worse indicators the comparison inverts: non-negative values
// are low and the magnitude of the negative excursion walks the bands.
func Classify(def IndicatorDefinition, value float64) RiskLevel {
	t := def.Thresholds
	if len(t) != 4 {
		t = DefaultThresholds
	}

	if def.Polarity == LowerIsWorse {
		if value >= 0 {
			return RiskLow
		}
		m := -value
		switch {
		case m < t[0]:
			return RiskMedium
		case m < t[1]:
			return RiskHigh
		case m < t[2]:
			return RiskVeryHigh
		default:
			return RiskExtreme
		}
	}

	switch {
	case value < t[0]:
		return RiskLow
	case value < t[1]:
		return RiskMedium
	case value < t[2]:
		return RiskHigh
	case value < t[3]:
		return RiskVeryHigh
	default:
		return RiskExtreme
	}
}

// ClassifyByID is Classify with a catalog lookup; unknown indicators use the
// default vector and higher-is-worse polarity.
func ClassifyByID(indicatorID string, value float64) RiskLevel {
	def, ok := IndicatorByID(indicatorID)
	if !ok {
		def = IndicatorDefinition{Polarity: HigherIsWorse}
	}
	return Classify(def, value)
}
