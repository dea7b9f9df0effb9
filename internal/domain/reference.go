package domain

// Benford proportions as published for the first- and second-digit
// tests. The last and second-last digit references are uniform.
var (
	firstDigitLaw  = []float64{0.301, 0.176, 0.125, 0.097, 0.079, 0.067, 0.058, 0.051, 0.046}
	secondDigitLaw = []float64{0.12, 0.114, 0.109, 0.104, 0.1, 0.097, 0.093, 0.09, 0.088, 0.085}
	lastDigitLaw   = []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
)

// ReferenceLabel is the series name of the reference law in comparison
// tables.
const ReferenceLabel = "Benford's Law"

// ReferenceLaw returns the expected distribution for mode. The zero
// Distribution is returned for an unsupported mode.
func ReferenceLaw(mode DigitMode) Distribution {
	var props []float64
	switch mode {
	case DigitFirst:
		props = firstDigitLaw
	case DigitSecond:
		props = secondDigitLaw
	case DigitLast, DigitSecondLast:
		props = lastDigitLaw
	default:
		return Distribution{}
	}
	d, err := NewDistribution(mode, props)
	if err != nil {
		return Distribution{}
	}
	return d
}
