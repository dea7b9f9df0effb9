package domain

// Distribution maps each digit of a mode's domain to a proportion in
// [0,1]. Distributions derived from a non-empty histogram sum to 1 within
// floating-point tolerance. The zero value is an undefined distribution.
//
// Distribution is a value type with no exported mutable state, so it can
// be shared freely once produced.
type Distribution struct {
	mode  DigitMode
	props [10]float64
}

// NewDistribution builds a distribution from proportions aligned with
// mode.Digits(). It is used for fixed reference vectors.
func NewDistribution(mode DigitMode, proportions []float64) (Distribution, error) {
	if !mode.Valid() {
		return Distribution{}, ErrInvalidConfiguration
	}
	digits := mode.Digits()
	if len(proportions) != len(digits) {
		return Distribution{}, ErrInvalidState
	}
	d := Distribution{mode: mode}
	for i, digit := range digits {
		d.props[digit] = proportions[i]
	}
	return d, nil
}

// Mode returns the digit mode of the distribution.
func (d Distribution) Mode() DigitMode { return d.mode }

// Defined reports whether the distribution was produced from data or a
// reference vector, as opposed to being the zero value.
func (d Distribution) Defined() bool { return d.mode.Valid() }

// Digits returns the digit domain of the distribution.
func (d Distribution) Digits() []int { return d.mode.Digits() }

// Proportion returns the proportion at digit, zero outside the domain.
func (d Distribution) Proportion(digit int) float64 {
	if !d.Defined() || digit < d.mode.MinDigit() || digit > 9 {
		return 0
	}
	return d.props[digit]
}

// Proportions returns the proportions aligned with Digits().
func (d Distribution) Proportions() []float64 {
	if !d.Defined() {
		return nil
	}
	out := make([]float64, 0, 10-d.mode.MinDigit())
	for digit := d.mode.MinDigit(); digit <= 9; digit++ {
		out = append(out, d.props[digit])
	}
	return out
}

// Sum returns the sum of all proportions.
func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d.Proportions() {
		s += p
	}
	return s
}
