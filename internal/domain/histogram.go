package domain

import (
	"fmt"
)

// Histogram counts observations per digit for one group. Its key set is
// always exactly the digit domain of its mode. TotalVotes is the sum of
// the raw values that contributed an observation, not the observation
// count.
//
// A Histogram is owned by the accumulation pass that created it and is
// not safe for concurrent mutation.
type Histogram struct {
	mode       DigitMode
	counts     [10]int64
	totalVotes int64
}

// NewHistogram returns an empty histogram for mode.
func NewHistogram(mode DigitMode) *Histogram {
	return &Histogram{mode: mode}
}

// Mode returns the histogram's digit mode.
func (h *Histogram) Mode() DigitMode { return h.mode }

// Observe records one eligible observation: digit is incremented and
// value is added to the vote total. It returns an error if digit lies
// outside the mode's domain.
func (h *Histogram) Observe(digit int, value int64) error {
	if digit < h.mode.MinDigit() || digit > 9 {
		return fmt.Errorf("%w: digit %d outside %s-digit domain", ErrInvalidState, digit, h.mode)
	}
	h.counts[digit]++
	h.totalVotes += value
	return nil
}

// Count returns the number of observations at digit. Digits outside the
// mode's domain report zero.
func (h *Histogram) Count(digit int) int64 {
	if digit < h.mode.MinDigit() || digit > 9 {
		return 0
	}
	return h.counts[digit]
}

// Counts returns the per-digit counts aligned with Mode().Digits().
func (h *Histogram) Counts() []int64 {
	lo := h.mode.MinDigit()
	out := make([]int64, 0, 10-lo)
	for d := lo; d <= 9; d++ {
		out = append(out, h.counts[d])
	}
	return out
}

// Observations returns the total number of observations.
func (h *Histogram) Observations() int64 {
	var n int64
	for d := h.mode.MinDigit(); d <= 9; d++ {
		n += h.counts[d]
	}
	return n
}

// TotalVotes returns the sum of the values that contributed.
func (h *Histogram) TotalVotes() int64 { return h.totalVotes }

// Normalize converts h into a probability distribution. It returns
// ErrEmptyHistogram when h has no observations; callers skip such groups
// instead of dividing by zero. Raw empirical proportions are used with
// no smoothing.
func Normalize(h *Histogram) (Distribution, error) {
	total := h.Observations()
	if total == 0 {
		return Distribution{}, ErrEmptyHistogram
	}
	d := Distribution{mode: h.mode}
	for digit := h.mode.MinDigit(); digit <= 9; digit++ {
		d.props[digit] = float64(h.counts[digit]) / float64(total)
	}
	return d, nil
}
