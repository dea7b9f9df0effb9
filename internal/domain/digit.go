package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DigitMode selects which digit position is tested. It is fixed per run
// and determines the extraction offset, the inclusion rule and the
// reference law used for comparison.
type DigitMode int

// Supported digit modes.
const (
	// DigitFirst tests the leading digit (1-9).
	DigitFirst DigitMode = iota + 1
	// DigitSecond tests the second digit (0-9) of values with at least
	// two digits.
	DigitSecond
	// DigitLast tests the final digit (0-9). Fabricated tallies tend to
	// drift from a uniform last digit, which makes it a useful companion
	// screen to the leading-digit law.
	DigitLast
	// DigitSecondLast tests the tens digit (0-9) of values with at least
	// two digits. It is reported next to DigitLast and is also uniform.
	DigitSecondLast
)

// ParseDigitMode converts a configuration string to a DigitMode.
func ParseDigitMode(s string) (DigitMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "1", "1st":
		return DigitFirst, nil
	case "second", "2", "2nd":
		return DigitSecond, nil
	case "last":
		return DigitLast, nil
	case "second_last", "second-last", "penultimate":
		return DigitSecondLast, nil
	default:
		return 0, fmt.Errorf("%w: unknown digit mode %q", ErrInvalidConfiguration, s)
	}
}

// String returns the configuration name of the mode.
func (m DigitMode) String() string {
	switch m {
	case DigitFirst:
		return "first"
	case DigitSecond:
		return "second"
	case DigitLast:
		return "last"
	case DigitSecondLast:
		return "second_last"
	default:
		return fmt.Sprintf("DigitMode(%d)", int(m))
	}
}

// Label is the human-readable axis label for the mode.
func (m DigitMode) Label() string {
	switch m {
	case DigitFirst:
		return "Leading Digit Value"
	case DigitSecond:
		return "Second Digit Value"
	case DigitLast:
		return "Last Digit Value"
	case DigitSecondLast:
		return "Second Last Digit Value"
	default:
		return "Digit Value"
	}
}

// MinDigit is the smallest digit the mode can produce.
func (m DigitMode) MinDigit() int {
	if m == DigitFirst {
		return 1
	}
	return 0
}

// Digits returns the mode's digit domain in ascending order.
func (m DigitMode) Digits() []int {
	lo := m.MinDigit()
	out := make([]int, 0, 10-lo)
	for d := lo; d <= 9; d++ {
		out = append(out, d)
	}
	return out
}

// Valid reports whether m is one of the supported modes.
func (m DigitMode) Valid() bool {
	return m >= DigitFirst && m <= DigitSecondLast
}

// DigitPolicy decides which digit is extracted from an observation and
// whether the observation is eligible at all.
type DigitPolicy struct {
	mode DigitMode
}

// NewDigitPolicy returns the policy for mode.
func NewDigitPolicy(mode DigitMode) (DigitPolicy, error) {
	if !mode.Valid() {
		return DigitPolicy{}, fmt.Errorf("%w: digit mode %d", ErrInvalidConfiguration, int(mode))
	}
	return DigitPolicy{mode: mode}, nil
}

// Mode returns the policy's digit mode.
func (p DigitPolicy) Mode() DigitMode { return p.mode }

// Extract returns the digit of value selected by the policy. ok is false
// when the value is ineligible: negative, zero in first/last mode, or
// below 10 in second and second_last mode. Ineligible values must be excluded from the
// histogram, not counted as zero.
func (p DigitPolicy) Extract(value int64) (digit int, ok bool) {
	switch p.mode {
	case DigitFirst:
		if value <= 0 {
			return 0, false
		}
		s := strconv.FormatInt(value, 10)
		return int(s[0] - '0'), true
	case DigitSecond:
		if value < 10 {
			return 0, false
		}
		s := strconv.FormatInt(value, 10)
		return int(s[1] - '0'), true
	case DigitLast:
		if value <= 0 {
			return 0, false
		}
		return int(value % 10), true
	case DigitSecondLast:
		if value < 10 {
			return 0, false
		}
		return int(value / 10 % 10), true
	default:
		return 0, false
	}
}
