package domain

import (
	"strconv"
	"strings"
)

// ParseVotes converts a vote-count string to an integer after stripping
// thousands separators and surrounding whitespace. A value that is not
// an integer yields a *ParseError wrapping ErrNonNumeric; it is never
// coerced to zero.
func ParseVotes(raw string) (int64, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0, NewParseError(raw, ErrNonNumeric)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewParseError(raw, ErrNonNumeric)
	}
	return v, nil
}
