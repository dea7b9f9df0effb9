package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitPolicyExtract(t *testing.T) {
	tests := []struct {
		name   string
		mode   DigitMode
		value  int64
		want   int
		wantOK bool
	}{
		{"first zero excluded", DigitFirst, 0, 0, false},
		{"first single digit", DigitFirst, 7, 7, true},
		{"first multi digit", DigitFirst, 734, 7, true},
		{"first negative excluded", DigitFirst, -734, 0, false},
		{"first large", DigitFirst, 9_000_000_001, 9, true},
		{"second below ten excluded", DigitSecond, 7, 0, false},
		{"second zero excluded", DigitSecond, 0, 0, false},
		{"second ten", DigitSecond, 10, 0, true},
		{"second multi digit", DigitSecond, 734, 3, true},
		{"second negative excluded", DigitSecond, -734, 0, false},
		{"last zero excluded", DigitLast, 0, 0, false},
		{"last single digit", DigitLast, 7, 7, true},
		{"last multi digit", DigitLast, 730, 0, true},
		{"second last below ten excluded", DigitSecondLast, 7, 0, false},
		{"second last zero excluded", DigitSecondLast, 0, 0, false},
		{"second last ten", DigitSecondLast, 10, 1, true},
		{"second last multi digit", DigitSecondLast, 734, 3, true},
		{"second last large", DigitSecondLast, 9_000_000_051, 5, true},
		{"second last negative excluded", DigitSecondLast, -734, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := NewDigitPolicy(tt.mode)
			require.NoError(t, err)

			got, ok := policy.Extract(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewDigitPolicyRejectsUnknownMode(t *testing.T) {
	_, err := NewDigitPolicy(DigitMode(42))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseDigitMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DigitMode
		wantErr bool
	}{
		{"first", DigitFirst, false},
		{" 1st ", DigitFirst, false},
		{"SECOND", DigitSecond, false},
		{"2", DigitSecond, false},
		{"last", DigitLast, false},
		{"second_last", DigitSecondLast, false},
		{"Penultimate", DigitSecondLast, false},
		{"third", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDigitMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestDigitModeDigits(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, DigitFirst.Digits())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, DigitSecond.Digits())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, DigitLast.Digits())
	assert.Equal(t, "Leading Digit Value", DigitFirst.Label())
	assert.Equal(t, "second", DigitSecond.String())
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, DigitSecondLast.Digits())
	assert.Equal(t, "Second Last Digit Value", DigitSecondLast.Label())
	assert.Equal(t, "second_last", DigitSecondLast.String())
	assert.False(t, DigitMode(DigitSecondLast+1).Valid())
}

func TestReferenceLawSecondLastIsUniform(t *testing.T) {
	assert.Equal(t, ReferenceLaw(DigitLast).Proportions(), ReferenceLaw(DigitSecondLast).Proportions())
	assert.Equal(t, DigitSecondLast, ReferenceLaw(DigitSecondLast).Mode())
}
