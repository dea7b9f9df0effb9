package application

import (
	"fmt"

	"github.com/ahrav/go-benford/internal/domain"
)

// FoldStats summarises one accumulation pass beyond the histogram
// itself. Skipped counts records excluded by a filter selector;
// Ineligible counts resolved values the digit policy rejected.
type FoldStats struct {
	Records    int
	Skipped    int
	Ineligible int
}

// Accumulate folds records into a fresh histogram. Each record is
// resolved along path; records failing a filter selector are skipped,
// fatal path and parse errors abort the fold. Every resolved value
// with a valid digit increments that digit's bucket and adds its raw
// value to the vote total.
//
// Accumulate is a pure function of its inputs and is safe to call
// concurrently over shared, read-only records.
func Accumulate(records domain.Sequence, path domain.Path, policy domain.DigitPolicy) (*domain.Histogram, error) {
	h, _, err := accumulate(records, path, policy)
	return h, err
}

func accumulate(records domain.Sequence, path domain.Path, policy domain.DigitPolicy) (*domain.Histogram, FoldStats, error) {
	h := domain.NewHistogram(policy.Mode())
	stats := FoldStats{Records: len(records)}

	for i, rec := range records {
		raw, ok, err := Resolve(rec, path)
		if err != nil {
			return nil, stats, fmt.Errorf("record %d: %w", i, err)
		}
		if !ok {
			stats.Skipped++
			continue
		}

		value, err := domain.ParseVotes(string(raw))
		if err != nil {
			return nil, stats, fmt.Errorf("record %d at %s: %w", i, path, err)
		}

		digit, ok := policy.Extract(value)
		if !ok {
			stats.Ineligible++
			continue
		}
		if err := h.Observe(digit, value); err != nil {
			return nil, stats, fmt.Errorf("record %d: %w", i, err)
		}
	}

	return h, stats, nil
}
