package render

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-benford/internal/domain"
)

// sampleReport builds a one-pass first-digit report with two candidates.
func sampleReport(t *testing.T) *domain.Report {
	t.Helper()

	group := func(cand string, votes ...int64) *domain.GroupResult {
		h := domain.NewHistogram(domain.DigitFirst)
		policy, err := domain.NewDigitPolicy(domain.DigitFirst)
		require.NoError(t, err)
		for _, v := range votes {
			d, ok := policy.Extract(v)
			require.True(t, ok)
			require.NoError(t, h.Observe(d, v))
		}
		dist, err := domain.Normalize(h)
		require.NoError(t, err)
		return &domain.GroupResult{
			Key:          domain.GroupKey{Candidate: cand},
			Histogram:    h,
			Distribution: dist,
			TotalVotes:   h.TotalVotes(),
			Observations: h.Observations(),
		}
	}
	biden := group("Biden", 1234, 56)
	trump := group("Trump", 987, 2001)
	ref := domain.ReferenceLaw(domain.DigitFirst)

	return &domain.Report{
		RunID:     "run-42",
		Dataset:   "pa",
		Label:     "PA",
		Mode:      domain.DigitFirst,
		Reference: ref,
		Passes: []domain.PassResult{{
			Grouping:    "by_county",
			Description: "All Votes",
			Groups:      []*domain.GroupResult{biden, trump},
			Empty:       []domain.GroupKey{{Candidate: "Jorgensen"}},
			Comparisons: []domain.ComparisonTable{{
				Caption: "All Candidates",
				Digits:  domain.DigitFirst.Digits(),
				Series: []domain.Series{
					{Label: "Biden", Distribution: biden.Distribution},
					{Label: "Trump", Distribution: trump.Distribution},
					{Label: domain.ReferenceLabel, Distribution: ref, Reference: true},
				},
				TotalVotes:   biden.TotalVotes + trump.TotalVotes,
				Observations: 4,
			}},
		}},
		Shares: domain.VoteShares([]string{"Biden", "Trump"}, []*domain.GroupResult{biden, trump}),
	}
}

func TestTextRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextRenderer(&buf, true)

	require.NoError(t, r.Render(context.Background(), sampleReport(t)))
	out := buf.String()

	assert.Contains(t, out, "== PA (first digit test, run run-42) ==")
	assert.Contains(t, out, "PA (All Votes) Biden Vote Count - 1,290, Size - 2")
	assert.Contains(t, out, "PA (All Votes) All Candidates Vote Count - 4,278, Size - 4")
	assert.Contains(t, out, "Leading Digit Value")
	assert.Contains(t, out, "Benford's Law")
	assert.Contains(t, out, "0.301")
	assert.Contains(t, out, "All Votes: no eligible values for Jorgensen")
	assert.Contains(t, out, "Vote share")
	assert.Contains(t, out, "Biden     : 30.1543% (1,290)")
}

func TestTextRenderer_ComparisonsOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextRenderer(&buf, false).Render(context.Background(), sampleReport(t)))
	assert.NotContains(t, buf.String(), "Biden Vote Count")
	assert.Contains(t, buf.String(), "All Candidates Vote Count")
}

func TestTextRenderer_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewTextRenderer(&buf, true).Render(ctx, sampleReport(t)), context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestJSONRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONRenderer(&buf).Render(context.Background(), sampleReport(t)))

	var got jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "run-42", got.RunID)
	assert.Equal(t, "first", got.DigitMode)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, got.Digits)
	assert.Len(t, got.Reference, 9)
	require.Len(t, got.Passes, 1)

	pass := got.Passes[0]
	require.Len(t, pass.Groups, 2)
	assert.Equal(t, []int64{1, 0, 0, 0, 1, 0, 0, 0, 0}, pass.Groups[0].Counts)
	assert.InDelta(t, 0.5, pass.Groups[0].Proportions[0], 1e-12)
	assert.Equal(t, []domain.GroupKey{{Candidate: "Jorgensen"}}, pass.Empty)

	require.Len(t, pass.Comparisons, 1)
	series := pass.Comparisons[0].Series
	require.Len(t, series, 3)
	assert.True(t, series[2].Reference)
	assert.Equal(t, got.Reference, series[2].Proportions)
}
