package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ahrav/go-benford/internal/domain"
)

// recordingMetrics captures counter totals by metric name.
type recordingMetrics struct {
	mu        sync.Mutex
	counters  map[string]float64
	latencies []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counters: make(map[string]float64)}
}

func (m *recordingMetrics) RecordLatency(op string, _ time.Duration, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, op)
}

func (m *recordingMetrics) RecordCounter(name string, v float64, _ map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += v
}

func (m *recordingMetrics) RecordGauge(string, float64, map[string]string)     {}
func (m *recordingMetrics) RecordHistogram(string, float64, map[string]string) {}

func (m *recordingMetrics) counter(name string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// stateRequest folds the nationwide fixture per candidate and region with
// a region filter, the shape of the by_state grouping.
func stateRequest(candidates []string) Request {
	return Request{
		Name:    "by_state",
		Records: nationwideFixture()["county_data"].(domain.Sequence),
		Template: domain.PathTemplate{
			domain.Match{Field: "region_key", Value: domain.PlaceholderRegion, Filter: true},
			domain.Field{Name: "candidates"},
			domain.Match{Field: "last_name", Value: domain.PlaceholderCandidate},
			domain.Field{Name: "votes"},
		},
		Dimensions: Dimensions{Candidates: candidates, Regions: []string{"GA", "PA", "TX"}},
	}
}

func TestDimensions_Keys(t *testing.T) {
	tests := []struct {
		name string
		dims Dimensions
		want []domain.GroupKey
	}{
		{
			name: "no candidates",
			dims: Dimensions{Regions: []string{"GA"}},
			want: nil,
		},
		{
			name: "candidates only",
			dims: Dimensions{Candidates: []string{"Biden", "Trump"}},
			want: []domain.GroupKey{{Candidate: "Biden"}, {Candidate: "Trump"}},
		},
		{
			name: "region major order",
			dims: Dimensions{Candidates: []string{"B", "T"}, Regions: []string{"GA", "PA"}},
			want: []domain.GroupKey{
				{Candidate: "B", Region: "GA"}, {Candidate: "T", Region: "GA"},
				{Candidate: "B", Region: "PA"}, {Candidate: "T", Region: "PA"},
			},
		},
		{
			name: "duplicates collapse",
			dims: Dimensions{Candidates: []string{"B", "B"}, Breakdowns: []string{"Mail", "Mail"}},
			want: []domain.GroupKey{{Candidate: "B", Breakdown: "Mail"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dims.Keys())
		})
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	defer goleak.VerifyNone(t)

	metrics := newRecordingMetrics()
	agg := NewAggregator(mustPolicy(t, domain.DigitFirst), 2, metrics, nil)

	rs, err := agg.Aggregate(context.Background(), stateRequest([]string{"Biden", "Trump"}))
	require.NoError(t, err)

	// TX has no counties, so both TX groups are empty.
	assert.Equal(t, 4, rs.Len())
	assert.ElementsMatch(t, []domain.GroupKey{
		{Candidate: "Biden", Region: "TX"},
		{Candidate: "Trump", Region: "TX"},
	}, rs.Empty())

	biden, ok := rs.Get(domain.GroupKey{Candidate: "Biden", Region: "GA"})
	require.True(t, ok)
	assert.Equal(t, int64(1290), biden.TotalVotes)
	assert.Equal(t, int64(2), biden.Observations)
	assert.InDelta(t, 0.5, biden.Distribution.Proportion(1), 1e-12)
	assert.InDelta(t, 0.5, biden.Distribution.Proportion(5), 1e-12)
	assert.InDelta(t, 1.0, biden.Distribution.Sum(), 1e-9)

	trumpPA, ok := rs.Get(domain.GroupKey{Candidate: "Trump", Region: "PA"})
	require.True(t, ok)
	assert.Equal(t, int64(40), trumpPA.TotalVotes)

	_, ok = rs.Get(domain.GroupKey{Candidate: "Biden", Region: "TX"})
	assert.False(t, ok)

	// Keys come back in dimension order regardless of worker scheduling.
	var keys []domain.GroupKey
	for _, g := range rs.Groups() {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []domain.GroupKey{
		{Candidate: "Biden", Region: "GA"}, {Candidate: "Trump", Region: "GA"},
		{Candidate: "Biden", Region: "PA"}, {Candidate: "Trump", Region: "PA"},
	}, keys)
	assert.Equal(t, []domain.GroupKey{{Region: "GA"}, {Region: "PA"}}, rs.Panels())

	assert.Equal(t, float64(2+2+1+1), metrics.counter(MetricObservations))
	assert.Equal(t, float64(2), metrics.counter(MetricEmptyGroups))
	// Each GA fold skips the PA county and vice versa; TX folds skip all three.
	assert.Equal(t, float64(1+1+2+2+3+3), metrics.counter(MetricSkipped))
	assert.Equal(t, []string{OperationAggregate}, metrics.latencies)
}

func TestAggregator_EmptyCandidateSet(t *testing.T) {
	defer goleak.VerifyNone(t)

	agg := NewAggregator(mustPolicy(t, domain.DigitFirst), 0, nil, nil)
	rs, err := agg.Aggregate(context.Background(), stateRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Empty(t, rs.Groups())
	assert.Empty(t, rs.Empty())
}

func TestAggregator_FatalErrorAbortsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	req := stateRequest([]string{"Biden", "Jorgensen"})
	metrics := newRecordingMetrics()
	agg := NewAggregator(mustPolicy(t, domain.DigitFirst), 4, metrics, nil)

	rs, err := agg.Aggregate(context.Background(), req)
	assert.Nil(t, rs)
	assert.ErrorIs(t, err, domain.ErrSelectorUnsatisfied)
	assert.Contains(t, err.Error(), "pass by_state")
	assert.Equal(t, float64(1), metrics.counter("aggregate_failures_total"))
}

func TestAggregator_ParseErrorAbortsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	req := Request{
		Name: "by_county",
		Records: domain.Sequence{
			domain.Mapping{"candidate": domain.Scalar("A"), "votes": domain.Scalar("12")},
			domain.Mapping{"candidate": domain.Scalar("A"), "votes": domain.Scalar("N/A")},
		},
		Template: domain.PathTemplate{
			domain.Match{Field: "candidate", Value: domain.PlaceholderCandidate, Filter: true},
			domain.Field{Name: "votes"},
		},
		Dimensions: Dimensions{Candidates: []string{"A"}},
	}
	agg := NewAggregator(mustPolicy(t, domain.DigitFirst), 1, nil, nil)

	_, err := agg.Aggregate(context.Background(), req)
	var perr *domain.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "N/A", perr.Value)
}

func TestAggregator_CanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := NewAggregator(mustPolicy(t, domain.DigitFirst), 1, nil, nil)
	_, err := agg.Aggregate(ctx, stateRequest([]string{"Biden", "Trump"}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResultSet_Reduce(t *testing.T) {
	rows := domain.Sequence{
		domain.Mapping{"candidate": domain.Scalar("Biden"), "votes": domain.Scalar("1,234")},
		domain.Mapping{"candidate": domain.Scalar("Trump"), "votes": domain.Scalar("987")},
		domain.Mapping{"candidate": domain.Scalar("Jorgensen"), "votes": domain.Scalar("23")},
		domain.Mapping{"candidate": domain.Scalar("Biden"), "votes": domain.Scalar("56")},
	}
	req := Request{
		Name:    "by_county",
		Records: rows,
		Template: domain.PathTemplate{
			domain.Match{Field: "candidate", Value: domain.PlaceholderCandidate, Filter: true},
			domain.Field{Name: "votes"},
		},
		Dimensions: Dimensions{Candidates: []string{"Biden", "Trump", "Jorgensen"}},
	}
	agg := NewAggregator(mustPolicy(t, domain.DigitFirst), 0, nil, nil)
	full, err := agg.Aggregate(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 3, full.Len())

	t.Run("projection shares results", func(t *testing.T) {
		reduced, err := full.Reduce([]string{"Trump", "Biden"})
		require.NoError(t, err)

		assert.Equal(t, []string{"Biden", "Trump"}, reduced.Candidates())
		assert.Equal(t, 2, reduced.Len())
		for _, c := range []string{"Biden", "Trump"} {
			key := domain.GroupKey{Candidate: c}
			a, _ := full.Get(key)
			b, ok := reduced.Get(key)
			require.True(t, ok)
			assert.Same(t, a, b)
			assert.Equal(t, a.Distribution.Proportions(), b.Distribution.Proportions())
		}
		_, ok := reduced.Get(domain.GroupKey{Candidate: "Jorgensen"})
		assert.False(t, ok)
	})

	t.Run("original untouched", func(t *testing.T) {
		_, err := full.Reduce([]string{"Biden"})
		require.NoError(t, err)
		assert.Equal(t, 3, full.Len())
		assert.Equal(t, []string{"Biden", "Trump", "Jorgensen"}, full.Candidates())
	})

	t.Run("unknown candidate", func(t *testing.T) {
		_, err := full.Reduce([]string{"Biden", "Hawkins"})
		assert.ErrorIs(t, err, domain.ErrUnknownCandidate)
	})
}

func TestAggregator_RepeatedCandidatesCollapse(t *testing.T) {
	rs := aggregateCandidates(t, []string{"Biden", "Biden", "Trump"}, map[string][]string{
		"Biden": {"1,234", "56"},
		"Trump": {"987"},
	})
	assert.Equal(t, []string{"Biden", "Trump"}, rs.Candidates())
	require.Len(t, rs.Groups(), 2)

	tables, err := BuildComparisons(rs, nil)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Biden", "Trump"}, tables[0].Candidates())
}
