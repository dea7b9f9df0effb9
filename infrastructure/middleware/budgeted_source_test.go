package middleware

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// stubSource returns a fixed record and counts calls.
type stubSource struct {
	rec   domain.Record
	err   error
	calls int
}

func (s *stubSource) Load(context.Context, string, string) (domain.Record, error) {
	s.calls++
	return s.rec, s.err
}

// mockSourceObserver records the hooks it receives.
type mockSourceObserver struct {
	mu       sync.Mutex
	preSize  int64
	postErr  error
	preCalls int
	posts    int
}

func (m *mockSourceObserver) PreLoad(ctx context.Context, _, _ string, size int64, _ Budget) context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preCalls++
	m.preSize = size
	return ctx
}

func (m *mockSourceObserver) PostLoad(_ context.Context, _, _ string, _ int64, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts++
	m.postErr = err
}

// recordingCollector captures metric names.
type recordingCollector struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingCollector) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *recordingCollector) RecordLatency(op string, _ time.Duration, _ map[string]string) {
	r.record(op)
}
func (r *recordingCollector) RecordCounter(m string, _ float64, _ map[string]string) { r.record(m) }
func (r *recordingCollector) RecordGauge(m string, _ float64, _ map[string]string)   { r.record(m) }
func (r *recordingCollector) RecordHistogram(m string, _ float64, _ map[string]string) {
	r.record(m)
}

func writeInput(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o600))
	return path
}

func TestBudgetedSource_Load(t *testing.T) {
	rec := domain.Sequence{domain.Scalar("1")}

	tests := []struct {
		name      string
		budget    Budget
		size      int
		wantErr   error
		wantCalls int
	}{
		{name: "unlimited", budget: Budget{}, size: 64, wantCalls: 1},
		{name: "within budget", budget: Budget{MaxBytes: 64}, size: 64, wantCalls: 1},
		{name: "over budget", budget: Budget{MaxBytes: 63}, size: 64, wantErr: ports.ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &stubSource{rec: rec}
			obs := &mockSourceObserver{}
			bs := NewBudgetedSource(tt.budget, next, obs)

			got, err := bs.Load(context.Background(), "county_csv", writeInput(t, tt.size))
			assert.Equal(t, tt.wantCalls, next.calls)
			assert.Equal(t, 1, obs.preCalls)
			assert.Equal(t, 1, obs.posts)
			assert.Equal(t, int64(tt.size), obs.preSize)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, obs.postErr, tt.wantErr)
				var lerr *ports.LoaderError
				require.ErrorAs(t, err, &lerr)
				assert.Equal(t, "county_csv", lerr.Format)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, rec, got)
		})
	}
}

func TestBudgetedSource_Errors(t *testing.T) {
	t.Run("missing file skips the observer", func(t *testing.T) {
		obs := &mockSourceObserver{}
		bs := NewBudgetedSource(Budget{}, &stubSource{}, obs)
		_, err := bs.Load(context.Background(), "county_csv", filepath.Join(t.TempDir(), "nope.csv"))
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Zero(t, obs.preCalls)
	})

	t.Run("wrapped source error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		obs := &mockSourceObserver{}
		bs := NewBudgetedSource(Budget{}, &stubSource{err: boom}, obs)
		_, err := bs.Load(context.Background(), "county_csv", writeInput(t, 1))
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, obs.postErr, boom)
	})

	t.Run("nil next panics", func(t *testing.T) {
		assert.Panics(t, func() { NewBudgetedSource(Budget{}, nil, nil) })
	})

	t.Run("negative budget", func(t *testing.T) {
		bs := NewBudgetedSource(Budget{MaxBytes: -1}, &stubSource{}, nil)
		assert.ErrorIs(t, bs.Validate(), domain.ErrInvalidConfiguration)
	})
}

func TestBudgetFromConfig(t *testing.T) {
	assert.Equal(t, Budget{MaxBytes: 1 << 20}, BudgetFromConfig(&application.Config{MaxInputBytes: 1 << 20}))
}

func TestOTelSourceObserver(t *testing.T) {
	tests := []struct {
		name      string
		budget    Budget
		size      int
		wantNames []string
	}{
		{
			name:      "successful load",
			size:      10,
			wantNames: []string{OperationLoad, MetricInputBytes},
		},
		{
			name:      "budget exceeded",
			budget:    Budget{MaxBytes: 5},
			size:      10,
			wantNames: []string{OperationLoad, MetricBudgetExceeded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &recordingCollector{}
			bs := NewBudgetedSource(tt.budget, &stubSource{rec: domain.Sequence{}}, NewOTelSourceObserver(metrics))
			_, _ = bs.Load(context.Background(), "results_json", writeInput(t, tt.size))
			assert.Equal(t, tt.wantNames, metrics.names)
		})
	}
}
