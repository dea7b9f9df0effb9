package middleware

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

var _ ports.DatasetSource = (*BudgetedSource)(nil)

// Budget defines resource limits for loading a dataset.
type Budget struct {
	// MaxBytes limits the size of a dataset file.
	// Zero means unlimited.
	MaxBytes int64
}

// BudgetFromConfig converts the loaded run configuration to a Budget.
func BudgetFromConfig(cfg *application.Config) Budget {
	return Budget{MaxBytes: cfg.MaxInputBytes}
}

// SourceObserver provides observability hooks around dataset loads.
// Implementations can add tracing and metrics without coupling them to
// the budget logic.
type SourceObserver interface {
	// PreLoad is called once the input size is known and before the
	// budget is enforced. The returned context is passed to the wrapped
	// source and to PostLoad.
	PreLoad(ctx context.Context, format, path string, size int64, budget Budget) context.Context

	// PostLoad is called after the load with its outcome.
	PostLoad(ctx context.Context, format, path string, size int64, elapsed time.Duration, err error)
}

// BudgetedSource rejects dataset files larger than its budget before any
// parsing happens and reports every load to an optional observer.
type BudgetedSource struct {
	budget   Budget
	next     ports.DatasetSource
	observer SourceObserver
	stat     func(string) (fs.FileInfo, error)
}

// NewBudgetedSource wraps next with the given budget and optional observer.
func NewBudgetedSource(budget Budget, next ports.DatasetSource, observer SourceObserver) *BudgetedSource {
	if next == nil {
		panic("budgeted source: next source is required")
	}
	return &BudgetedSource{
		budget:   budget,
		next:     next,
		observer: observer,
		stat:     os.Stat,
	}
}

// Validate checks that the budget is usable.
func (bs *BudgetedSource) Validate() error {
	if bs.budget.MaxBytes < 0 {
		return fmt.Errorf("%w: max_input_bytes cannot be negative, got %d",
			domain.ErrInvalidConfiguration, bs.budget.MaxBytes)
	}
	return nil
}

// Load implements ports.DatasetSource.
func (bs *BudgetedSource) Load(ctx context.Context, format, path string) (domain.Record, error) {
	info, err := bs.stat(path)
	if err != nil {
		return nil, ports.NewLoaderError(format, path, err)
	}
	size := info.Size()

	if bs.observer != nil {
		ctx = bs.observer.PreLoad(ctx, format, path, size, bs.budget)
	}

	start := time.Now()
	var rec domain.Record
	if err = bs.checkBudget(size); err != nil {
		err = ports.NewLoaderError(format, path, err)
	} else {
		rec, err = bs.next.Load(ctx, format, path)
	}

	if bs.observer != nil {
		bs.observer.PostLoad(ctx, format, path, size, time.Since(start), err)
	}
	return rec, err
}

func (bs *BudgetedSource) checkBudget(size int64) error {
	if bs.budget.MaxBytes > 0 && size > bs.budget.MaxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ports.ErrInputTooLarge, size, bs.budget.MaxBytes)
	}
	return nil
}
