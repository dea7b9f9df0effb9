// Package application provides the digit-frequency engine: configuration,
// record resolution, aggregation passes and the per-dataset pipeline.
package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// OperationRun labels the latency metric of a whole dataset run.
const OperationRun = "run"

// Pipeline runs every enabled grouping pass of a dataset and hands the
// finished report to a Renderer. It holds no per-run state and may be
// reused across datasets.
type Pipeline struct {
	settings   Settings
	source     ports.DatasetSource
	renderer   ports.Renderer
	aggregator *Aggregator
	matcher    *CandidateMatcher
	metrics    ports.MetricsCollector
	logger     *zap.Logger
	tracer     trace.Tracer
}

// NewPipeline wires a pipeline from immutable settings and its
// collaborators. metrics and logger may be nil.
func NewPipeline(
	settings Settings,
	source ports.DatasetSource,
	renderer ports.Renderer,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) (*Pipeline, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: dataset source is required", domain.ErrInvalidConfiguration)
	}
	if renderer == nil {
		return nil, fmt.Errorf("%w: renderer is required", domain.ErrInvalidConfiguration)
	}
	policy, err := domain.NewDigitPolicy(settings.Mode())
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		settings:   settings,
		source:     source,
		renderer:   renderer,
		aggregator: NewAggregator(policy, settings.Concurrency(), metrics, logger),
		matcher:    NewCandidateMatcher(settings.Candidates()),
		metrics:    metrics,
		logger:     logger,
		tracer:     otel.Tracer("benford-pipeline"),
	}, nil
}

// Run loads ds, aggregates every enabled pass of its profile, builds the
// comparison tables and renders the report. Any fatal error aborts the
// run before rendering, so no partial output is produced.
func (p *Pipeline) Run(ctx context.Context, runID string, ds DatasetConfig) (*domain.Report, error) {
	reports, err := p.RunAll(ctx, runID, []DatasetConfig{ds})
	if err != nil {
		return nil, err
	}
	return reports[0], nil
}

// RunAll analyzes every dataset and renders the reports only once all of
// them succeeded, so a fatal error in any dataset leaves no output.
func (p *Pipeline) RunAll(ctx context.Context, runID string, datasets []DatasetConfig) ([]*domain.Report, error) {
	ctx, span := p.tracer.Start(ctx, "Pipeline.RunAll",
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("datasets", len(datasets)),
		),
	)
	defer span.End()

	reports := make([]*domain.Report, len(datasets))
	for i, ds := range datasets {
		start := time.Now()
		report, err := p.Analyze(ctx, runID, ds)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "analysis failed")
			return nil, err
		}
		if p.metrics != nil {
			p.metrics.RecordLatency(OperationRun, time.Since(start), map[string]string{"dataset": ds.Name})
		}
		reports[i] = report
	}

	for _, report := range reports {
		if err := p.renderer.Render(ctx, report); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "render failed")
			return nil, ports.NewRenderError(report.Dataset, err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return reports, nil
}

// Analyze is Run without rendering.
func (p *Pipeline) Analyze(ctx context.Context, runID string, ds DatasetConfig) (*domain.Report, error) {
	ctx, span := p.tracer.Start(ctx, "Pipeline.Analyze",
		trace.WithAttributes(
			attribute.String("dataset", ds.Name),
			attribute.String("format", ds.Format),
		),
	)
	defer span.End()

	start := time.Now()
	logger := p.logger.With(zap.String("run_id", runID), zap.String("dataset", ds.Name))
	report, err := p.analyze(ctx, runID, ds, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		return nil, fmt.Errorf("dataset %s: %w", ds.Name, err)
	}
	logger.Info("Dataset analyzed",
		zap.Int("passes", len(report.Passes)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (p *Pipeline) analyze(ctx context.Context, runID string, ds DatasetConfig, logger *zap.Logger) (*domain.Report, error) {
	profile, err := ProfileFor(ds)
	if err != nil {
		return nil, err
	}

	root, err := p.source.Load(ctx, ds.Format, ds.Path)
	if err != nil {
		return nil, err
	}

	if profile.Flat() {
		if root, err = p.prepare(profile, root, logger); err != nil {
			return nil, err
		}
	}

	mode := p.settings.Mode()
	report := &domain.Report{
		RunID:     runID,
		Dataset:   ds.Name,
		Label:     ds.Label,
		Mode:      mode,
		Reference: domain.ReferenceLaw(mode),
	}

	candidates := p.settings.Candidates()
	for _, pass := range profile.Passes {
		if !p.settings.Enabled(pass.Grouping) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := p.request(pass, root, candidates)
		if err != nil {
			return nil, fmt.Errorf("pass %s: %w", pass.Grouping, err)
		}
		rs, err := p.aggregator.Aggregate(ctx, req)
		if err != nil {
			return nil, err
		}
		tables, err := BuildComparisons(rs, p.settings.Reductions())
		if err != nil {
			return nil, fmt.Errorf("pass %s: %w", pass.Grouping, err)
		}

		report.Passes = append(report.Passes, domain.PassResult{
			Grouping:    string(pass.Grouping),
			Description: pass.Description,
			Groups:      rs.Groups(),
			Empty:       rs.Empty(),
			Comparisons: tables,
		})
	}

	if len(report.Passes) == 0 {
		logger.Warn("No enabled grouping applies to dataset format",
			zap.String("format", ds.Format))
	} else {
		report.Shares = domain.VoteShares(candidates, report.Passes[0].Groups)
	}
	return report, nil
}

// prepare filters, canonicalizes and derives the flat rows of a dataset.
// The loaded record is never modified.
func (p *Pipeline) prepare(profile Profile, root domain.Record, logger *zap.Logger) (domain.Record, error) {
	rows, err := Collection(root, nil)
	if err != nil {
		return nil, err
	}
	loaded := len(rows)

	if len(profile.RowFilter) > 0 {
		kept := make(domain.Sequence, 0, len(rows))
		for i, row := range rows {
			_, ok, err := Walk(row, profile.RowFilter)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
			if ok {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	// Without candidates every pass is empty, so labels are not checked.
	if profile.CandidateField != "" && len(p.settings.Candidates()) > 0 {
		if rows, err = p.matcher.Canonicalize(rows, profile.CandidateField); err != nil {
			return nil, err
		}
	}

	if profile.NeedsDerive(p.settings.Enabled) {
		if rows, err = profile.Derive(rows); err != nil {
			return nil, err
		}
	}

	logger.Debug("Prepared rows",
		zap.Int("loaded", loaded),
		zap.Int("kept", len(rows)))
	return rows, nil
}

// request builds the aggregation request for one pass.
func (p *Pipeline) request(pass Pass, root domain.Record, candidates []string) (Request, error) {
	records, err := Collection(root, pass.Collection)
	if err != nil {
		return Request{}, err
	}

	dims := Dimensions{Candidates: candidates, Breakdowns: pass.Breakdowns}
	if pass.BreakdownField != "" {
		dims.Breakdowns = domain.Distinct(records, pass.BreakdownField)
	}
	if pass.ByRegion {
		dims.Regions = p.settings.Regions()
	}

	return Request{
		Name:       string(pass.Grouping),
		Records:    records,
		Template:   pass.Template,
		Dimensions: dims,
	}, nil
}
