package application

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// Metric names emitted by the aggregator.
const (
	MetricObservations = "observations_total"
	MetricSkipped      = "skipped_records_total"
	MetricIneligible   = "ineligible_values_total"
	MetricEmptyGroups  = "empty_groups_total"
	MetricGroupVotes   = "group_total_votes"
	MetricGroupSize    = "group_observations"
	OperationAggregate = "aggregate"
)

// Dimensions enumerates the grouping axes of one aggregation pass. An
// empty Regions or Breakdowns slice means the pass is not partitioned on
// that axis. An empty Candidates slice yields no groups at all.
type Dimensions struct {
	Candidates []string
	Regions    []string
	Breakdowns []string
}

// Keys returns the cartesian product of the dimensions in deterministic
// order: region, then breakdown, then candidate. Duplicate values are
// collapsed so keys are unique within a run.
func (d Dimensions) Keys() []domain.GroupKey {
	if len(d.Candidates) == 0 {
		return nil
	}
	regions := orEmpty(d.Regions)
	breakdowns := orEmpty(d.Breakdowns)

	seen := make(map[domain.GroupKey]struct{})
	keys := make([]domain.GroupKey, 0, len(regions)*len(breakdowns)*len(d.Candidates))
	for _, r := range regions {
		for _, b := range breakdowns {
			for _, c := range d.Candidates {
				k := domain.GroupKey{Candidate: c, Region: r, Breakdown: b}
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// distinct returns vals without repeats, keeping first-seen order.
func distinct(vals []string) []string {
	if vals == nil {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func orEmpty(vals []string) []string {
	if len(vals) == 0 {
		return []string{""}
	}
	return vals
}

// Request describes one aggregation pass: the records to fold, the path
// template bound per group, and the grouping dimensions.
type Request struct {
	// Name labels the pass in logs, spans and metrics.
	Name string

	// Records is the flat collection every group folds over. It is read
	// concurrently and must not be mutated during Aggregate.
	Records domain.Sequence

	// Template is bound with each GroupKey to produce the value path.
	Template domain.PathTemplate

	// Dimensions enumerates the groups.
	Dimensions Dimensions
}

// Aggregator drives the histogram accumulator across every combination of
// a request's dimensions and normalizes the results.
//
// Each combination is an independent fold over shared read-only records
// into its own freshly allocated histogram, so combinations run in
// parallel up to the configured concurrency. The first fatal error
// cancels the remaining folds and no partial result is returned.
type Aggregator struct {
	policy      domain.DigitPolicy
	concurrency int
	metrics     ports.MetricsCollector
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewAggregator creates an Aggregator. A concurrency of zero or less uses
// GOMAXPROCS. metrics and logger may be nil.
func NewAggregator(
	policy domain.DigitPolicy,
	concurrency int,
	metrics ports.MetricsCollector,
	logger *zap.Logger,
) *Aggregator {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		policy:      policy,
		concurrency: concurrency,
		metrics:     metrics,
		logger:      logger,
		tracer:      otel.Tracer("benford-aggregator"),
	}
}

// Mode returns the digit mode the aggregator extracts.
func (a *Aggregator) Mode() domain.DigitMode { return a.policy.Mode() }

type foldOutcome struct {
	hist  *domain.Histogram
	stats FoldStats
}

// Aggregate folds req.Records once per GroupKey and returns the
// normalized results. Groups with no eligible observations are reported
// through ResultSet.Empty and omitted from the results.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*ResultSet, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.Aggregate",
		trace.WithAttributes(
			attribute.String("pass", req.Name),
			attribute.String("digit_mode", a.policy.Mode().String()),
			attribute.String("path_template", req.Template.String()),
			attribute.Int("records", len(req.Records)),
		),
	)
	defer span.End()

	start := time.Now()
	keys := req.Dimensions.Keys()
	span.SetAttributes(attribute.Int("groups", len(keys)))

	outcomes := make([]foldOutcome, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h, stats, err := accumulate(req.Records, req.Template.Bind(key), a.policy)
			if err != nil {
				return fmt.Errorf("group %s: %w", key, err)
			}
			outcomes[i] = foldOutcome{hist: h, stats: stats}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "aggregation failed")
		a.recordCounter("aggregate_failures_total", 1, map[string]string{"pass": req.Name})
		return nil, fmt.Errorf("pass %s: %w", req.Name, err)
	}

	rs := newResultSet(a.policy.Mode(), req.Dimensions.Candidates)
	for i, key := range keys {
		out := outcomes[i]
		labels := keyLabels(req.Name, key)
		a.recordCounter(MetricSkipped, float64(out.stats.Skipped), labels)
		a.recordCounter(MetricIneligible, float64(out.stats.Ineligible), labels)

		dist, err := domain.Normalize(out.hist)
		if errors.Is(err, domain.ErrEmptyHistogram) {
			a.logger.Debug("Skipping empty group",
				zap.String("pass", req.Name),
				zap.Stringer("group", key),
				zap.Int("skipped_records", out.stats.Skipped),
				zap.Int("ineligible_values", out.stats.Ineligible))
			a.recordCounter(MetricEmptyGroups, 1, labels)
			rs.empty = append(rs.empty, key)
			continue
		}
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("pass %s: group %s: %w", req.Name, key, err)
		}

		gr := &domain.GroupResult{
			Key:          key,
			Histogram:    out.hist,
			Distribution: dist,
			TotalVotes:   out.hist.TotalVotes(),
			Observations: out.hist.Observations(),
		}
		rs.add(gr)

		a.recordCounter(MetricObservations, float64(gr.Observations), labels)
		a.recordGauge(MetricGroupVotes, float64(gr.TotalVotes), labels)
		a.recordHistogram(MetricGroupSize, float64(gr.Observations), labels)
	}

	elapsed := time.Since(start)
	if a.metrics != nil {
		a.metrics.RecordLatency(OperationAggregate, elapsed, map[string]string{"pass": req.Name})
	}
	span.SetAttributes(
		attribute.Int("groups.non_empty", rs.Len()),
		attribute.Int("groups.empty", len(rs.empty)),
	)
	span.SetStatus(codes.Ok, "")

	a.logger.Info("Aggregated pass",
		zap.String("pass", req.Name),
		zap.Int("records", len(req.Records)),
		zap.Int("groups", rs.Len()),
		zap.Int("empty_groups", len(rs.empty)),
		zap.Duration("elapsed", elapsed))

	return rs, nil
}

func keyLabels(pass string, key domain.GroupKey) map[string]string {
	return map[string]string{
		"pass":      pass,
		"candidate": key.Candidate,
		"region":    key.Region,
		"breakdown": key.Breakdown,
	}
}

func (a *Aggregator) recordCounter(metric string, v float64, labels map[string]string) {
	if a.metrics == nil || v == 0 {
		return
	}
	a.metrics.RecordCounter(metric, v, labels)
}

func (a *Aggregator) recordGauge(metric string, v float64, labels map[string]string) {
	if a.metrics != nil {
		a.metrics.RecordGauge(metric, v, labels)
	}
}

func (a *Aggregator) recordHistogram(metric string, v float64, labels map[string]string) {
	if a.metrics != nil {
		a.metrics.RecordHistogram(metric, v, labels)
	}
}

// ResultSet maps GroupKeys to their results for one aggregation pass.
// It is immutable once returned; Reduce produces projections that share
// the underlying GroupResults.
type ResultSet struct {
	mode       domain.DigitMode
	candidates []string
	keys       []domain.GroupKey
	groups     map[domain.GroupKey]*domain.GroupResult
	empty      []domain.GroupKey
}

func newResultSet(mode domain.DigitMode, candidates []string) *ResultSet {
	return &ResultSet{
		mode:       mode,
		candidates: distinct(candidates),
		groups:     make(map[domain.GroupKey]*domain.GroupResult),
	}
}

func (rs *ResultSet) add(gr *domain.GroupResult) {
	rs.keys = append(rs.keys, gr.Key)
	rs.groups[gr.Key] = gr
}

// Mode returns the digit mode the results were computed with.
func (rs *ResultSet) Mode() domain.DigitMode { return rs.mode }

// Len returns the number of non-empty groups.
func (rs *ResultSet) Len() int { return len(rs.keys) }

// Get returns the result for key.
func (rs *ResultSet) Get(key domain.GroupKey) (*domain.GroupResult, bool) {
	gr, ok := rs.groups[key]
	return gr, ok
}

// Groups returns the non-empty results in deterministic key order.
func (rs *ResultSet) Groups() []*domain.GroupResult {
	out := make([]*domain.GroupResult, len(rs.keys))
	for i, k := range rs.keys {
		out[i] = rs.groups[k]
	}
	return out
}

// Empty returns the keys whose histograms had no observations.
func (rs *ResultSet) Empty() []domain.GroupKey { return slices.Clone(rs.empty) }

// Candidates returns the candidate dimension the set was built over, in
// configured order.
func (rs *ResultSet) Candidates() []string { return slices.Clone(rs.candidates) }

// Panels returns the distinct region/breakdown panels that have at least
// one non-empty group, in first-seen order.
func (rs *ResultSet) Panels() []domain.GroupKey {
	seen := make(map[domain.GroupKey]struct{})
	var out []domain.GroupKey
	for _, k := range rs.keys {
		p := k.Panel()
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Reduce projects the set onto a subset of its candidates, e.g. two of
// three. It is a pure projection: the returned set shares the original
// GroupResults, so reduced distributions are identical to the full ones.
// Naming a candidate outside the set's candidate dimension is an
// UnknownCandidateError.
func (rs *ResultSet) Reduce(candidates []string) (*ResultSet, error) {
	keep := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if !slices.Contains(rs.candidates, c) {
			return nil, &domain.UnknownCandidateError{Label: c}
		}
		keep[c] = struct{}{}
	}

	// Preserve the original candidate order regardless of argument order.
	var ordered []string
	for _, c := range rs.candidates {
		if _, ok := keep[c]; ok {
			ordered = append(ordered, c)
		}
	}

	out := newResultSet(rs.mode, ordered)
	for _, k := range rs.keys {
		if _, ok := keep[k.Candidate]; ok {
			out.add(rs.groups[k])
		}
	}
	for _, k := range rs.empty {
		if _, ok := keep[k.Candidate]; ok {
			out.empty = append(out.empty, k)
		}
	}
	return out, nil
}
