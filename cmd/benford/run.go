package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahrav/go-benford/infrastructure/loaders"
	"github.com/ahrav/go-benford/infrastructure/middleware"
	"github.com/ahrav/go-benford/infrastructure/render"
	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/ports"
)

const metricsShutdownTimeout = 5 * time.Second

var (
	outputFormat string
	metricsAddr  string
	showGroups   bool
	onlyDatasets []string
)

// runCmd analyzes every configured dataset
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Analyze the configured datasets",
	Long: `Loads every dataset named in the configuration, runs the enabled
grouping passes and prints one report per dataset.

Reports are printed only after every dataset was analyzed, so a fatal
error such as an unknown candidate or a malformed vote count leaves no
partial output.

Examples:
  benford run -c benford.yaml
  benford run -c benford.yaml --format json --dataset georgia
  benford run -c benford.yaml --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runAnalysis,
}

// validateCmd checks a configuration without loading any dataset
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the run configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSettings()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d datasets, %d candidates)\n",
			configPath, len(cfg.Datasets), len(cfg.Candidates))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Report format: text or json")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	runCmd.Flags().BoolVar(&showGroups, "show-groups", false, "Print every group table, not only the comparisons")
	runCmd.Flags().StringSliceVar(&onlyDatasets, "dataset", nil, "Restrict the run to the named datasets")
}

func loadSettings() (*application.Config, application.Settings, error) {
	cl, err := application.NewConfigLoader()
	if err != nil {
		return nil, application.Settings{}, err
	}
	cfg, err := cl.LoadFromFile(configPath)
	if err != nil {
		return nil, application.Settings{}, err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return nil, application.Settings{}, err
	}
	return cfg, settings, nil
}

func newRenderer(format string, w io.Writer) (ports.Renderer, error) {
	switch format {
	case "text":
		return render.NewTextRenderer(w, showGroups), nil
	case "json":
		return render.NewJSONRenderer(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// selectDatasets keeps the configured order and rejects unknown names.
func selectDatasets(all []application.DatasetConfig, names []string) ([]application.DatasetConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	var out []application.DatasetConfig
	for _, ds := range all {
		if slices.Contains(names, ds.Name) {
			out = append(out, ds)
		}
	}
	for _, n := range names {
		if !slices.ContainsFunc(out, func(ds application.DatasetConfig) bool { return ds.Name == n }) {
			return nil, fmt.Errorf("dataset %q is not configured", n)
		}
	}
	return out, nil
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, settings, err := loadSettings()
	if err != nil {
		return err
	}
	datasets, err := selectDatasets(cfg.Datasets, onlyDatasets)
	if err != nil {
		return err
	}
	renderer, err := newRenderer(outputFormat, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	var metrics ports.MetricsCollector = middleware.NopMetrics{}
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = middleware.NewPrometheusMetrics(reg)
		srv, err := serveMetrics(reg, metricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	source := middleware.NewBudgetedSource(
		middleware.BudgetFromConfig(cfg),
		loaders.NewDefaultRegistry(logger),
		middleware.NewOTelSourceObserver(metrics),
	)
	if err := source.Validate(); err != nil {
		return err
	}

	pipeline, err := application.NewPipeline(settings, source, renderer, metrics, logger)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger.Info("Starting analysis",
		zap.String("run_id", runID),
		zap.String("config", configPath),
		zap.String("digit_mode", settings.Mode().String()),
		zap.Int("datasets", len(datasets)))

	reports, err := pipeline.RunAll(ctx, runID, datasets)
	if err != nil {
		logger.Error("Analysis aborted", zap.String("run_id", runID), zap.Error(err))
		return err
	}
	logger.Info("Analysis complete", zap.String("run_id", runID), zap.Int("reports", len(reports)))
	return nil
}

// serveMetrics binds addr before returning so an unusable address fails
// the run instead of being logged from the background.
func serveMetrics(reg *prometheus.Registry, addr string) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ports.NewMetricsError("/metrics", "listen", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("Serving metrics", zap.String("addr", ln.Addr().String()))
	return srv, nil
}
