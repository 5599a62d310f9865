package reporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/celtab/benchmark-metrics/chart"
	"github.com/celtab/benchmark-metrics/config"
	"github.com/celtab/benchmark-metrics/logutil"
	"github.com/celtab/benchmark-metrics/metrics"
	"github.com/celtab/benchmark-metrics/runlog"
	"github.com/celtab/benchmark-metrics/store"
	"github.com/celtab/benchmark-metrics/summary"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotLoaded is returned by steps that need the run logs before Load has run
var ErrNotLoaded = errors.New("run logs not loaded")

// Publisher uploads finished artifacts under a per-run prefix
type Publisher interface {
	Upload(ctx context.Context, prefix string, paths ...string) error
}

// SummarySink stores the filled summary rows of a run
type SummarySink interface {
	SaveSummary(ctx context.Context, run store.Run, rows []metrics.Row) error
}

// Option configures a BenchmarkReporter
type Option func(*BenchmarkReporter)

// WithStdout redirects the descriptive statistics (default: os.Stdout)
func WithStdout(w io.Writer) Option {
	return func(r *BenchmarkReporter) { r.stdout = w }
}

// WithPublisher publishes the artifacts at the end of Run
func WithPublisher(p Publisher) Option {
	return func(r *BenchmarkReporter) { r.publisher = p }
}

// WithSink stores the summary rows at the end of Run
func WithSink(s SummarySink) Option {
	return func(r *BenchmarkReporter) { r.sink = s }
}

// WithRunID overrides the generated run identifier
func WithRunID(id string) Option {
	return func(r *BenchmarkReporter) { r.runID = id }
}

// BenchmarkReporter turns the run logs of one benchmark into charts and a summary
type BenchmarkReporter struct {
	cfg       config.Config
	stdout    io.Writer
	surface   *chart.Surface
	publisher Publisher
	sink      SummarySink
	runID     string
	now       func() time.Time

	logs []*runlog.RunLog
	rows []metrics.Row
}

// New creates a reporter for cfg
func New(cfg config.Config, opts ...Option) (*BenchmarkReporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &BenchmarkReporter{
		cfg:     cfg,
		stdout:  os.Stdout,
		surface: chart.NewSurface(),
		runID:   uuid.NewString(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RunID returns the identifier used for publishing and persistence
func (r *BenchmarkReporter) RunID() string {
	return r.runID
}

// Rows returns the filled summary rows, available after ComputeSpeedupEfficiency
func (r *BenchmarkReporter) Rows() []metrics.Row {
	return r.rows
}

// Artifacts lists every file the pipeline writes
func (r *BenchmarkReporter) Artifacts() []string {
	return []string{
		r.cfg.SummaryPath,
		r.cfg.ReportPath,
		r.cfg.ExecutionTimeChart(),
		r.cfg.SpeedupChart(),
		r.cfg.EfficiencyChart(),
	}
}

// Run executes the whole pipeline in order, stopping at the first failure
func (r *BenchmarkReporter) Run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"load", r.Load},
		{"plot execution time", r.PlotExecutionTime},
		{"write summary", r.WriteSummary},
		{"compute speedup and efficiency", r.ComputeSpeedupEfficiency},
		{"plot speedup", r.PlotSpeedup},
		{"plot efficiency", r.PlotEfficiency},
		{"write report", r.WriteReport},
		{"publish", func() error { return r.Publish(ctx) }},
		{"persist", func() error { return r.Persist(ctx) }},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

// Load reads every configured run log
func (r *BenchmarkReporter) Load() error {
	logs, err := runlog.LoadAll(r.cfg.Configurations)
	if err != nil {
		return err
	}
	r.logs = logs

	for _, log := range logs {
		logutil.GetLogger().Debug("Loaded run log",
			zap.String("label", log.Config.Label),
			zap.Int("processors", log.Config.Processors),
			zap.Int("epochs", log.Len()))
	}
	logutil.GetLogger().Info("Loaded run logs", zap.Int("count", len(logs)))
	return nil
}

// PlotExecutionTime draws every run's time per epoch on one chart
func (r *BenchmarkReporter) PlotExecutionTime() error {
	if r.logs == nil {
		return ErrNotLoaded
	}

	series := make([]chart.Series, 0, len(r.logs))
	for _, log := range r.logs {
		series = append(series, chart.Series{
			Label:  log.Config.SeriesLabel(),
			Values: log.Times(),
		})
	}

	r.ResetDrawingSurface()
	if err := r.surface.DrawExecutionTime(r.cfg.Title, series); err != nil {
		return err
	}
	return r.save(r.cfg.ExecutionTimeChart())
}

// WriteSummary writes the summary CSV with time_max only and prints descriptive
// statistics of the baseline run
func (r *BenchmarkReporter) WriteSummary() error {
	if r.logs == nil {
		return ErrNotLoaded
	}

	rows := metrics.TimeMaxRows(r.logs)
	if err := summary.WriteInitial(r.cfg.SummaryPath, rows); err != nil {
		return err
	}
	logutil.GetLogger().Info("Wrote summary", zap.String("path", r.cfg.SummaryPath), zap.Int("rows", len(rows)))

	r.ResetDrawingSurface()

	baseline := r.logs[0]
	if err := metrics.FprintDescriptions(r.stdout, metrics.DescribeRunLog(baseline)); err != nil {
		return fmt.Errorf("failed to print statistics: %w", err)
	}
	if err := metrics.FprintHistogram(r.stdout, baseline.Times()); err != nil {
		return fmt.Errorf("failed to print histogram: %w", err)
	}
	return nil
}

// ComputeSpeedupEfficiency re-reads the summary, fills speedup and efficiency for every
// row after the baseline, masks undefined values to 0 and rewrites the summary
func (r *BenchmarkReporter) ComputeSpeedupEfficiency() error {
	rows, err := summary.Read(r.cfg.SummaryPath)
	if err != nil {
		return err
	}

	filled := metrics.SpeedupEfficiency(rows)
	for _, i := range metrics.MaskUndefined(filled) {
		// Row 0 is the baseline and is masked on every run
		if i == 0 {
			continue
		}
		logutil.GetLogger().Warn("Undefined speedup masked to zero",
			zap.Int("processors", filled[i].AmountProcessor),
			zap.Float64("time_max", filled[i].TimeMax),
			zap.Float64("baseline_time_max", filled[0].TimeMax))
	}

	if err := summary.WriteFilled(r.cfg.SummaryPath, filled); err != nil {
		return err
	}
	r.rows = filled

	logutil.GetLogger().Info("Computed speedup and efficiency", zap.String("path", r.cfg.SummaryPath))
	return nil
}

// PlotSpeedup draws speedup against processor count from the summary CSV
func (r *BenchmarkReporter) PlotSpeedup() error {
	return r.plotScaling(r.cfg.SpeedupChart(), chart.ScalingChart{
		Title:       r.cfg.Title,
		SeriesLabel: r.cfg.SeriesLabel,
		YLabel:      "speedup",
		Color:       chart.Green,
		LegendLeft:  true,
	}, func(row metrics.Row) float64 { return row.Speedup })
}

// PlotEfficiency draws efficiency against processor count from the summary CSV
func (r *BenchmarkReporter) PlotEfficiency() error {
	return r.plotScaling(r.cfg.EfficiencyChart(), chart.ScalingChart{
		Title:       r.cfg.Title,
		SeriesLabel: r.cfg.SeriesLabel,
		YLabel:      "efficiency",
		Color:       chart.Red,
	}, func(row metrics.Row) float64 { return row.Efficiency })
}

// ResetDrawingSurface clears the shared chart surface
func (r *BenchmarkReporter) ResetDrawingSurface() {
	r.surface.Reset()
}

// Publish uploads every artifact under <run id>/ when a publisher is configured
func (r *BenchmarkReporter) Publish(ctx context.Context) error {
	if r.publisher == nil {
		return nil
	}
	return r.publisher.Upload(ctx, r.runID+"/", r.Artifacts()...)
}

// Persist stores the filled summary rows when a sink is configured
func (r *BenchmarkReporter) Persist(ctx context.Context) error {
	if r.sink == nil {
		return nil
	}
	if r.rows == nil {
		return fmt.Errorf("summary rows not computed")
	}

	run := store.Run{ID: r.runID, Mesh: r.cfg.Mesh, CreatedAt: r.now().UTC()}
	if err := r.sink.SaveSummary(ctx, run, r.rows); err != nil {
		return err
	}
	logutil.GetLogger().Info("Persisted summary", zap.String("run_id", r.runID), zap.Int("rows", len(r.rows)))
	return nil
}

func (r *BenchmarkReporter) plotScaling(path string, c chart.ScalingChart, value func(metrics.Row) float64) error {
	rows, err := summary.Read(r.cfg.SummaryPath)
	if err != nil {
		return err
	}

	processors := make([]int, len(rows))
	values := make([]float64, len(rows))
	for i, row := range rows {
		processors[i] = row.AmountProcessor
		values[i] = value(row)
	}

	r.ResetDrawingSurface()
	if err := r.surface.DrawScaling(c, processors, values); err != nil {
		return err
	}
	if err := r.save(path); err != nil {
		return err
	}
	r.ResetDrawingSurface()
	return nil
}

func (r *BenchmarkReporter) save(path string) error {
	if err := r.surface.Save(path); err != nil {
		return err
	}
	logutil.GetLogger().Info("Saved chart", zap.String("path", path))
	return nil
}
