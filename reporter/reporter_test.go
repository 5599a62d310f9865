package reporter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/celtab/benchmark-metrics/config"
	"github.com/celtab/benchmark-metrics/metrics"
	"github.com/celtab/benchmark-metrics/store"
	"github.com/celtab/benchmark-metrics/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	prefix string
	paths  []string
}

func (f *fakePublisher) Upload(_ context.Context, prefix string, paths ...string) error {
	f.prefix = prefix
	f.paths = append(f.paths, paths...)
	return nil
}

type fakeSink struct {
	run  store.Run
	rows []metrics.Row
}

func (f *fakeSink) SaveSummary(_ context.Context, run store.Run, rows []metrics.Row) error {
	f.run = run
	f.rows = rows
	return nil
}

// setup writes one log per configuration whose time column peaks at maxes[i]
func setup(t *testing.T, maxes ...float64) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.DefaultConfig("512")
	cfg.SetResultsDir(filepath.Join(dir, "results-512"))
	cfg.SummaryPath = filepath.Join(dir, "ExecutionTime-512.csv")
	cfg.ReportPath = filepath.Join(dir, "SCALING-512.md")
	cfg.AssetsDir = filepath.Join(dir, "assets")

	require.NoError(t, os.MkdirAll(cfg.ResultsDir, 0o755))
	for i, m := range maxes {
		content := fmt.Sprintf("epoch,time\n0,%v\n1,%v\n2,%v\n", m*0.9, m, m*0.5)
		require.NoError(t, os.WriteFile(cfg.Configurations[i].Path, []byte(content), 0o644))
	}
	return cfg
}

func TestBenchmarkReporter_Run(t *testing.T) {
	t.Run("ProducesSummaryChartsAndStatistics", func(t *testing.T) {
		cfg := setup(t, 10, 6, 3.3, 1.7, 1.1, 0.8)
		var stdout bytes.Buffer
		pub := &fakePublisher{}
		sink := &fakeSink{}

		r, err := New(cfg, WithStdout(&stdout), WithPublisher(pub), WithSink(sink), WithRunID("run-1"))
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background()))

		rows, err := summary.Read(cfg.SummaryPath)
		require.NoError(t, err)
		want := []struct {
			procs                        int
			timeMax, speedup, efficiency float64
		}{
			{1, 10, 0, 0},
			{2, 6, 1.667, 0.833},
			{4, 3.3, 3.03, 0.758},
			{8, 1.7, 5.88, 0.735},
			{12, 1.1, 9.09, 0.758},
			{16, 0.8, 12.5, 0.781},
		}
		require.Len(t, rows, len(want))
		for i, w := range want {
			assert.Equal(t, w.procs, rows[i].AmountProcessor)
			assert.Equal(t, w.timeMax, rows[i].TimeMax)
			assert.InDelta(t, w.speedup, rows[i].Speedup, 0.005)
			assert.InDelta(t, w.efficiency, rows[i].Efficiency, 0.005)
		}

		for _, path := range []string{cfg.ExecutionTimeChart(), cfg.SpeedupChart(), cfg.EfficiencyChart(), cfg.ReportPath} {
			info, err := os.Stat(path)
			require.NoError(t, err, path)
			assert.Greater(t, info.Size(), int64(0))
		}

		out := stdout.String()
		assert.Contains(t, out, "count")
		assert.Contains(t, out, "time")
		assert.Contains(t, out, "epoch")

		assert.Equal(t, "run-1/", pub.prefix)
		assert.Equal(t, r.Artifacts(), pub.paths)

		assert.Equal(t, "run-1", sink.run.ID)
		assert.Equal(t, "512", sink.run.Mesh)
		assert.Equal(t, rows, sink.rows)
	})

	t.Run("IsIdempotent", func(t *testing.T) {
		cfg := setup(t, 9.5, 5, 2.6, 1.4, 1, 0.7)

		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background()))
		first, err := os.ReadFile(cfg.SummaryPath)
		require.NoError(t, err)

		r, err = New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background()))
		second, err := os.ReadFile(cfg.SummaryPath)
		require.NoError(t, err)

		assert.Equal(t, string(first), string(second))
	})

	t.Run("FailsOnMissingLog", func(t *testing.T) {
		cfg := setup(t, 10, 6, 3.3)

		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		err = r.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load")
		assert.NoFileExists(t, cfg.SummaryPath)
	})

	t.Run("StopsWhenCancelled", func(t *testing.T) {
		cfg := setup(t, 10, 6, 3.3, 1.7, 1.1, 0.8)
		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, r.Run(ctx), context.Canceled)
		assert.NoFileExists(t, cfg.SummaryPath)
	})
}

func TestBenchmarkReporter_Steps(t *testing.T) {
	t.Run("WriteSummaryLeavesSpeedupEmpty", func(t *testing.T) {
		cfg := setup(t, 10, 6, 3.3, 1.7, 1.1, 0.8)
		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		require.NoError(t, r.Load())
		require.NoError(t, r.WriteSummary())

		data, err := os.ReadFile(cfg.SummaryPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		require.Len(t, lines, 7)
		assert.Equal(t, "amount_processor,time_max,speedup,efficiency", lines[0])
		assert.Equal(t, "1,10,,", lines[1])
		assert.Equal(t, "16,0.8,,", lines[6])
	})

	t.Run("ComputeRewritesWithIndexColumn", func(t *testing.T) {
		cfg := setup(t, 10, 5, 2.5, 1.25, 1, 0.625)
		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		require.NoError(t, r.Load())
		require.NoError(t, r.WriteSummary())
		require.NoError(t, r.ComputeSpeedupEfficiency())

		data, err := os.ReadFile(cfg.SummaryPath)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		assert.Equal(t, ",amount_processor,time_max,speedup,efficiency", lines[0])
		assert.Equal(t, "0,1,10,0,0", lines[1])
		assert.Equal(t, "1,2,5,2,1", lines[2])
		assert.Equal(t, 4.0, r.Rows()[2].Speedup)
	})

	t.Run("SingleRowLogs", func(t *testing.T) {
		cfg := setup(t)
		for i, m := range []float64{8, 4, 2, 1, 1, 0.5} {
			content := fmt.Sprintf("time\n%v\n", m)
			require.NoError(t, os.WriteFile(cfg.Configurations[i].Path, []byte(content), 0o644))
		}

		var stdout bytes.Buffer
		r, err := New(cfg, WithStdout(&stdout))
		require.NoError(t, err)
		require.NoError(t, r.Run(context.Background()))

		rows := r.Rows()
		assert.Equal(t, 8.0, rows[0].TimeMax)
		assert.Equal(t, 2.0, rows[1].Speedup)
		assert.Equal(t, 16.0, rows[5].Speedup)
		assert.Equal(t, 1.0, rows[5].Efficiency)
		assert.Contains(t, stdout.String(), "NaN")
	})

	t.Run("ZeroTimeIsMasked", func(t *testing.T) {
		cfg := setup(t, 10, 0, 3.3, 1.7, 1.1, 0.8)
		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		require.NoError(t, r.Run(context.Background()))
		assert.Equal(t, 0.0, r.Rows()[1].Speedup)
		assert.Equal(t, 0.0, r.Rows()[1].Efficiency)
	})

	t.Run("StepsNeedLoad", func(t *testing.T) {
		cfg := setup(t, 10, 6, 3.3, 1.7, 1.1, 0.8)
		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		assert.ErrorIs(t, r.PlotExecutionTime(), ErrNotLoaded)
		assert.ErrorIs(t, r.WriteSummary(), ErrNotLoaded)
		assert.Error(t, r.ComputeSpeedupEfficiency())
		assert.Error(t, r.WriteReport())
	})

	t.Run("OptionalIntegrationsAreSkipped", func(t *testing.T) {
		cfg := setup(t, 10, 6, 3.3, 1.7, 1.1, 0.8)
		r, err := New(cfg, WithStdout(&bytes.Buffer{}))
		require.NoError(t, err)

		assert.NoError(t, r.Publish(context.Background()))
		assert.NoError(t, r.Persist(context.Background()))
		assert.NotEmpty(t, r.RunID())
	})
}

func TestBenchmarkReporter_WriteReport(t *testing.T) {
	cfg := setup(t, 10, 6, 3.3, 1.7, 1.1, 0.8)
	r, err := New(cfg, WithStdout(&bytes.Buffer{}), WithRunID("run-7"))
	require.NoError(t, err)
	require.NoError(t, r.Run(context.Background()))

	data, err := os.ReadFile(cfg.ReportPath)
	require.NoError(t, err)
	report := string(data)

	assert.Contains(t, report, "# Scaling Results: Cavity Mesh 512")
	assert.Contains(t, report, "**Run ID:** run-7")
	assert.Contains(t, report, "| 1 | 10 | 0 | 0 |")
	assert.Contains(t, report, "| 2 | 6 | 1.67 | 0.833 |")
	assert.Contains(t, report, "| 16 | 0.8 | 12.5 | 0.781 |")
	assert.Contains(t, report, "![Speedup](assets/speedup-512.png)")
}
