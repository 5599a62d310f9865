package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/celtab/benchmark-metrics/logutil"
	"github.com/celtab/benchmark-metrics/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// WriteReport writes the markdown scaling report from the filled summary rows
func (r *BenchmarkReporter) WriteReport() (err error) {
	if r.rows == nil {
		return fmt.Errorf("summary rows not computed")
	}

	file, err := os.Create(r.cfg.ReportPath)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", r.cfg.ReportPath, err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	if err := r.generateReport(file); err != nil {
		return fmt.Errorf("failed to write report %s: %w", r.cfg.ReportPath, err)
	}
	logutil.GetLogger().Info("Wrote report", zap.String("path", r.cfg.ReportPath))
	return nil
}

func (r *BenchmarkReporter) generateReport(out io.Writer) error {
	var werr error
	w := func(format string, args ...interface{}) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(out, format, args...)
	}

	rows := r.rows

	// Title and metadata
	w("# Scaling Results: Cavity Mesh %s\n\n", r.cfg.Mesh)
	w("**Generated:** %s\n\n", r.now().Format("2006-01-02 15:04:05"))
	w("**Run ID:** %s\n\n", r.runID)
	w("**Configurations:** %d\n\n", len(rows))
	w("---\n\n")

	if best, ok := bestRow(rows, func(row metrics.Row) float64 { return row.Speedup }); ok {
		w("## Key Findings\n\n")
		w("**Highest Speedup:**\n")
		w("- Processors: %d\n", best.AmountProcessor)
		w("- Speedup: %s\n", sig(best.Speedup))
		w("- Efficiency: %s\n\n", sig(best.Efficiency))
	}
	if best, ok := bestRow(rows, func(row metrics.Row) float64 { return row.Efficiency }); ok {
		w("**Highest Efficiency:**\n")
		w("- Processors: %d\n", best.AmountProcessor)
		w("- Speedup: %s\n", sig(best.Speedup))
		w("- Efficiency: %s\n\n", sig(best.Efficiency))
	}

	w("## Summary\n\n")
	w("| Processors | Time max (s) | Speedup | Efficiency |\n")
	w("|------------|--------------|---------|------------|\n")
	for _, row := range rows {
		w("| %d | %s | %s | %s |\n",
			row.AmountProcessor,
			sig(row.TimeMax),
			sig(row.Speedup),
			sig(row.Efficiency))
	}
	w("\n")

	w("## Charts\n\n")
	reportDir := filepath.Dir(r.cfg.ReportPath)
	for _, c := range []struct{ name, path string }{
		{"Execution time", r.cfg.ExecutionTimeChart()},
		{"Speedup", r.cfg.SpeedupChart()},
		{"Efficiency", r.cfg.EfficiencyChart()},
	} {
		rel, err := filepath.Rel(reportDir, c.path)
		if err != nil {
			rel = c.path
		}
		w("![%s](%s)\n\n", c.name, filepath.ToSlash(rel))
	}

	return werr
}

// bestRow returns the non-baseline row with the highest value
func bestRow(rows []metrics.Row, value func(metrics.Row) float64) (metrics.Row, bool) {
	if len(rows) < 2 {
		return metrics.Row{}, false
	}
	best := rows[1]
	for _, row := range rows[2:] {
		if value(row) > value(best) {
			best = row
		}
	}
	return best, true
}

// sig formats v with three significant digits
func sig(v float64) string {
	return strconv.FormatFloat(metrics.RoundSig(v, 3), 'f', -1, 64)
}
