package metrics

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/celtab/benchmark-metrics/runlog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// histogramBins is the number of buckets printed under the statistics table
const histogramBins = 10

// Description holds descriptive statistics of one numeric column.
// Std is the sample standard deviation; quartiles interpolate between closest ranks.
type Description struct {
	Column string
	Count  int
	Mean   float64
	Std    float64 // Sample standard deviation, NaN for fewer than two values
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Describe computes count, mean, std, min, quartiles and max of values
func Describe(column string, values []float64) Description {
	d := Description{Column: column, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		d.Mean, d.Std, d.Min, d.Q25, d.Q50, d.Q75, d.Max = nan, nan, nan, nan, nan, nan, nan
		return d
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	d.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		d.Std = stat.StdDev(sorted, nil)
	} else {
		d.Std = math.NaN()
	}
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.Q25 = quantile(sorted, 0.25)
	d.Q50 = quantile(sorted, 0.50)
	d.Q75 = quantile(sorted, 0.75)
	return d
}

// quantile interpolates linearly between the closest ranks of sorted (R type 7).
// stat.Quantile only offers the empirical and type 4 estimators.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := math.Floor(pos)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (pos-lo)*(sorted[i+1]-sorted[i])
}

// DescribeRunLog describes every numeric column of the log, in header order
func DescribeRunLog(log *runlog.RunLog) []Description {
	columns := log.NumericColumns()
	out := make([]Description, 0, len(columns))
	for _, name := range columns {
		out = append(out, Describe(name, log.Columns[name]))
	}
	return out
}

// FprintDescriptions writes the statistics as a table with one column per description
func FprintDescriptions(w io.Writer, descs []Description) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := make([]string, 0, len(descs)+1)
	header = append(header, "")
	for _, d := range descs {
		header = append(header, d.Column)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	stats := []struct {
		name string
		get  func(Description) string
	}{
		{"count", func(d Description) string { return fmt.Sprintf("%.6f", float64(d.Count)) }},
		{"mean", func(d Description) string { return formatStat(d.Mean) }},
		{"std", func(d Description) string { return formatStat(d.Std) }},
		{"min", func(d Description) string { return formatStat(d.Min) }},
		{"25%", func(d Description) string { return formatStat(d.Q25) }},
		{"50%", func(d Description) string { return formatStat(d.Q50) }},
		{"75%", func(d Description) string { return formatStat(d.Q75) }},
		{"max", func(d Description) string { return formatStat(d.Max) }},
	}
	for _, s := range stats {
		line := make([]string, 0, len(descs)+1)
		line = append(line, s.name)
		for _, d := range descs {
			line = append(line, s.get(d))
		}
		fmt.Fprintln(tw, strings.Join(line, "\t")+"\t")
	}

	return tw.Flush()
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6f", v)
}

// FprintHistogram prints an ASCII histogram of values. Nothing is printed when all
// values are equal, since there is no spread to bucket.
func FprintHistogram(w io.Writer, values []float64) error {
	if len(values) < 2 || floats.Min(values) == floats.Max(values) {
		return nil
	}
	hist := histogram.Hist(histogramBins, values)
	return histogram.Fprint(w, hist, histogram.Linear(5))
}
