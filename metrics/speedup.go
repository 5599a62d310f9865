package metrics

import (
	"math"
	"strconv"

	"github.com/celtab/benchmark-metrics/runlog"
	"gonum.org/v1/gonum/floats"
)

// Row is one line of the execution-time summary.
// Speedup and Efficiency are NaN until they have been computed.
type Row struct {
	AmountProcessor int
	TimeMax         float64
	Speedup         float64
	Efficiency      float64
}

// HasSpeedup reports whether the speedup field holds a value
func (r Row) HasSpeedup() bool {
	return !math.IsNaN(r.Speedup)
}

// HasEfficiency reports whether the efficiency field holds a value
func (r Row) HasEfficiency() bool {
	return !math.IsNaN(r.Efficiency)
}

// TimeMaxRows builds one row per run log holding the processor count and the maximum
// recorded time. Speedup and efficiency are left absent.
func TimeMaxRows(logs []*runlog.RunLog) []Row {
	rows := make([]Row, 0, len(logs))
	for _, log := range logs {
		row := Row{
			AmountProcessor: log.Config.Processors,
			TimeMax:         math.NaN(),
			Speedup:         math.NaN(),
			Efficiency:      math.NaN(),
		}
		if times := log.Times(); len(times) > 0 {
			row.TimeMax = floats.Max(times)
		}
		rows = append(rows, row)
	}
	return rows
}

// SpeedupEfficiency fills speedup = t(1)/t(p) and efficiency = speedup/p for every row
// after the first, which is the single-processor baseline. The baseline row itself is
// left untouched. The input slice is not modified.
func SpeedupEfficiency(rows []Row) []Row {
	out := make([]Row, len(rows))
	copy(out, rows)
	if len(out) == 0 {
		return out
	}

	baseline := out[0].TimeMax
	for i := 1; i < len(out); i++ {
		out[i].Speedup = baseline / out[i].TimeMax
		out[i].Efficiency = out[i].Speedup / float64(out[i].AmountProcessor)
	}
	return out
}

// MaskUndefined replaces NaN and infinite speedup/efficiency values with 0 in place and
// returns the indices of the rows that were changed.
func MaskUndefined(rows []Row) []int {
	var masked []int
	for i := range rows {
		changed := false
		if undefined(rows[i].Speedup) {
			rows[i].Speedup = 0
			changed = true
		}
		if undefined(rows[i].Efficiency) {
			rows[i].Efficiency = 0
			changed = true
		}
		if changed {
			masked = append(masked, i)
		}
	}
	return masked
}

func undefined(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// RoundSig rounds v to n significant digits
func RoundSig(v float64, n int) float64 {
	if v == 0 || undefined(v) {
		return v
	}
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'g', n, 64), 64)
	return r
}
