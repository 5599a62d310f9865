package summary

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/celtab/benchmark-metrics/metrics"
	"go.uber.org/multierr"
)

// Column names of the summary CSV, in file order
const (
	ColAmountProcessor = "amount_processor"
	ColTimeMax         = "time_max"
	ColSpeedup         = "speedup"
	ColEfficiency      = "efficiency"
)

// Header is the header row written by WriteInitial
var Header = []string{ColAmountProcessor, ColTimeMax, ColSpeedup, ColEfficiency}

// WriteInitial creates (or truncates) the summary at path with the header and the
// processor count and time_max of each row. Speedup and efficiency cells are left empty.
func WriteInitial(path string, rows []metrics.Row) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, Header)
	for _, row := range rows {
		records = append(records, []string{
			strconv.Itoa(row.AmountProcessor),
			formatFloat(row.TimeMax),
			"",
			"",
		})
	}
	return writeRecords(path, records)
}

// WriteFilled rewrites the summary at path with every field populated. The rewrite
// carries a leading unnamed column holding the zero-based row index.
func WriteFilled(path string, rows []metrics.Row) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, append([]string{""}, Header...))
	for i, row := range rows {
		records = append(records, []string{
			strconv.Itoa(i),
			strconv.Itoa(row.AmountProcessor),
			formatFloat(row.TimeMax),
			formatFloat(row.Speedup),
			formatFloat(row.Efficiency),
		})
	}
	return writeRecords(path, records)
}

// Read loads the summary at path. It accepts both the initial layout and the filled
// layout with its leading index column. Empty cells read back as NaN.
func Read(path string) ([]metrics.Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open summary %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read summary %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("summary %s has no header", path)
	}

	index := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		index[name] = i
	}
	for _, name := range Header {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("summary %s is missing column %q", path, name)
		}
	}

	rows := make([]metrics.Row, 0, len(records)-1)
	for n, record := range records[1:] { // Skip header
		line := n + 2
		procs, err := strconv.Atoi(strings.TrimSpace(record[index[ColAmountProcessor]]))
		if err != nil {
			return nil, fmt.Errorf("summary %s line %d: invalid %s: %w", path, line, ColAmountProcessor, err)
		}

		row := metrics.Row{AmountProcessor: procs}
		fields := []struct {
			name string
			dst  *float64
		}{
			{ColTimeMax, &row.TimeMax},
			{ColSpeedup, &row.Speedup},
			{ColEfficiency, &row.Efficiency},
		}
		for _, f := range fields {
			v, err := parseFloat(record[index[f.name]])
			if err != nil {
				return nil, fmt.Errorf("summary %s line %d: invalid %s: %w", path, line, f.name, err)
			}
			*f.dst = v
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func writeRecords(path string, records [][]string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, file.Close())
	}()

	w := csv.NewWriter(file)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
