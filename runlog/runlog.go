package runlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TimeColumn is the column holding the per-epoch execution time in seconds
const TimeColumn = "time"

// ErrNoTimeColumn is returned when a log has no time column in its header
var ErrNoTimeColumn = errors.New("log has no time column")

// Configuration is one benchmark run at a fixed processor count / domain decomposition
type Configuration struct {
	Label      string // Decomposition label, e.g. "2x2" (not checked against Processors)
	Processors int    // Number of processors used for the run
	Path       string // Path to the run's CSV log
}

// decompositions lists the benchmark runs in ascending processor order
var decompositions = []struct {
	label      string
	processors int
}{
	{"1x1", 1},
	{"2x1", 2},
	{"2x2", 4},
	{"4x2", 8},
	{"6x2", 12},
	{"4x4", 16},
}

// DefaultConfigurations returns the six fixed configurations with logs under dir,
// named log-out-<label>.txt
func DefaultConfigurations(dir string) []Configuration {
	configs := make([]Configuration, 0, len(decompositions))
	for _, d := range decompositions {
		configs = append(configs, Configuration{
			Label:      d.label,
			Processors: d.processors,
			Path:       filepath.Join(dir, fmt.Sprintf("log-out-%s.txt", d.label)),
		})
	}
	return configs
}

// SeriesLabel returns the legend label used for the configuration
func (c Configuration) SeriesLabel() string {
	if c.Processors == 1 {
		return "1 processor"
	}
	return fmt.Sprintf("%d processors", c.Processors)
}

// RunLog holds the parsed log of one configuration
type RunLog struct {
	Config  Configuration
	Header  []string
	Columns map[string][]float64 // Numeric columns only, keyed by header name
}

// Times returns the time column, one value per recorded epoch
func (r *RunLog) Times() []float64 {
	return r.Columns[TimeColumn]
}

// Len returns the number of recorded epochs
func (r *RunLog) Len() int {
	return len(r.Times())
}

// NumericColumns returns the names of the numeric columns in header order
func (r *RunLog) NumericColumns() []string {
	var names []string
	for _, name := range r.Header {
		if _, ok := r.Columns[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Load reads the log for one configuration
func Load(cfg Configuration) (*RunLog, error) {
	file, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log %s: %w", cfg.Path, err)
	}
	defer file.Close()

	log, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log %s: %w", cfg.Path, err)
	}
	log.Config = cfg
	return log, nil
}

// LoadAll reads the logs of every configuration, stopping at the first failure
func LoadAll(configs []Configuration) ([]*RunLog, error) {
	logs := make([]*RunLog, 0, len(configs))
	for _, cfg := range configs {
		log, err := Load(cfg)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

// Parse reads a CSV log with a header row. The time column must be present and numeric
// on every row; other columns are kept only if every cell parses as a number.
func Parse(r io.Reader) (*RunLog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("log is empty or has no data rows")
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.TrimSpace(name)
	}

	timeIdx := -1
	for i, name := range header {
		if name == TimeColumn {
			timeIdx = i
			break
		}
	}
	if timeIdx < 0 {
		return nil, ErrNoTimeColumn
	}

	columns := make(map[string][]float64, len(header))
	numeric := make([]bool, len(header))
	for i, name := range header {
		// Unnamed and repeated columns are ignored
		if _, dup := columns[name]; name == "" || dup {
			continue
		}
		numeric[i] = true
		columns[name] = make([]float64, 0, len(records)-1)
	}

	for row, record := range records[1:] { // Skip header
		for i := range header {
			if !numeric[i] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				if i == timeIdx {
					return nil, fmt.Errorf("row %d: invalid time value %q", row+2, record[i])
				}
				numeric[i] = false
				delete(columns, header[i])
				continue
			}
			columns[header[i]] = append(columns[header[i]], v)
		}
	}

	return &RunLog{
		Header:  header,
		Columns: columns,
	}, nil
}
