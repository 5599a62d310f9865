package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/celtab/benchmark-metrics/runlog"
	"github.com/celtab/benchmark-metrics/uploader"
	"github.com/joho/godotenv"
)

// DefaultMesh is the mesh size of the cavity case the benchmark ran
const DefaultMesh = "512"

// Config holds the configuration for one reporting run
type Config struct {
	// Inputs
	Mesh           string                 // Mesh size, used in every default path (default: "512")
	ResultsDir     string                 // Directory holding the run logs (default: results-<mesh>)
	Configurations []runlog.Configuration // Runs in ascending processor order

	// Outputs
	SummaryPath string // Summary CSV (default: ExecutionTime-<mesh>.csv)
	ReportPath  string // Markdown scaling report (default: SCALING-<mesh>.md)
	AssetsDir   string // Chart directory (default: assets)

	// Chart text
	Title       string // Title of every chart
	SeriesLabel string // Legend label of the speedup/efficiency series

	// Optional integrations
	GCSUploadConfig *uploader.GCSUploadConfig // Publish artifacts when set
	DatabaseURL     string                    // Persist summary rows when set
	ListenAddr      string                    // Serve the report over HTTP when set

	Debug bool
}

// DefaultConfig returns the configuration for a mesh with every default path
func DefaultConfig(mesh string) Config {
	resultsDir := "results-" + mesh
	return Config{
		Mesh:           mesh,
		ResultsDir:     resultsDir,
		Configurations: runlog.DefaultConfigurations(resultsDir),
		SummaryPath:    fmt.Sprintf("ExecutionTime-%s.csv", mesh),
		ReportPath:     fmt.Sprintf("SCALING-%s.md", mesh),
		AssetsDir:      "assets",
		Title:          "CELTAB Cluster Metrics",
		SeriesLabel:    "IcoFoam Cavity Simulation",
	}
}

// ExecutionTimeChart is the path of the execution-time-per-epoch chart
func (c *Config) ExecutionTimeChart() string {
	return filepath.Join(c.AssetsDir, fmt.Sprintf("benchmark-%s.png", c.Mesh))
}

// SpeedupChart is the path of the speedup-vs-cores chart
func (c *Config) SpeedupChart() string {
	return filepath.Join(c.AssetsDir, fmt.Sprintf("speedup-%s.png", c.Mesh))
}

// EfficiencyChart is the path of the efficiency-vs-cores chart
func (c *Config) EfficiencyChart() string {
	return filepath.Join(c.AssetsDir, fmt.Sprintf("efficiency-%s.png", c.Mesh))
}

// SetResultsDir points every configuration at logs under dir
func (c *Config) SetResultsDir(dir string) {
	c.ResultsDir = dir
	c.Configurations = runlog.DefaultConfigurations(dir)
}

// Validate checks if the configuration is valid and applies defaults where needed
func (c *Config) Validate() error {
	if c.Mesh == "" {
		c.Mesh = DefaultMesh
	}

	if c.ResultsDir == "" && len(c.Configurations) == 0 {
		c.SetResultsDir("results-" + c.Mesh)
	} else if len(c.Configurations) == 0 {
		c.Configurations = runlog.DefaultConfigurations(c.ResultsDir)
	}

	if c.Configurations[0].Processors != 1 {
		return fmt.Errorf("first configuration must be the 1-processor baseline, got %d processors", c.Configurations[0].Processors)
	}
	for i, cfg := range c.Configurations {
		if cfg.Processors <= 0 {
			return fmt.Errorf("configuration %s: processor count must be positive", cfg.Label)
		}
		if i > 0 && cfg.Processors <= c.Configurations[i-1].Processors {
			return fmt.Errorf("configurations must be in ascending processor order (%s after %s)", cfg.Label, c.Configurations[i-1].Label)
		}
	}

	if c.SummaryPath == "" {
		return fmt.Errorf("SummaryPath is required")
	}

	if c.AssetsDir == "" {
		c.AssetsDir = "assets"
	}

	if c.GCSUploadConfig != nil {
		if err := c.GCSUploadConfig.Validate(); err != nil {
			return fmt.Errorf("GCSUploadConfig validation failed: %w", err)
		}
	}

	return nil
}

// Load builds the configuration from an optional env file and the environment.
// A missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	mesh := os.Getenv("BENCH_MESH")
	if mesh == "" {
		mesh = DefaultMesh
	}
	cfg := DefaultConfig(mesh)

	if dir := os.Getenv("BENCH_RESULTS_DIR"); dir != "" {
		cfg.SetResultsDir(dir)
	}
	if path := os.Getenv("BENCH_SUMMARY_PATH"); path != "" {
		cfg.SummaryPath = path
	}
	if path := os.Getenv("BENCH_REPORT_PATH"); path != "" {
		cfg.ReportPath = path
	}
	if dir := os.Getenv("BENCH_ASSETS_DIR"); dir != "" {
		cfg.AssetsDir = dir
	}
	if bucket := os.Getenv("BENCH_GCS_BUCKET"); bucket != "" {
		gcs := uploader.DefaultGCSUploadConfig(bucket)
		gcs.ObjectPrefix = os.Getenv("BENCH_GCS_PREFIX")
		gcs.Endpoint = os.Getenv("BENCH_GCS_ENDPOINT")
		cfg.GCSUploadConfig = &gcs
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.ListenAddr = os.Getenv("BENCH_LISTEN_ADDR")

	if v := os.Getenv("BENCH_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid BENCH_DEBUG %q: %w", v, err)
		}
		cfg.Debug = debug
	}

	return cfg, nil
}
