package uploader

import (
	"fmt"
	"time"
)

// GCSUploadConfig holds configuration for publishing report artifacts to GCS
type GCSUploadConfig struct {
	Bucket       string        // GCS bucket name (required)
	ObjectPrefix string        // Object prefix (e.g., "benchmarks/512/")
	Endpoint     string        // Optional: alternate endpoint, e.g. a local emulator
	ChunkSize    int           // Resumable upload chunk size (default: 8MB)
	MaxRetries   int           // Max retry attempts per file (default: 3)
	RetryDelay   time.Duration // Delay between retries (default: 5s)
}

// DefaultGCSUploadConfig returns a GCS upload configuration with defaults
func DefaultGCSUploadConfig(bucket string) GCSUploadConfig {
	return GCSUploadConfig{
		Bucket:     bucket,
		ChunkSize:  8 * 1024 * 1024, // 8MB
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// Validate checks if the GCS upload configuration is valid and applies defaults where needed
func (g *GCSUploadConfig) Validate() error {
	if g.Bucket == "" {
		return fmt.Errorf("bucket name is required")
	}

	if g.ChunkSize <= 0 {
		g.ChunkSize = 8 * 1024 * 1024
	}

	if g.MaxRetries < 0 {
		g.MaxRetries = 3
	}

	if g.RetryDelay <= 0 {
		g.RetryDelay = 5 * time.Second
	}

	return nil
}
