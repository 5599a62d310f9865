package uploader

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/celtab/benchmark-metrics/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// objectStore opens writers for named objects in one bucket
type objectStore interface {
	NewWriter(ctx context.Context, object, contentType string) io.WriteCloser
}

// gcsStore writes objects to a GCS bucket
type gcsStore struct {
	bucket    *storage.BucketHandle
	chunkSize int
}

func (g *gcsStore) NewWriter(ctx context.Context, object, contentType string) io.WriteCloser {
	w := g.bucket.Object(object).NewWriter(ctx)
	w.ChunkSize = g.chunkSize
	w.ContentType = contentType
	return w
}

// Uploader publishes report artifacts (summary CSV, charts, markdown) to GCS
type Uploader struct {
	config      GCSUploadConfig
	client      *storage.Client
	store       objectStore
	uploadStats Stats
	statsMu     sync.RWMutex
}

// Stats tracks upload statistics
type Stats struct {
	TotalFiles     int64
	Successful     int64
	Failed         int64
	TotalBytes     int64
	TotalDuration  time.Duration
	LastUploadTime time.Time
}

// NewUploader creates a GCS client for the configured bucket
func NewUploader(ctx context.Context, config GCSUploadConfig) (*Uploader, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithUserAgent("benchmark-metrics")}
	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	u := newUploader(config, &gcsStore{
		bucket:    client.Bucket(config.Bucket),
		chunkSize: config.ChunkSize,
	})
	u.client = client
	return u, nil
}

func newUploader(config GCSUploadConfig, store objectStore) *Uploader {
	return &Uploader{
		config: config,
		store:  store,
	}
}

// Close releases the storage client
func (u *Uploader) Close() error {
	if u.client == nil {
		return nil
	}
	return u.client.Close()
}

// GetStats returns current upload statistics
func (u *Uploader) GetStats() Stats {
	u.statsMu.RLock()
	defer u.statsMu.RUnlock()
	return u.uploadStats
}

// Upload publishes every file under prefix. A failed file does not stop the others;
// all failures are returned together.
func (u *Uploader) Upload(ctx context.Context, prefix string, paths ...string) error {
	logger := logutil.GetLogger()

	var errs error
	for _, path := range paths {
		object := u.objectName(prefix, path)
		err := u.uploadFileWithRetry(ctx, path, object)

		u.statsMu.Lock()
		u.uploadStats.TotalFiles++
		if err != nil {
			u.uploadStats.Failed++
		} else {
			u.uploadStats.Successful++
			u.uploadStats.LastUploadTime = time.Now()
		}
		u.statsMu.Unlock()

		if err != nil {
			logger.Error("Failed to upload artifact",
				zap.String("path", path),
				zap.Int("retries", u.config.MaxRetries),
				zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		logger.Info("Uploaded artifact",
			zap.String("path", path),
			zap.String("object", fmt.Sprintf("gs://%s/%s", u.config.Bucket, object)))
	}
	return errs
}

// uploadFileWithRetry uploads a file with retry logic
func (u *Uploader) uploadFileWithRetry(ctx context.Context, path, object string) error {
	var lastErr error
	for attempt := 0; attempt <= u.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Wait before retry
			select {
			case <-ctx.Done():
				return fmt.Errorf("upload cancelled: %w", ctx.Err())
			case <-time.After(u.config.RetryDelay):
			}
		}

		start := time.Now()
		n, err := u.uploadFile(ctx, path, object)
		if err == nil {
			u.statsMu.Lock()
			u.uploadStats.TotalBytes += n
			u.uploadStats.TotalDuration += time.Since(start)
			u.statsMu.Unlock()
			return nil
		}

		lastErr = err
		if attempt < u.config.MaxRetries {
			logutil.GetLogger().Warn("Upload attempt failed, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Int("attempts", u.config.MaxRetries+1),
				zap.Error(err))
		}
	}

	return fmt.Errorf("upload failed after %d attempts: %w", u.config.MaxRetries+1, lastErr)
}

// uploadFile streams a single file into the object
func (u *Uploader) uploadFile(ctx context.Context, path, object string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	w := u.store.NewWriter(ctx, object, contentType(path))
	n, err := io.Copy(w, file)
	if err != nil {
		w.Close()
		return 0, fmt.Errorf("write error: %w", err)
	}

	// The object is only committed on Close
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("close error: %w", err)
	}
	return n, nil
}

// objectName joins the configured prefix, the per-run prefix and the file name
func (u *Uploader) objectName(prefix, path string) string {
	return u.config.ObjectPrefix + prefix + filepath.Base(path)
}

func contentType(path string) string {
	switch filepath.Ext(path) {
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
