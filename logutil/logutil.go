package logutil

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger *zap.Logger
	mu     sync.RWMutex
)

// InitLogger builds the process-wide logger. Production config writes JSON to stderr,
// debug switches to the human-readable development encoder.
func InitLogger(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}

	mu.Lock()
	logger = l
	mu.Unlock()
}

// GetLogger returns the process-wide logger, or a no-op logger if InitLogger was never called
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// SetLogger replaces the process-wide logger (used by tests to capture output)
func SetLogger(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}
