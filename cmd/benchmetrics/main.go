package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/celtab/benchmark-metrics/config"
	"github.com/celtab/benchmark-metrics/logutil"
	"github.com/celtab/benchmark-metrics/reporter"
	"github.com/celtab/benchmark-metrics/server"
	"github.com/celtab/benchmark-metrics/store"
	"github.com/celtab/benchmark-metrics/uploader"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	envFile := flag.String("env", ".env", "Env file with BENCH_* settings (optional)")
	mesh := flag.String("mesh", "", "Mesh size (overrides BENCH_MESH)")
	resultsDir := flag.String("results", "", "Directory holding the run logs")
	summaryPath := flag.String("summary", "", "Summary CSV path")
	assetsDir := flag.String("assets", "", "Chart output directory")
	serve := flag.String("serve", "", "Serve the report on this address after the run (e.g. :8080)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *mesh != "" {
		os.Setenv("BENCH_MESH", *mesh)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logutil.InitLogger(*debug)
		logutil.GetLogger().Fatal("Failed to load configuration", zap.Error(err))
	}
	if *resultsDir != "" {
		cfg.SetResultsDir(*resultsDir)
	}
	if *summaryPath != "" {
		cfg.SummaryPath = *summaryPath
	}
	if *assetsDir != "" {
		cfg.AssetsDir = *assetsDir
	}
	if *serve != "" {
		cfg.ListenAddr = *serve
	}
	cfg.Debug = cfg.Debug || *debug

	logutil.InitLogger(cfg.Debug)
	logger := logutil.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("Benchmark report failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := logutil.GetLogger()

	var opts []reporter.Option
	if cfg.GCSUploadConfig != nil {
		up, err := uploader.NewUploader(ctx, *cfg.GCSUploadConfig)
		if err != nil {
			return err
		}
		defer func() {
			stats := up.GetStats()
			logger.Info("Upload stats",
				zap.Int64("files", stats.Successful),
				zap.Int64("failed", stats.Failed),
				zap.Int64("bytes", stats.TotalBytes))
			up.Close()
		}()
		opts = append(opts, reporter.WithPublisher(up))
	}

	if cfg.DatabaseURL != "" {
		st, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.EnsureSchema(ctx); err != nil {
			return err
		}
		opts = append(opts, reporter.WithSink(st))
	}

	r, err := reporter.New(cfg, opts...)
	if err != nil {
		return err
	}
	logger.Info("Starting benchmark report",
		zap.String("mesh", cfg.Mesh),
		zap.String("results_dir", cfg.ResultsDir),
		zap.String("run_id", r.RunID()))

	start := time.Now()
	if err := r.Run(ctx); err != nil {
		return err
	}
	logger.Info("Benchmark report complete",
		zap.String("summary", cfg.SummaryPath),
		zap.Duration("elapsed", time.Since(start)))

	if cfg.ListenAddr == "" {
		return nil
	}
	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg config.Config) error {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.NewRouter(cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		logutil.GetLogger().Info("Serving report", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logutil.GetLogger().Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
