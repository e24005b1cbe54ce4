package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"

	"millermaps/internal/config"
	"millermaps/internal/exitcode"
	"millermaps/internal/logging"
	"millermaps/internal/metrics"
	"millermaps/internal/model"
	tracing "millermaps/internal/otel"
	"millermaps/internal/page"
	"millermaps/internal/repository"
	"millermaps/internal/repository/jsonfile"
	"millermaps/internal/service"
	"millermaps/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	err := run(context.Background(), cfg, os.Stdout, prometheus.NewRegistry())
	if err != nil {
		logging.JSON(cfg.Location(), map[string]any{
			"component":     "build",
			"event":         "build_failed",
			"status":        "error",
			"error_code":    exitcode.Class(err),
			"error_message": err.Error(),
		})
	}
	os.Exit(exitcode.For(err))
}

func run(ctx context.Context, cfg *config.AppConfig, stdout io.Writer, reg *prometheus.Registry) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	loc := cfg.Location()

	shutdown, err := tracing.Init(ctx, loc, cfg.Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logging.JSON(loc, map[string]any{
				"component":     "tracing",
				"event":         "tracing_shutdown_failed",
				"level":         "warn",
				"error_message": err.Error(),
			})
		}
	}()

	buildMetrics, err := metrics.NewBuildMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	renderer, err := page.NewRenderer()
	if err != nil {
		return fmt.Errorf("%w: %w", service.ErrRender, err)
	}

	disk := storage.NewDisk(cfg.OutputDir)
	manifests := jsonfile.NewManifestFile(disk, jsonfile.DefaultPath)
	previous := loadPrevious(ctx, manifests, loc)

	emitter := service.NewEmitterService(disk, manifests, renderer, service.EmitterConfig{
		Version:  cfg.Version,
		Progress: stdout,
		Location: loc,
	})

	start := time.Now()
	res, err := emitter.Emit(ctx)
	buildMetrics.Observe(res, err, time.Since(start))
	writeMetrics(cfg.MetricsFile, reg, loc)
	if err != nil {
		return err
	}

	checkClock(previous, res.Record, loc)

	if cfg.Publish.Enabled {
		store, err := storage.NewMinIO(ctx, cfg.Publish.MinIO)
		if err != nil {
			return fmt.Errorf("%w: %w", service.ErrPublish, err)
		}
		publisher := service.NewPublishService(store, disk, cfg.Publish.Prefix, loc)
		if _, err := publisher.Publish(ctx, res); err != nil {
			return err
		}
	}

	logging.JSON(loc, map[string]any{
		"component":   "build",
		"event":       "build_success",
		"status":      "success",
		"run_id":      res.RunID,
		"version":     res.Record.Version,
		"build_time":  res.Record.BuildTime,
		"artifacts":   len(res.Artifacts),
		"published":   cfg.Publish.Enabled,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// loadPrevious returns the manifest of the last run, if one is readable.
func loadPrevious(ctx context.Context, manifests repository.ManifestRepository, loc *time.Location) *time.Time {
	rec, err := manifests.Load(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logging.JSON(loc, map[string]any{
				"component":     "build",
				"event":         "previous_manifest_unreadable",
				"level":         "warn",
				"error_message": err.Error(),
			})
		}
		return nil
	}
	t, err := rec.Time()
	if err != nil {
		return nil
	}
	return &t
}

// checkClock warns when build_time went backwards; it never fails the build.
func checkClock(previous *time.Time, rec model.BuildRecord, loc *time.Location) {
	if previous == nil {
		return
	}
	cur, err := rec.Time()
	if err != nil || !cur.Before(*previous) {
		return
	}
	logging.JSON(loc, map[string]any{
		"component":           "build",
		"event":               "clock_went_backwards",
		"level":               "warn",
		"previous_build_time": previous.Format(time.RFC3339Nano),
		"build_time":          cur.Format(time.RFC3339Nano),
	})
}

func writeMetrics(file string, g prometheus.Gatherer, loc *time.Location) {
	if file == "" {
		return
	}
	if err := metrics.WriteTextfile(file, g); err != nil {
		logging.JSON(loc, map[string]any{
			"component":     "metrics",
			"event":         "textfile_write_failed",
			"level":         "warn",
			"path":          file,
			"error_message": err.Error(),
		})
	}
}
