package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"millermaps/internal/logging"
	"millermaps/internal/model"
	"millermaps/internal/repository"
	"millermaps/internal/repository/jsonfile"
	"millermaps/internal/storage"
)

const tracerName = "millermaps/internal/service"

var (
	// ErrIO marks directory creation and file write failures.
	ErrIO = errors.New("i/o failure")
	// ErrRender marks a template that failed to execute.
	ErrRender = errors.New("render failure")
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

// Layout is the fixed shape of the output tree, relative to the output root.
type Layout struct {
	Dirs     []string
	Pages    []string
	Manifest string
}

// DefaultLayout is public/ and docs/, the page in three places, and build_info.json.
func DefaultLayout() Layout {
	return Layout{
		Dirs:     []string{"public", "docs"},
		Pages:    []string{"public/index.html", "docs/index.html", "index.html"},
		Manifest: jsonfile.DefaultPath,
	}
}

// Renderer produces the page for a given build time.
type Renderer interface {
	Render(buildTime time.Time) (model.RenderedDocument, error)
}

// EmitterConfig carries the optional knobs of the emitter. Zero values
// select the defaults.
type EmitterConfig struct {
	Version        string
	Layout         Layout
	Now            func() time.Time
	Progress       io.Writer
	Location       *time.Location
	TracerProvider trace.TracerProvider
}

// EmitterService builds the artifact set.
type EmitterService interface {
	// Emit ensures the output directories, renders the page, writes it to
	// every page path and then writes the manifest. The first failure aborts
	// the run; nothing already written is rolled back.
	Emit(ctx context.Context) (*model.BuildResult, error)
}

type emitterService struct {
	disk      storage.Disk
	manifests repository.ManifestRepository
	renderer  Renderer
	cfg       EmitterConfig
	tracer    trace.Tracer
}

// NewEmitterService constructs a new EmitterService.
func NewEmitterService(disk storage.Disk, manifests repository.ManifestRepository, renderer Renderer, cfg EmitterConfig) EmitterService {
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	if cfg.Layout.Manifest == "" {
		cfg.Layout = DefaultLayout()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Progress == nil {
		cfg.Progress = os.Stdout
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	return &emitterService{
		disk:      disk,
		manifests: manifests,
		renderer:  renderer,
		cfg:       cfg,
		tracer:    cfg.TracerProvider.Tracer(tracerName),
	}
}

func (s *emitterService) Emit(ctx context.Context) (*model.BuildResult, error) {
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "emitter.Emit", trace.WithAttributes(
		attribute.String("build.run_id", runID),
		attribute.String("build.version", s.cfg.Version),
	))
	defer span.End()

	res, err := s.emit(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return res, nil
}

func (s *emitterService) emit(ctx context.Context, runID string) (*model.BuildResult, error) {
	logging.Progress(s.cfg.Progress, "🏗️  Miller Maps build process starting...")

	for _, dir := range s.cfg.Layout.Dirs {
		if err := s.step(ctx, runID, "ensure_dir", dir, func(ctx context.Context) error {
			return s.disk.EnsureDir(ctx, dir)
		}); err != nil {
			return nil, fmt.Errorf("%w: create %s: %w", ErrIO, dir, err)
		}
	}

	// One clock reading feeds both the page and the manifest.
	now := s.cfg.Now()

	doc, err := s.renderer.Render(now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	res := &model.BuildResult{RunID: runID, Document: doc}

	for _, p := range s.cfg.Layout.Pages {
		if err := s.step(ctx, runID, "write_page", p, func(ctx context.Context) error {
			return s.disk.WriteFile(ctx, p, doc)
		}); err != nil {
			return nil, fmt.Errorf("%w: write %s: %w", ErrIO, p, err)
		}
		res.Artifacts = append(res.Artifacts, model.Artifact{Path: p, ContentType: contentTypeHTML})
	}

	rec := model.NewBuildRecord(now, s.cfg.Version)
	if err := s.step(ctx, runID, "write_manifest", s.cfg.Layout.Manifest, func(ctx context.Context) error {
		return s.manifests.Save(ctx, rec)
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	res.Record = rec
	res.Artifacts = append(res.Artifacts, model.Artifact{Path: s.cfg.Layout.Manifest, ContentType: contentTypeJSON})

	logging.Progress(s.cfg.Progress, "✅ Miller Maps build completed successfully!")
	logging.Progress(s.cfg.Progress, "📄 Generated files: %s", strings.Join(s.cfg.Layout.Pages, ", "))
	logging.Progress(s.cfg.Progress, "⏰ Build completed at: %s", rec.BuildTime)

	return res, nil
}

// step runs fn inside a child span and logs its outcome.
func (s *emitterService) step(ctx context.Context, runID, name, path string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, "emitter."+name, trace.WithAttributes(attribute.String("artifact.path", path)))
	defer span.End()

	start := time.Now()
	err := fn(ctx)

	entry := map[string]any{
		"component":   "emitter",
		"event":       name,
		"run_id":      runID,
		"path":        path,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		entry["status"] = "error"
		entry["error_message"] = err.Error()
	} else {
		entry["status"] = "success"
	}
	logging.JSON(s.cfg.Location, entry)
	return err
}
