package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"millermaps/internal/model"
	"millermaps/internal/page"
	"millermaps/internal/repository/jsonfile"
	repoMocks "millermaps/internal/repository/mocks"
	"millermaps/internal/storage"
	storeMocks "millermaps/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type renderFunc func(time.Time) (model.RenderedDocument, error)

func (f renderFunc) Render(t time.Time) (model.RenderedDocument, error) { return f(t) }

// tickingClock returns a clock that advances by step on every call.
func tickingClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(step)
		return t
	}
}

func newDiskEmitter(t *testing.T, root string, now func() time.Time, progress io.Writer) EmitterService {
	t.Helper()
	r, err := page.NewRenderer()
	require.NoError(t, err)
	disk := storage.NewDisk(root)
	return NewEmitterService(disk, jsonfile.NewManifestFile(disk, jsonfile.DefaultPath), r, EmitterConfig{
		Now:      now,
		Progress: progress,
	})
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(root, p)
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func readManifest(t *testing.T, root string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(root, "build_info.json"))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

var wantFiles = []string{"build_info.json", "docs/index.html", "index.html", "public/index.html"}

func TestEmitterService_Emit_EmptyDir(t *testing.T) {
	root := t.TempDir()
	var progress bytes.Buffer
	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	svc := newDiskEmitter(t, root, func() time.Time { return at }, &progress)

	res, err := svc.Emit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, wantFiles, listFiles(t, root))

	var pages [][]byte
	for _, p := range []string{"public/index.html", "docs/index.html", "index.html"} {
		b, err := os.ReadFile(filepath.Join(root, p))
		require.NoError(t, err)
		pages = append(pages, b)
	}
	assert.Equal(t, pages[0], pages[1])
	assert.Equal(t, pages[0], pages[2])
	assert.Equal(t, []byte(res.Document), pages[0])
	assert.Contains(t, string(pages[0]), "Build: 2024-06-01 12:30:00 UTC")

	m := readManifest(t, root)
	assert.Len(t, m, 3)
	assert.Equal(t, "success", m["status"])
	assert.Equal(t, "1.0.0", m["version"])
	assert.Equal(t, "2024-06-01T12:30:00Z", m["build_time"])

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, model.StatusSuccess, res.Record.Status)
	require.Len(t, res.Artifacts, 4)
	assert.Equal(t, "public/index.html", res.Artifacts[0].Path)
	assert.Equal(t, "build_info.json", res.Artifacts[3].Path)
	assert.Equal(t, "application/json", res.Artifacts[3].ContentType)

	out := progress.String()
	assert.Contains(t, out, "build process starting")
	assert.Contains(t, out, "Generated files: public/index.html, docs/index.html, index.html")
	assert.Contains(t, out, "Build completed at: 2024-06-01T12:30:00Z")
}

func TestEmitterService_Emit_TwiceRefreshesBuildTime(t *testing.T) {
	root := t.TempDir()
	svc := newDiskEmitter(t, root, tickingClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 1500*time.Millisecond), io.Discard)
	ctx := context.Background()

	first, err := svc.Emit(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantFiles, listFiles(t, root))

	second, err := svc.Emit(ctx)
	require.NoError(t, err)
	assert.Equal(t, wantFiles, listFiles(t, root))

	t1, err := first.Record.Time()
	require.NoError(t, err)
	t2, err := second.Record.Time()
	require.NoError(t, err)
	assert.False(t, t2.Before(t1))
	assert.NotEqual(t, first.RunID, second.RunID)

	assert.Equal(t, second.Record.BuildTime, readManifest(t, root)["build_time"])
}

func TestEmitterService_Emit_RealClockMonotonic(t *testing.T) {
	root := t.TempDir()
	svc := newDiskEmitter(t, root, nil, io.Discard)

	first, err := svc.Emit(context.Background())
	require.NoError(t, err)
	second, err := svc.Emit(context.Background())
	require.NoError(t, err)

	t1, err := first.Record.Time()
	require.NoError(t, err)
	t2, err := second.Record.Time()
	require.NoError(t, err)
	assert.False(t, t2.Before(t1))
}

func TestEmitterService_Emit_PreexistingDirsAndFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), bytes.Repeat([]byte("stale "), 10000), 0o644))

	svc := newDiskEmitter(t, root, nil, io.Discard)

	res, err := svc.Emit(context.Background())
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, []byte(res.Document), b)
}

func TestEmitterService_Emit_Failures(t *testing.T) {
	ctx := context.Background()
	doc := model.RenderedDocument("<html></html>")
	okRender := renderFunc(func(time.Time) (model.RenderedDocument, error) { return doc, nil })

	tests := []struct {
		name       string
		render     Renderer
		setupMocks func(d *storeMocks.MockDisk, r *repoMocks.MockManifestRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name:   "directory creation fails",
			render: okRender,
			setupMocks: func(d *storeMocks.MockDisk, r *repoMocks.MockManifestRepository) {
				d.On("EnsureDir", mock.Anything, "public").Return(os.ErrPermission)
			},
			wantErr:    ErrIO,
			wantErrMsg: "create public",
		},
		{
			name:   "second page write fails",
			render: okRender,
			setupMocks: func(d *storeMocks.MockDisk, r *repoMocks.MockManifestRepository) {
				d.On("EnsureDir", mock.Anything, mock.Anything).Return(nil).Twice()
				d.On("WriteFile", mock.Anything, "public/index.html", []byte(doc)).Return(nil).Once()
				d.On("WriteFile", mock.Anything, "docs/index.html", []byte(doc)).Return(errors.New("disk full")).Once()
			},
			wantErr:    ErrIO,
			wantErrMsg: "write docs/index.html: disk full",
		},
		{
			name:   "manifest write fails",
			render: okRender,
			setupMocks: func(d *storeMocks.MockDisk, r *repoMocks.MockManifestRepository) {
				d.On("EnsureDir", mock.Anything, mock.Anything).Return(nil).Twice()
				d.On("WriteFile", mock.Anything, mock.Anything, []byte(doc)).Return(nil).Times(3)
				r.On("Save", mock.Anything, mock.MatchedBy(func(rec model.BuildRecord) bool {
					return rec.Status == model.StatusSuccess && rec.Version == "1.0.0"
				})).Return(errors.New("write build_info.json: read-only file system"))
			},
			wantErr:    ErrIO,
			wantErrMsg: "read-only file system",
		},
		{
			name: "render fails",
			render: renderFunc(func(time.Time) (model.RenderedDocument, error) {
				return nil, errors.New("bad template")
			}),
			setupMocks: func(d *storeMocks.MockDisk, r *repoMocks.MockManifestRepository) {
				d.On("EnsureDir", mock.Anything, mock.Anything).Return(nil).Twice()
			},
			wantErr:    ErrRender,
			wantErrMsg: "bad template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mDisk := new(storeMocks.MockDisk)
			mRepo := new(repoMocks.MockManifestRepository)
			tt.setupMocks(mDisk, mRepo)

			svc := NewEmitterService(mDisk, mRepo, tt.render, EmitterConfig{Progress: io.Discard})

			res, err := svc.Emit(ctx)

			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantErrMsg)
			mDisk.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestEmitterService_Emit_UnderlyingErrorPreserved(t *testing.T) {
	mDisk := new(storeMocks.MockDisk)
	mDisk.On("EnsureDir", mock.Anything, "public").Return(os.ErrPermission)

	svc := NewEmitterService(mDisk, new(repoMocks.MockManifestRepository), nil, EmitterConfig{Progress: io.Discard})

	_, err := svc.Emit(context.Background())
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestEmitterService_Emit_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	r, err := page.NewRenderer()
	require.NoError(t, err)
	disk := storage.NewDisk(t.TempDir())
	svc := NewEmitterService(disk, jsonfile.NewManifestFile(disk, jsonfile.DefaultPath), r, EmitterConfig{
		Version:        "2.0.0",
		Progress:       io.Discard,
		TracerProvider: tp,
	})

	res, err := svc.Emit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", res.Record.Version)

	names := map[string]int{}
	for _, s := range sr.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, map[string]int{
		"emitter.Emit":           1,
		"emitter.ensure_dir":     2,
		"emitter.write_page":     3,
		"emitter.write_manifest": 1,
	}, names)
}
