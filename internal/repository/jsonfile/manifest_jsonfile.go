package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"millermaps/internal/model"
	"millermaps/internal/repository"
	"millermaps/internal/storage"
)

// DefaultPath is where the manifest lives relative to the output root.
const DefaultPath = "build_info.json"

type manifestFile struct {
	disk storage.Disk
	path string
}

// NewManifestFile stores the manifest as indented JSON at path on disk.
func NewManifestFile(disk storage.Disk, path string) repository.ManifestRepository {
	return &manifestFile{disk: disk, path: path}
}

func (r *manifestFile) Save(ctx context.Context, rec model.BuildRecord) error {
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	b = append(b, '\n')
	if err := r.disk.WriteFile(ctx, r.path, b); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

// Load rejects manifests carrying fields other than build_time, version and status.
func (r *manifestFile) Load(ctx context.Context) (*model.BuildRecord, error) {
	b, err := r.disk.ReadFile(ctx, r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var rec model.BuildRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	if !rec.Status.Valid() {
		return nil, fmt.Errorf("decode %s: unknown status %q", r.path, rec.Status)
	}
	return &rec, nil
}
