package repository

import (
	"context"
	"errors"

	"millermaps/internal/model"
)

// Package repository contains persistence of the build manifest.
// Implementations live in subpackages; the only one today is jsonfile.

// ErrNotFound is returned by Load when no manifest has been written yet.
var ErrNotFound = errors.New("manifest not found")

// ManifestRepository persists the BuildRecord of the latest run.
// No business logic here; strictly persistence operations.
type ManifestRepository interface {
	// Save replaces the stored manifest with rec.
	Save(ctx context.Context, rec model.BuildRecord) error

	// Load returns the stored manifest, or ErrNotFound.
	Load(ctx context.Context) (*model.BuildRecord, error)
}
