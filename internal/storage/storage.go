package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the two places artifacts go: the local output
// tree (Disk) and an optional S3-compatible bucket (ObjectStorage).

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// ObjectStorage is an S3-compatible object storage client interface.
type ObjectStorage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Disk writes the local artifact tree. Paths are slash-separated and
// relative to the root the implementation was created with.
type Disk interface {
	// EnsureDir creates dir and any parents; an existing directory is not an error.
	EnsureDir(ctx context.Context, dir string) error
	// WriteFile replaces the file at path with data.
	WriteFile(ctx context.Context, path string, data []byte) error
	// ReadFile returns the file content; a missing file yields an error matching os.ErrNotExist.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
