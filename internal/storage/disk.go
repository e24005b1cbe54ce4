package storage

import (
	"context"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// localDisk implements Disk on the host filesystem under root.
type localDisk struct {
	root string
}

// NewDisk returns a Disk rooted at root. The root itself is not created
// until something is written below it.
func NewDisk(root string) Disk {
	return &localDisk{root: root}
}

func (d *localDisk) abs(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(p))
}

// EnsureDir is os.MkdirAll under the root.
func (d *localDisk) EnsureDir(_ context.Context, dir string) error {
	return os.MkdirAll(d.abs(dir), dirPerm)
}

// WriteFile truncates and rewrites the file; it does not create parent directories.
func (d *localDisk) WriteFile(_ context.Context, path string, data []byte) error {
	return os.WriteFile(d.abs(path), data, filePerm)
}

func (d *localDisk) ReadFile(_ context.Context, path string) ([]byte, error) {
	return os.ReadFile(d.abs(path))
}
