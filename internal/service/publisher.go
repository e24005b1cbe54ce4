package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"millermaps/internal/logging"
	"millermaps/internal/model"
	"millermaps/internal/storage"
)

var (
	// ErrPublish marks a failed upload of the artifact set.
	ErrPublish = errors.New("publish failure")
	// ErrNothingToPublish is returned for a nil or empty build result.
	ErrNothingToPublish = errors.New("nothing to publish")
)

// PresignExpiry is how long the logged preview link stays valid.
const PresignExpiry = 24 * time.Hour

// PublishService uploads a finished build to object storage.
type PublishService interface {
	// Publish uploads every artifact of res in write order, so the manifest
	// lands last. The content is read back from disk. The first failed upload
	// aborts; objects already uploaded stay.
	Publish(ctx context.Context, res *model.BuildResult) ([]storage.ObjectInfo, error)
}

type publishService struct {
	store  storage.ObjectStorage
	disk   storage.Disk
	prefix string
	loc    *time.Location
}

// NewPublishService constructs a new PublishService. Object keys are the
// artifact paths joined under prefix.
func NewPublishService(store storage.ObjectStorage, disk storage.Disk, prefix string, loc *time.Location) PublishService {
	if loc == nil {
		loc = time.UTC
	}
	return &publishService{store: store, disk: disk, prefix: prefix, loc: loc}
}

func (s *publishService) key(p string) string {
	if s.prefix == "" {
		return p
	}
	return path.Join(s.prefix, p)
}

func (s *publishService) Publish(ctx context.Context, res *model.BuildResult) ([]storage.ObjectInfo, error) {
	if res == nil || len(res.Artifacts) == 0 {
		return nil, ErrNothingToPublish
	}

	meta := map[string]string{
		"build-id":      res.RunID,
		"build-version": res.Record.Version,
		"build-time":    res.Record.BuildTime,
	}

	infos := make([]storage.ObjectInfo, 0, len(res.Artifacts))
	for _, a := range res.Artifacts {
		b, err := s.disk.ReadFile(ctx, a.Path)
		if err != nil {
			return infos, fmt.Errorf("%w: read %s: %w", ErrPublish, a.Path, err)
		}

		key := s.key(a.Path)
		info, err := s.store.Put(ctx, key, bytes.NewReader(b), storage.PutObjectOptions{
			Size:        int64(len(b)),
			ContentType: a.ContentType,
			Metadata:    meta,
		})
		if err != nil {
			logging.JSON(s.loc, map[string]any{
				"component":     "publisher",
				"event":         "object_upload",
				"status":        "error",
				"run_id":        res.RunID,
				"key":           key,
				"error_message": err.Error(),
			})
			return infos, fmt.Errorf("%w: upload %s: %w", ErrPublish, key, err)
		}
		infos = append(infos, info)

		logging.JSON(s.loc, map[string]any{
			"component": "publisher",
			"event":     "object_upload",
			"status":    "success",
			"run_id":    res.RunID,
			"key":       key,
			"size":      info.Size,
			"etag":      info.ETag,
		})
	}

	s.logPreview(ctx, res)
	return infos, nil
}

// logPreview logs a presigned link to the first page. A presign failure is
// logged and otherwise ignored; the upload already succeeded.
func (s *publishService) logPreview(ctx context.Context, res *model.BuildResult) {
	var first string
	for _, a := range res.Artifacts {
		if path.Ext(a.Path) == ".html" {
			first = a.Path
			break
		}
	}
	if first == "" {
		return
	}

	key := s.key(first)
	u, err := s.store.PresignGet(ctx, key, PresignExpiry)
	entry := map[string]any{
		"component": "publisher",
		"event":     "preview_link",
		"run_id":    res.RunID,
		"key":       key,
	}
	if err != nil {
		entry["level"] = "warn"
		entry["status"] = "error"
		entry["error_message"] = err.Error()
	} else {
		entry["status"] = "success"
		entry["url"] = u
	}
	logging.JSON(s.loc, entry)
}
