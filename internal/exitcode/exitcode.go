package exitcode

import (
	"errors"

	"millermaps/internal/config"
	"millermaps/internal/service"
)

// Exit codes of the build command.
const (
	// Success indicates a completed build.
	Success = 0

	// GeneralError covers I/O failures, render failures and anything unclassified.
	GeneralError = 1

	// ConfigError indicates unusable configuration; nothing was written.
	ConfigError = 2

	// PublishError indicates the local build succeeded but the upload failed.
	PublishError = 3
)

// For maps err to the process exit status.
func For(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, config.ErrInvalidConfig):
		return ConfigError
	case errors.Is(err, service.ErrPublish):
		return PublishError
	default:
		return GeneralError
	}
}

// Class is the short machine-readable name logged with a failure.
func Class(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, config.ErrInvalidConfig):
		return "CONFIG_ERROR"
	case errors.Is(err, service.ErrPublish):
		return "PUBLISH_ERROR"
	case errors.Is(err, service.ErrIO):
		return "IO_ERROR"
	case errors.Is(err, service.ErrRender):
		return "RENDER_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}
