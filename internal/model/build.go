package model

import (
	"fmt"
	"time"
)

// Status is the outcome recorded in a BuildRecord.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusSuccess || s == StatusFailure
}

// BuildTimeLayout is the ISO-8601 layout used for build_time in the manifest.
const BuildTimeLayout = time.RFC3339Nano

// BuildRecord is the manifest written to build_info.json.
// It is created once per run and never mutated.
type BuildRecord struct {
	BuildTime string `json:"build_time"`
	Version   string `json:"version"`
	Status    Status `json:"status"`
}

// NewBuildRecord returns a successful record stamped with t in UTC.
func NewBuildRecord(t time.Time, version string) BuildRecord {
	return BuildRecord{
		BuildTime: t.UTC().Format(BuildTimeLayout),
		Version:   version,
		Status:    StatusSuccess,
	}
}

// Time parses BuildTime back into a time.Time.
func (r BuildRecord) Time() (time.Time, error) {
	t, err := time.Parse(BuildTimeLayout, r.BuildTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse build_time %q: %w", r.BuildTime, err)
	}
	return t, nil
}
