package model

// Package model contains the build's data structures.
// No I/O here.

// RenderedDocument is the HTML page produced for a single run.
type RenderedDocument []byte

// Artifact describes one file written by the emitter.
// Path is slash-separated and relative to the output root.
type Artifact struct {
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

// BuildResult is the in-memory outcome of one emitter run.
// RunID identifies the run in logs and object metadata; it is never written
// into the manifest.
type BuildResult struct {
	RunID     string
	Record    BuildRecord
	Document  RenderedDocument
	Artifacts []Artifact
}
