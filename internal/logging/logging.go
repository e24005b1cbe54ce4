// Package logging writes the build's structured JSON-line logs and the
// human-readable progress lines.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"
)

// JSON logs data as one JSON object per line through the standard logger.
// ts is added in loc; level defaults to "error" when status is "error" and
// to "info" otherwise.
func JSON(loc *time.Location, data map[string]any) {
	if loc == nil {
		loc = time.UTC
	}
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal log entry: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}

// Progress prints one human-readable line to w. Write errors are ignored;
// progress output is informational only.
func Progress(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
