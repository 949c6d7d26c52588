// Package output renders run events as NDJSON records or human-readable text.
package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/vburojevic/simnav/internal/domain"
)

// SchemaVersion is the current NDJSON schema version
const SchemaVersion = domain.SchemaVersion

// ErrorOutput is the NDJSON error record
type ErrorOutput struct {
	Type          string `json:"type"` // "error"
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Hint          string `json:"hint,omitempty"`
}

// PerceptionRecord is the result of analyzing one image file
type PerceptionRecord struct {
	Type          string `json:"type"` // "perception"
	SchemaVersion int    `json:"schemaVersion"`
	File          string `json:"file"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	domain.PerceptionResult
	Error string `json:"error,omitempty"`
}

// Writer renders every record kind the CLI emits
type Writer interface {
	WriteMode(ev *domain.ModeSelected) error
	WriteRunStart(ev *domain.RunStart) error
	WriteStep(ev *domain.StepEvent) error
	WriteRunEnd(ev *domain.RunEnd) error
	WriteSummary(s *domain.BatchSummary) error
	WritePerception(r *PerceptionRecord) error
	WriteError(code, message string, hint ...string) error
}

// New returns the writer for format ("ndjson" or "text")
func New(format string, w io.Writer, verbose bool) Writer {
	if format == "text" {
		return NewTextWriter(w, verbose)
	}
	return NewNDJSONWriter(w)
}

// NDJSONWriter writes one JSON object per line. It is safe for concurrent use.
type NDJSONWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewNDJSONWriter creates a new NDJSON writer
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (w *NDJSONWriter) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(v)
}

func (w *NDJSONWriter) WriteMode(ev *domain.ModeSelected) error   { return w.write(ev) }
func (w *NDJSONWriter) WriteRunStart(ev *domain.RunStart) error   { return w.write(ev) }
func (w *NDJSONWriter) WriteStep(ev *domain.StepEvent) error      { return w.write(ev) }
func (w *NDJSONWriter) WriteRunEnd(ev *domain.RunEnd) error       { return w.write(ev) }
func (w *NDJSONWriter) WriteSummary(s *domain.BatchSummary) error { return w.write(s) }

// WritePerception writes a perception record, filling in the envelope fields
func (w *NDJSONWriter) WritePerception(r *PerceptionRecord) error {
	r.Type = "perception"
	r.SchemaVersion = SchemaVersion
	return w.write(r)
}

// WriteError writes an error record
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	out := &ErrorOutput{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return w.write(out)
}
