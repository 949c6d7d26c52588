package tui

import (
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/output"
)

// Feed is an output.Writer that forwards records to the TUI
type Feed struct {
	ch chan any
}

var _ output.Writer = (*Feed)(nil)

// NewFeed creates a feed with a bounded buffer
func NewFeed(size int) *Feed {
	return &Feed{ch: make(chan any, size)}
}

// Events is the receive side consumed by the model
func (f *Feed) Events() <-chan any { return f.ch }

// Close ends the feed; the model then shows the final state
func (f *Feed) Close() { close(f.ch) }

func (f *Feed) send(v any) error {
	f.ch <- v
	return nil
}

func (f *Feed) WriteMode(ev *domain.ModeSelected) error   { return f.send(ev) }
func (f *Feed) WriteRunStart(ev *domain.RunStart) error   { return f.send(ev) }
func (f *Feed) WriteStep(ev *domain.StepEvent) error      { return f.send(ev) }
func (f *Feed) WriteRunEnd(ev *domain.RunEnd) error       { return f.send(ev) }
func (f *Feed) WriteSummary(s *domain.BatchSummary) error { return f.send(s) }

func (f *Feed) WritePerception(r *output.PerceptionRecord) error { return f.send(r) }

func (f *Feed) WriteError(code, message string, hint ...string) error {
	out := &output.ErrorOutput{
		Type:          "error",
		SchemaVersion: output.SchemaVersion,
		Code:          code,
		Message:       message,
	}
	if len(hint) > 0 {
		out.Hint = hint[0]
	}
	return f.send(out)
}
