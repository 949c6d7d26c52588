package output

import (
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/vburojevic/simnav/internal/domain"
)

// TextWriter renders records for humans. Step records are only shown when
// verbose is set.
type TextWriter struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool

	heading lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
}

// NewTextWriter creates a text writer. Colors are used only when w is a
// terminal that supports them.
func NewTextWriter(w io.Writer, verbose bool) *TextWriter {
	r := lipgloss.NewRenderer(w)
	return &TextWriter{
		w:       w,
		verbose: verbose,
		heading: r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		fail:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:     r.NewStyle().Faint(true),
	}
}

func (t *TextWriter) printf(format string, args ...any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.w, format, args...)
	return err
}

func (t *TextWriter) WriteMode(ev *domain.ModeSelected) error {
	conn := "disconnected"
	if ev.Connected {
		conn = "connected"
	}
	return t.printf("%s %s (%s, event stream %s)\n",
		t.heading.Render("Navigation mode:"), ev.Mode, ev.Reason, conn)
}

func (t *TextWriter) WriteRunStart(ev *domain.RunStart) error {
	title := fmt.Sprintf("=== Run %d/%d: %s (%s) ===", ev.Index, ev.Total, ev.Corner, ev.Mode)
	if ev.Goal != nil {
		return t.printf("\n%s\n%s\n", t.heading.Render(title),
			t.dim.Render(fmt.Sprintf("goal at x=%.1f z=%.1f", ev.Goal.X, ev.Goal.Z)))
	}
	return t.printf("\n%s\n", t.heading.Render(title))
}

func (t *TextWriter) WriteStep(ev *domain.StepEvent) error {
	if !t.verbose {
		return nil
	}
	line := fmt.Sprintf("  step %3d %-9s turn=%6.1f dist=%4.1f heading=%5.1f stuck=%d collisions=%d",
		ev.Step, ev.Action, ev.Turn, ev.Distance, ev.Heading, ev.Stuck, ev.Collisions)
	if ev.Reason != "" {
		line += " (" + ev.Reason + ")"
	}
	return t.printf("%s\n", line)
}

func (t *TextWriter) WriteRunEnd(ev *domain.RunEnd) error {
	switch {
	case ev.Failed:
		return t.printf("%s %s: %s\n", t.fail.Render("FAILED"), ev.Corner, ev.Error)
	case ev.Reached:
		return t.printf("%s Reached %s with %d collisions in %d steps (%.1fs)\n",
			t.ok.Render("SUCCESS"), ev.Corner, ev.Collisions, ev.Steps, ev.DurationSeconds)
	default:
		return t.printf("%s Failed to reach %s. Collisions: %d after %d steps (%.1fs)\n",
			t.warn.Render("TIMEOUT"), ev.Corner, ev.Collisions, ev.Steps, ev.DurationSeconds)
	}
}

// WriteSummary renders the final report as a table
func (t *TextWriter) WriteSummary(s *domain.BatchSummary) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n%s\n", t.heading.Render("FINAL RESULTS"))

	table := tablewriter.NewWriter(t.w)
	table.Header("Corner", "Result", "Collisions", "Steps", "Mode")
	for _, o := range s.Outcomes {
		result, collisions := "timeout", strconv.Itoa(o.Collisions)
		switch {
		case o.Failed:
			result, collisions = "FAILED", "-"
		case o.Reached:
			result = "reached"
		}
		mode := string(o.Mode)
		if o.Degraded {
			mode += " (degraded)"
		}
		if err := table.Append(string(o.Corner), result, collisions, strconv.Itoa(o.Steps), mode); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	valid := s.Attempted - s.Failed
	if valid > 0 {
		fmt.Fprintf(t.w, "Average collisions: %.2f over %d runs\n", s.MeanCollisions, valid)
	} else {
		fmt.Fprintln(t.w, "Average collisions: n/a (no completed runs)")
	}
	fmt.Fprintf(t.w, "Goals reached: %d/%d\n", s.Succeeded, s.Attempted)
	_, err := fmt.Fprintf(t.w, "Vision used: %s\n", yesNo(s.VisionUsed))
	return err
}

func (t *TextWriter) WritePerception(r *PerceptionRecord) error {
	if r.Error != "" {
		return t.printf("%s: %s\n", r.File, t.fail.Render(r.Error))
	}
	verdict := t.ok.Render("clear")
	if r.ObstacleAhead {
		verdict = t.warn.Render("obstacle")
	}
	return t.printf("%s: %s pixels=%d turn=%.0f sectors=L%d/C%d/R%d\n",
		r.File, verdict, r.ObstaclePixels, r.RecommendedTurnDegrees,
		r.SectorPixels[0], r.SectorPixels[1], r.SectorPixels[2])
}

func (t *TextWriter) WriteError(code, message string, hint ...string) error {
	line := fmt.Sprintf("Error [%s]: %s", code, message)
	if len(hint) > 0 && hint[0] != "" {
		line += fmt.Sprintf(" (hint: %s)", hint[0])
	}
	return t.printf("%s\n", line)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
