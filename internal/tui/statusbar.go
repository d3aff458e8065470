package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianknutsen/octscan/internal/relay"
	"github.com/julianknutsen/octscan/internal/style"
)

// statusBar shows the scan, the prediction's progress and key hints.
type statusBar struct {
	label   string
	width   int
	started time.Time
	elapsed time.Duration
	events  int
	done    bool
	ok      bool
	code    int
	stage   string
}

func newStatusBar(label string, started time.Time) statusBar {
	return statusBar{label: label, started: started}
}

// tick updates the running clock; it stops once the prediction finished.
func (s *statusBar) tick(now time.Time) {
	if !s.done {
		s.elapsed = now.Sub(s.started)
	}
}

func (s *statusBar) finish(out relay.Outcome, now time.Time) {
	s.tick(now)
	s.done = true
	s.ok = out.Response != nil && out.Response.Success
	s.code = out.Code
	s.stage = out.Stage
}

func (s statusBar) state() string {
	took := s.elapsed.Round(100 * time.Millisecond).String()
	switch {
	case !s.done:
		return fmt.Sprintf("running %s · %d events", took, s.events)
	case s.stage != "":
		return style.IconFail + " " + s.stage + " failed"
	case s.ok:
		return fmt.Sprintf("%s done in %s · exit %d", style.IconPass, took, s.code)
	default:
		return fmt.Sprintf("%s failed in %s · exit %d", style.IconFail, took, s.code)
	}
}

func (s statusBar) render(hints string) string {
	state := s.state()
	switch {
	case !s.done:
		state = styleDim.Render(state)
	case s.ok:
		state = styleSuccess.Render(state)
	default:
		state = styleError.Render(state)
	}
	left := styleDim.Render(s.label) + "  " + state
	right := styleDim.Render(hints)

	gap := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return styleBar.Width(s.width).Render(left + fmt.Sprintf("%*s", gap, "") + right)
}
