// Package tui provides an interactive terminal view of a single prediction.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianknutsen/octscan/internal/relay"
	"github.com/julianknutsen/octscan/internal/style"
)

// Config holds the parameters needed to launch the TUI.
type Config struct {
	Model     string
	Image     string
	RequestID string // only events for this request are shown; empty shows all

	Events  <-chan relay.Message // hub subscription for relay.Topic
	Predict func() relay.Outcome // runs the prediction to completion

	// Now overrides the status bar clock. Nil means time.Now.
	Now func() time.Time
}

// Model is the root TUI model.
type Model struct {
	cfg      Config
	spinner  spinner.Model
	events   viewport.Model
	lines    []string
	showLog  bool
	running  bool
	outcome  *relay.Outcome
	bar      statusBar
	width    int
	height   int
	quitting bool
}

// New creates a TUI model for one prediction.
func New(cfg Config) Model {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styleDim
	return Model{
		cfg:     cfg,
		spinner: sp,
		events:  viewport.New(80, 10),
		running: true,
		bar:     newStatusBar(fmt.Sprintf("%s · %s", cfg.Model, cfg.Image), cfg.Now()),
	}
}

// Init starts the prediction and the event subscription.
func (m Model) Init() bubbletea.Cmd {
	return bubbletea.Batch(
		m.spinner.Tick,
		waitForEvent(m.cfg.Events),
		runPrediction(m.cfg.Predict),
	)
}

// Outcome returns the finished prediction, or nil while it is running.
func (m Model) Outcome() *relay.Outcome {
	return m.outcome
}

// Update processes messages.
func (m Model) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, bubbletea.Quit
		case key.Matches(msg, keys.Log):
			m.showLog = !m.showLog
			return m, nil
		}
		if m.showLog {
			var cmd bubbletea.Cmd
			m.events, cmd = m.events.Update(msg)
			return m, cmd
		}

	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.width = msg.Width
		m.events.Width = msg.Width
		m.events.Height = max(3, msg.Height/3)

	case eventMsg:
		if m.cfg.RequestID == "" || msg.msg.RequestID == m.cfg.RequestID {
			m.bar.events++
			m.lines = append(m.lines, style.Tag(msg.msg.Tag)+" "+msg.msg.Payload)
			m.events.SetContent(strings.Join(m.lines, "\n"))
			m.events.GotoBottom()
		}
		return m, waitForEvent(m.cfg.Events)

	case eventsClosedMsg:
		return m, nil

	case outcomeMsg:
		m.running = false
		out := msg.outcome
		m.outcome = &out
		m.bar.finish(out, m.cfg.Now())
		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		m.bar.tick(m.cfg.Now())
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("OCT scan classification") + "\n\n")
	b.WriteString(m.resultView())

	if m.showLog {
		b.WriteString("\n" + styleTitle.Render("Worker events") + "\n")
		b.WriteString(m.events.View() + "\n")
	}

	content := b.String()
	if m.height > 0 {
		content = lipgloss.NewStyle().Width(m.width).Height(m.height - 1).Render(content)
	}
	return content + "\n" + m.bar.render("l: events  j/k: scroll  q: quit")
}

func (m Model) resultView() string {
	if m.running {
		return fmt.Sprintf("  %s Classifying with %s...\n", m.spinner.View(), m.cfg.Model)
	}
	resp := m.outcome.Response
	if resp == nil || !resp.Success || resp.Result == nil {
		msg := "no response"
		if resp != nil {
			msg = resp.Message
		}
		s := "  " + styleError.Render(style.IconFail+" "+msg) + "\n"
		if m.outcome.Code > 0 {
			s += styleWarn.Render(fmt.Sprintf("  worker exited with code %d", m.outcome.Code)) + "\n"
		}
		return s
	}
	p := resp.Result
	head := fmt.Sprintf("  %s %s  %s\n\n",
		styleSuccess.Render(style.IconPass),
		style.Confidence(p.Probability).Render(p.Prediction),
		styleDim.Render(style.Percent(p.Probability)+" · "+p.Model))
	return head + style.ProbabilityTable(p.Classes, p.Probabilities, p.Prediction)
}

// --- async commands ---

func waitForEvent(ch <-chan relay.Message) bubbletea.Cmd {
	if ch == nil {
		return nil
	}
	return func() bubbletea.Msg {
		msg, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{msg: msg}
	}
}

func runPrediction(predict func() relay.Outcome) bubbletea.Cmd {
	if predict == nil {
		return nil
	}
	return func() bubbletea.Msg {
		return outcomeMsg{outcome: predict()}
	}
}
