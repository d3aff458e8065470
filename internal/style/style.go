// Package style renders octscan's terminal output: lipgloss styles, the
// worker spinner and probability tables.
package style

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Ayu palette.
var (
	colorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

// Status icons.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✖"
)

// Thresholds for Confidence, in percent.
const (
	HighConfidence = 80
	LowConfidence  = 50
)

// Shared styles. SetColorMode rebuilds them.
var (
	Success lipgloss.Style // predicted class, RESPONSE tags
	Warning lipgloss.Style // missing bundles, uncertain predictions
	Error   lipgloss.Style // failure responses, ERROR tags
	Info    lipgloss.Style // probability bars
	Dim     lipgloss.Style // timestamps, hints, LOG tags
	Bold    lipgloss.Style
)

func init() { build(true) }

func build(colored bool) {
	plain := lipgloss.NewStyle()
	if !colored {
		Success, Warning, Error, Info, Dim, Bold = plain, plain, plain, plain, plain, plain
		return
	}
	Success = plain.Foreground(colorPass).Bold(true)
	Warning = plain.Foreground(colorWarn).Bold(true)
	Error = plain.Foreground(colorFail).Bold(true)
	Info = plain.Foreground(colorAccent)
	Dim = plain.Foreground(colorMuted)
	Bold = plain.Bold(true)
}

// SetColorMode applies the --color flag: "always", "never" or "auto".
// auto leaves detection to lipgloss.
func SetColorMode(mode string) {
	switch mode {
	case "never":
		_ = os.Setenv("NO_COLOR", "1")
		build(false)
	case "always":
		_ = os.Unsetenv("NO_COLOR")
		_ = os.Setenv("CLICOLOR_FORCE", "1")
		build(true)
	}
}

// Tag renders a day-log tag: RESPONSE green, ERROR red, anything else dimmed.
func Tag(tag string) string {
	switch tag {
	case "RESPONSE":
		return Success.Render(tag)
	case "ERROR":
		return Error.Render(tag)
	default:
		return Dim.Render(tag)
	}
}

// Confidence picks the style for a winning probability (0-100).
func Confidence(pct float32) lipgloss.Style {
	switch {
	case pct >= HighConfidence:
		return Success
	case pct >= LowConfidence:
		return Warning
	default:
		return Error
	}
}
