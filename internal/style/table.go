package style

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Align controls how a cell is padded within its column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// Column describes one table column.
type Column struct {
	Name  string
	Width int
	Align Align
}

// Table renders fixed-width rows. Cells may carry ANSI styling; widths are
// measured on the visible text.
type Table struct {
	columns   []Column
	rows      [][]string
	indent    string
	headerSep bool
}

// NewTable creates a table with a two-space indent and a header separator.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns, indent: "  ", headerSep: true}
}

// SetIndent sets the prefix written before every line.
func (t *Table) SetIndent(indent string) *Table {
	t.indent = indent
	return t
}

// SetHeaderSeparator toggles the rule under the header.
func (t *Table) SetHeaderSeparator(on bool) *Table {
	t.headerSep = on
	return t
}

// AddRow appends a row; missing trailing cells render empty.
func (t *Table) AddRow(values ...string) *Table {
	row := make([]string, len(t.columns))
	copy(row, values)
	t.rows = append(t.rows, row)
	return t
}

// Render returns the table, one newline-terminated line per row.
func (t *Table) Render() string {
	if len(t.columns) == 0 {
		return ""
	}
	var b strings.Builder

	cells := make([]string, len(t.columns))
	total := 0
	for i, c := range t.columns {
		cells[i] = t.pad(Bold.Render(c.Name), c.Name, c.Width, c.Align)
		total += c.Width
	}
	total += len(t.columns) - 1
	b.WriteString(t.indent + strings.Join(cells, " ") + "\n")
	if t.headerSep {
		b.WriteString(t.indent + Dim.Render(strings.Repeat("─", total)) + "\n")
	}

	for _, row := range t.rows {
		for i, c := range t.columns {
			styled := row[i]
			plain := stripAnsi(styled)
			if r := []rune(plain); len(r) > c.Width {
				if c.Width > 3 {
					plain = string(r[:c.Width-3]) + "..."
				} else {
					plain = string(r[:c.Width])
				}
				styled = plain
			}
			cells[i] = t.pad(styled, plain, c.Width, c.Align)
		}
		b.WriteString(t.indent + strings.Join(cells, " ") + "\n")
	}
	return b.String()
}

// pad aligns styled within width using the visible width of plain.
func (t *Table) pad(styled, plain string, width int, align Align) string {
	gap := width - lipgloss.Width(plain)
	if gap <= 0 {
		return styled
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + styled
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + styled + strings.Repeat(" ", gap-left)
	default:
		return styled + strings.Repeat(" ", gap)
	}
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}
