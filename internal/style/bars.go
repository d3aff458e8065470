package style

import (
	"fmt"
	"math"
	"strings"
)

// BarWidth is the default width of a probability bar.
const BarWidth = 30

// Bar renders pct (0-100) as a horizontal bar of width cells.
func Bar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(math.Round(pct / 100 * float64(width)))
	return Info.Render(strings.Repeat("█", filled)) + Dim.Render(strings.Repeat("░", width-filled))
}

// Percent formats a probability already scaled to 0-100.
func Percent(pct float32) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// ProbabilityTable renders one row per class with its probability and a
// bar. The row for best is highlighted.
func ProbabilityTable(classes []string, probs []float32, best string) string {
	tbl := NewTable(
		Column{Name: "CLASS", Width: 8},
		Column{Name: "PROB", Width: 8, Align: AlignRight},
		Column{Name: "", Width: BarWidth},
	)
	for i, class := range classes {
		var p float32
		if i < len(probs) {
			p = probs[i]
		}
		name := class
		if class == best {
			name = Success.Render(class)
		}
		tbl.AddRow(name, Percent(p), Bar(float64(p), BarWidth))
	}
	return tbl.Render()
}
