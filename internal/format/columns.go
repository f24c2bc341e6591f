package format

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// DefaultPadding is the number of spaces between aligned columns.
const DefaultPadding = 4

// Align lays out rows of cells so every column but the last starts at the
// same offset. Widths are measured in terminal cells with escape sequences
// excluded, so styled and plain cells align the same way.
func Align(rows [][]string, padding int) []string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row[:max(len(row)-1, 0)] {
			w := ansi.StringWidth(cell)
			if i >= len(widths) {
				widths = append(widths, w)
			} else if w > widths[i] {
				widths[i] = w
			}
		}
	}

	out := make([]string, len(rows))
	var b strings.Builder
	for r, row := range rows {
		b.Reset()
		for i, cell := range row {
			b.WriteString(cell)
			if i == len(row)-1 {
				break
			}
			b.WriteString(strings.Repeat(" ", widths[i]-ansi.StringWidth(cell)+padding))
		}
		out[r] = b.String()
	}
	return out
}
