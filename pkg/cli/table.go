package cli

import (
	"io"
	"regexp"
	"strings"
)

var ansiSequence = regexp.MustCompile("\033\\[[0-9;]*m")

// visibleWidth is the width of s on a terminal, not counting color codes.
func visibleWidth(s string) int {
	return len([]rune(ansiSequence.ReplaceAllString(s, "")))
}

// Table buffers rows and prints them aligned on Flush. Colored cells are
// measured by their visible width. A table without rows prints nothing.
type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
}

func NewTable(out io.Writer, headers ...string) *Table {
	return &Table{out: out, headers: headers}
}

// Row adds a row. Missing cells are left blank and extra cells dropped.
func (t *Table) Row(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Flush writes the header, a dashed rule and every row added so far.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}
	rule := make([]string, len(t.headers))
	for i, h := range t.headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	lines := append([][]string{t.headers, rule}, t.rows...)

	widths := make([]int, len(t.headers))
	for _, line := range lines {
		for i, cell := range line {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for _, line := range lines {
		for i, cell := range line {
			b.WriteString(cell)
			if i < len(line)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-visibleWidth(cell)+2))
			}
		}
		b.WriteString("\n")
	}
	io.WriteString(t.out, b.String())
	t.rows = nil
}
