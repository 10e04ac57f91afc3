package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainLines renders t without color and returns its non-empty lines.
func plainLines(t *testing.T, table *Table) []string {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	var lines []string
	for _, line := range strings.Split(table.Render(), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func lineStarting(lines []string, prefix string) string {
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), prefix) {
			return line
		}
	}
	return ""
}

func TestTable_Render(t *testing.T) {
	lines := plainLines(t, &Table{
		Columns: []Column{{Header: "threshold", Numeric: true}, {Header: "nodes"}},
		Rows: [][]string{
			{"0.1", "{f1}"},
			{"0.3", "{f1,f3}"},
		},
	})

	require.Len(t, lines, 4) // header, rule, two rows
	assert.Contains(t, lines[0], "threshold")
	assert.Contains(t, lines[0], "nodes")
	assert.Contains(t, lines[1], "─")
	assert.Contains(t, lines[3], "{f1,f3}")
}

func TestTable_Render_NumericColumnsAlignRight(t *testing.T) {
	lines := plainLines(t, &Table{
		Columns: []Column{{Header: "name"}, {Header: "n", Numeric: true}},
		Rows: [][]string{
			{"a", "1"},
			{"b", "100"},
		},
	})

	short, long := lineStarting(lines, "a"), lineStarting(lines, "b")
	require.NotEmpty(t, short)
	require.NotEmpty(t, long)
	assert.Equal(t, strings.Index(long, "100")+2, strings.Index(short, "1"))
}

func TestTable_Render_NodesNotClipped(t *testing.T) {
	nodes := "{f01,f02,f03,f04,f05,f06,f07,f08,f09,f10,f11,f12,f13,f14}"
	lines := plainLines(t, &Table{
		Columns: []Column{{Header: "estimator", MaxWidth: 6}, {Header: "nodes"}},
		Rows:    [][]string{{"notears_linear", nodes}},
	})

	row := lineStarting(lines, "not")
	assert.Contains(t, row, nodes)
	assert.Contains(t, row, "not...")
	assert.NotContains(t, row, "notears_linear")
}

func TestTable_Render_HighlightsBestRow(t *testing.T) {
	lipgloss.SetColorProfile(termenv.ANSI256)
	defer lipgloss.SetColorProfile(termenv.Ascii)

	plain := &Table{Columns: []Column{{Header: "key"}}, Rows: [][]string{{"0.1"}, {"0.3"}}}
	marked := &Table{Columns: []Column{{Header: "key"}}, Rows: [][]string{{"0.1"}, {"0.3"}}, Highlight: map[int]bool{1: true}}

	assert.Contains(t, marked.Render(), "0.3")
	assert.NotEqual(t, plain.Render(), marked.Render())
}

func TestTable_Render_Empty(t *testing.T) {
	assert.Empty(t, (&Table{}).Render())
}

func TestTable_Render_RowsHaveFewerColumns(t *testing.T) {
	lines := plainLines(t, &Table{
		Columns: []Column{{Header: "ID"}, {Header: "Name"}, {Header: "Status"}},
		Rows:    [][]string{{"1", "Alice"}},
	})

	assert.Contains(t, lines[0], "Status")
	assert.Contains(t, lines[2], "Alice")
	assert.Len(t, lines, 3)
}
