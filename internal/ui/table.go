package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/josephgoksu/causalfuse/internal/utils"
)

// Column describes one report column.
type Column struct {
	Header string
	// Numeric columns are right-aligned so scores line up on the decimal point.
	Numeric bool
	// MaxWidth clips cell text (0 = no limit).
	MaxWidth int
}

// Table renders report rows with a header rule and no cell borders.
type Table struct {
	Columns []Column
	Rows    [][]string
	// Highlight holds the row indexes drawn in StyleBest.
	Highlight map[int]bool
}

// Render outputs the table to a string. A table without columns renders empty.
func (t *Table) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleSubtle).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Headers(headers...).
		Rows(t.cells()...).
		StyleFunc(t.style)
	return tbl.Render() + "\n"
}

// cells pads short rows to the column count and clips long cells.
func (t *Table) cells() [][]string {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for j, c := range t.Columns {
			if j >= len(row) {
				continue
			}
			cells[j] = row[j]
			if c.MaxWidth > 0 {
				cells[j] = utils.Truncate(row[j], c.MaxWidth)
			}
		}
		rows[i] = cells
	}
	return rows
}

func (t *Table) style(row, col int) lipgloss.Style {
	s := lipgloss.NewStyle().PaddingRight(2)
	switch {
	case row == table.HeaderRow:
		s = s.Bold(true).Foreground(ColorPrimary)
	case t.Highlight[row]:
		s = s.Inherit(StyleBest)
	default:
		s = s.Foreground(ColorText)
	}
	if col < len(t.Columns) && t.Columns[col].Numeric {
		s = s.Align(lipgloss.Right)
	}
	return s
}
