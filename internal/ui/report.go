package ui

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/causalfuse/internal/estimator"
	"github.com/josephgoksu/causalfuse/internal/pipeline"
)

// RenderRun formats a finished run: the candidate table followed by a panel
// with the baseline and best scores.
func RenderRun(s *pipeline.Summary) string {
	var sb strings.Builder

	axis := "threshold"
	if s.Strategy == "search" {
		axis = "iteration"
	}
	sb.WriteString(StyleSectionTitle.Render(fmt.Sprintf("%s candidates (%s)", Title(string(s.Strategy)), s.Fuser)))
	sb.WriteString("\n\n")

	table := &Table{
		Columns: []Column{
			{Header: ""},
			{Header: axis, Numeric: true},
			{Header: "nodes"},
			{Header: "val", Numeric: true},
			{Header: "test", Numeric: true},
		},
		Highlight: map[int]bool{},
	}
	for i, e := range s.Candidates {
		mark := ""
		if e.Key == s.Best.Key {
			mark = "*"
			table.Highlight[i] = true
		}
		table.Rows = append(table.Rows, []string{mark, e.Key, e.Nodes.Fingerprint().String(), score(e.Validation), score(e.Test)})
	}
	sb.WriteString(table.Render())
	sb.WriteString(StyleSubtle.Render(fmt.Sprintf(" %d points, %d trained, %d skipped as duplicates", s.Points, s.Trained, s.Skipped)))
	sb.WriteString("\n\n")

	if len(s.Individual) > 0 {
		indiv := &Table{Columns: []Column{
			{Header: "estimator", MaxWidth: 24},
			{Header: "nodes"},
			{Header: "val", Numeric: true},
			{Header: "test", Numeric: true},
		}}
		for _, e := range s.Individual {
			indiv.Rows = append(indiv.Rows, []string{e.Name, e.Nodes.Fingerprint().String(), score(e.Validation), score(e.Test)})
		}
		sb.WriteString(StyleSectionTitle.Render("Individual estimates"))
		sb.WriteString("\n\n")
		sb.WriteString(indiv.Render())
		sb.WriteString("\n")
	}

	var lines []string
	for _, line := range s.Lines() {
		style := StyleBest
		if strings.HasPrefix(line, "Baseline") {
			style = StyleBaseline
		}
		lines = append(lines, style.Render(line))
	}
	lines = append(lines, StyleSubtle.Render(fmt.Sprintf("scoring: %s | run: %s", s.Scoring, s.RunID)))
	sb.WriteString(RenderSuccessPanel(s.Dataset, strings.Join(lines, "\n")))
	sb.WriteString("\n")
	return sb.String()
}

// RenderEstimators lists every estimator name grouped by family, marking
// which ones run in process.
func RenderEstimators(native func(estimator.Kind) bool) string {
	table := &Table{Columns: []Column{{Header: "family"}, {Header: "name"}, {Header: "backend"}}}
	for _, f := range estimator.Families() {
		for _, k := range estimator.ByFamily(f) {
			backend := "worker"
			if native != nil && native(k) {
				backend = "native"
			}
			table.Rows = append(table.Rows, []string{Title(f.String()), k.String(), backend})
		}
	}
	return table.Render()
}

func score(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
