package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IsInteractive reports whether stdout is a terminal.
// Reports are rendered without color when output is piped.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsErrInteractive reports whether stderr is a terminal.
func IsErrInteractive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Panel represents a styled panel with optional title and content.
type Panel struct {
	Title       string
	Content     string
	BorderColor lipgloss.Color
	Width       int
}

// NewPanel creates a new panel with default styling.
func NewPanel(title, content string) *Panel {
	return &Panel{
		Title:       title,
		Content:     content,
		BorderColor: ColorSecondary,
	}
}

// WithBorderColor sets the border color and returns the panel.
func (p *Panel) WithBorderColor(color lipgloss.Color) *Panel {
	p.BorderColor = color
	return p
}

// Render returns the styled panel as a string.
func (p *Panel) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.BorderColor).
		Padding(0, 1)

	if p.Width > 0 {
		style = style.Width(p.Width)
	}

	content := p.Content
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
		content = titleStyle.Render(p.Title) + "\n" + p.Content
	}
	return style.Render(content)
}

// RenderSuccessPanel renders a panel with success styling (green border).
func RenderSuccessPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorSuccess).Render()
}

// RenderErrorPanel renders a panel with error styling (red border).
func RenderErrorPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorError).Render()
}

var titleCaser = cases.Title(language.English)

// Title title-cases a lower-case identifier such as an estimator family.
func Title(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}
