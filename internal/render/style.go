package render

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles applied to each part of the output.
type Styles struct {
	Kind    lipgloss.Style
	Key     lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Heading lipgloss.Style

	plain bool
}

// ColorStyles returns the default terminal palette.
func ColorStyles() Styles {
	return Styles{
		Kind:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		Muted:   lipgloss.NewStyle().Faint(true),
		Heading: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() Styles {
	return Styles{plain: true}
}

func (s Styles) apply(style lipgloss.Style, text string) string {
	if s.plain || text == "" {
		return text
	}
	return style.Render(text)
}

// width returns the printable width of text, ignoring ANSI sequences.
func width(text string) int {
	return lipgloss.Width(text)
}
