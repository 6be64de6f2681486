package cli

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPrimary   = lipgloss.Color("#FF5F87") // Pink
	ColorSecondary = lipgloss.Color("#5FAFFF") // Blue
	ColorAccent    = lipgloss.Color("#AF87FF") // Purple
	ColorSuccess   = lipgloss.Color("#00D787") // Green
	ColorError     = lipgloss.Color("#FF5F87")
	ColorMuted     = lipgloss.Color("#888888")
)

// styles is bound to one renderer so colour detection follows the output
// writer rather than os.Stdout.
type styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Badge   lipgloss.Style
	Label   lipgloss.Style

	category map[string]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	tag := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Foreground(c).Bold(true)
	}
	accent := tag(ColorAccent)
	return styles{
		Title:   r.NewStyle().Foreground(ColorSecondary).Bold(true),
		Muted:   r.NewStyle().Foreground(ColorMuted),
		Bold:    r.NewStyle().Bold(true),
		Success: r.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   r.NewStyle().Foreground(ColorError).Bold(true),
		Badge:   r.NewStyle().Foreground(ColorMuted).Italic(true),
		Label:   r.NewStyle().Foreground(ColorMuted),
		category: map[string]lipgloss.Style{
			"Basic Correction": accent,
			"Tonal Adjustment": tag(ColorSecondary),
			"Color Grade":      tag(ColorPrimary),
			"Finishing":        accent,
		},
	}
}

// Category returns the style for an effect category; unknown categories look
// like Basic Correction.
func (s styles) Category(name string) lipgloss.Style {
	if st, ok := s.category[name]; ok {
		return st
	}
	return s.category["Basic Correction"]
}
