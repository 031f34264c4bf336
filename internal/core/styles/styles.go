// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/techtrack/internal/core/tech"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	HeaderStyle  lipgloss.Style
	MutedStyle   lipgloss.Style
	DividerStyle lipgloss.Style

	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	InfoStyle    lipgloss.Style

	StatusCompletedStyle  lipgloss.Style
	StatusInProgressStyle lipgloss.Style
	StatusNotStartedStyle lipgloss.Style

	ProgressFilledStyle lipgloss.Style
	ProgressEmptyStyle  lipgloss.Style

	PanelStyle lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Surface)

	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	WarningStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)

	StatusCompletedStyle = lipgloss.NewStyle().Foreground(p.Success)
	StatusInProgressStyle = lipgloss.NewStyle().Foreground(p.Warning)
	StatusNotStartedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	ProgressFilledStyle = lipgloss.NewStyle().Foreground(p.Success)
	ProgressEmptyStyle = lipgloss.NewStyle().Foreground(p.Surface)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary).
		Padding(0, 1)
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

// Status renders a status with its marker and color.
func Status(s tech.Status) string {
	switch s {
	case tech.StatusCompleted:
		return StatusCompletedStyle.Render(IconCompleted + " " + string(s))
	case tech.StatusInProgress:
		return StatusInProgressStyle.Render(IconInProgress + " " + string(s))
	default:
		return StatusNotStartedStyle.Render(IconNotStarted + " " + string(s))
	}
}

// ProgressBar renders percent (0-100) as a bar of the given width.
func ProgressBar(percent, width int) string {
	if width <= 0 {
		return ""
	}
	percent = min(max(percent, 0), 100)
	filled := percent * width / 100

	bar := make([]rune, 0, width)
	for range filled {
		bar = append(bar, '█')
	}
	empty := make([]rune, 0, width-filled)
	for range width - filled {
		empty = append(empty, '░')
	}
	return ProgressFilledStyle.Render(string(bar)) + ProgressEmptyStyle.Render(string(empty))
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig

	fg := hexPtr(CurrentPalette.Foreground)
	primary := hexPtr(CurrentPalette.Primary)
	secondary := hexPtr(CurrentPalette.Secondary)
	muted := hexPtr(CurrentPalette.Muted)
	surface := hexPtr(CurrentPalette.Surface)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = surface
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	cfg.Task.Ticked = "[✓] "
	cfg.Task.Unticked = "[ ] "

	return cfg
}
