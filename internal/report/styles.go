package report

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/cohortlens/internal/analytics"
	"github.com/Veraticus/cohortlens/internal/cli"
)

// Styles contains all styling definitions for report formatting.
type Styles struct {
	// Base styles from CLI package
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Subtle   lipgloss.Style
	Normal   lipgloss.Style

	Box    lipgloss.Style
	Header lipgloss.Style
	Value  lipgloss.Style
}

// NewStyles creates a new Styles instance with default styling.
func NewStyles() *Styles {
	s := &Styles{
		Title:    cli.TitleStyle,
		Subtitle: cli.SubtitleStyle,
		Success:  cli.SuccessStyle,
		Warning:  cli.WarningStyle,
		Error:    cli.ErrorStyle,
		Info:     cli.InfoStyle,
		Subtle:   cli.SubtleStyle,
		Normal:   lipgloss.NewStyle(),
	}

	s.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cli.SubtleColor).
		Padding(0, 1)

	s.Header = cli.SubtleStyle.Bold(true)

	s.Value = lipgloss.NewStyle().
		Bold(true).
		Foreground(cli.PrimaryColor)

	return s
}

// ForSegment returns the style used for a segment name. Healthy segments are
// green, segments that need attention yellow and lapsed ones red.
func (s *Styles) ForSegment(segment analytics.Segment) lipgloss.Style {
	switch segment {
	case analytics.SegmentChampions, analytics.SegmentLoyalCustomers, analytics.SegmentNew:
		return s.Success
	case analytics.SegmentPotentialLoyalists, analytics.SegmentNewCustomers, analytics.SegmentPromising:
		return s.Info
	case analytics.SegmentAtRisk, analytics.SegmentCantLoseThem, analytics.SegmentAboutToSleep:
		return s.Warning
	case analytics.SegmentHibernating, analytics.SegmentLost:
		return s.Error
	default:
		return s.Normal
	}
}

// RenderBar draws a share in [0, 1] as a bar of the given width.
func (s *Styles) RenderBar(share float64, width int) string {
	if width <= 0 {
		width = 20
	}

	filled := int(float64(width)*share + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
