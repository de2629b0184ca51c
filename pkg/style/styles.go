package style

import (
	"github.com/arthur-debert/dotpatch/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle   = lipgloss.NewStyle().Foreground(HeadingColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	PathStyle    = lipgloss.NewStyle().Foreground(PathColor).Italic(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(CreateColor).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(RemoveColor).Bold(true)

	createStyle = lipgloss.NewStyle().Foreground(CreateColor).Bold(true)
	updateStyle = lipgloss.NewStyle().Foreground(UpdateColor).Bold(true)
)

// Diff styles
var (
	InsertStyle = lipgloss.NewStyle().Foreground(CreateColor)
	DeleteStyle = lipgloss.NewStyle().Foreground(RemoveColor)
	HunkStyle   = lipgloss.NewStyle().Foreground(HunkColor)
)

// StatusStyle returns the style for a write status
func StatusStyle(status types.WriteStatus) lipgloss.Style {
	switch status {
	case types.WriteCreate:
		return createStyle
	case types.WriteUpdate:
		return updateStyle
	default:
		return MutedStyle
	}
}
