package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Each color adapts to light and dark terminal backgrounds.
var (
	HeadingColor = lipgloss.AdaptiveColor{Light: "#212529", Dark: "#F8F9FA"}
	MutedColor   = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	PathColor    = lipgloss.AdaptiveColor{Light: "#495057", Dark: "#CED4DA"}

	// Write statuses and diff lines
	CreateColor = lipgloss.AdaptiveColor{Light: "#28A745", Dark: "#4CDD76"}
	UpdateColor = lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFD54F"}
	RemoveColor = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	HunkColor   = lipgloss.AdaptiveColor{Light: "#17A2B8", Dark: "#4DD0E1"}
)
