// Package style renders dotpatch reports for the terminal.
//
// Colors and styles use lipgloss, tables use pterm. DetectFormat picks plain
// text when output is not a color-capable terminal or NO_COLOR is set.
package style
