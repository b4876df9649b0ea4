// Package style holds the lipgloss styles shared by saveli's output
package style

import (
	"github.com/arthur-debert/saveli/pkg/types"
	"github.com/charmbracelet/lipgloss"
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	PathStyle = lipgloss.NewStyle().
			Foreground(PathColor).
			Italic(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// State styles
var (
	LinkedStyle = lipgloss.NewStyle().
			Foreground(LinkedColor).
			Bold(true)

	UnmanagedStyle = lipgloss.NewStyle().
			Foreground(UnmanagedColor)

	IgnoredStyle = lipgloss.NewStyle().
			Foreground(IgnoredColor).
			Italic(true)
)

// Indicator symbols, unstyled
const (
	SuccessSymbol = "✓"
	ErrorSymbol   = "✗"
	WarningSymbol = "!"
	NoOpSymbol    = "="
	PlanSymbol    = "○"
)

// StateStyle returns the style for an entry state
func StateStyle(kind types.StateKind) lipgloss.Style {
	switch kind {
	case types.StateLinked:
		return LinkedStyle
	case types.StateIgnored:
		return IgnoredStyle
	default:
		return UnmanagedStyle
	}
}

// HealthStyle returns the style for a status health value
func HealthStyle(h types.Health) lipgloss.Style {
	switch h {
	case types.HealthOK:
		return SuccessStyle
	case types.HealthAvailable:
		return InfoStyle
	case types.HealthLinkMissing, types.HealthStray:
		return WarningStyle
	case types.HealthStorageMissing, types.HealthConflict:
		return ErrorStyle
	default:
		return MutedStyle
	}
}
