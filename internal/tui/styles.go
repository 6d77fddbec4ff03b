package tui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan — primary accent
	colorSuccess = lipgloss.Color("#00E676") // Green — completed
	colorDanger  = lipgloss.Color("#FF5252") // Red — errors
	colorMuted   = lipgloss.Color("#636363") // Gray — de-emphasized
	colorWhite   = lipgloss.Color("#EEEEEE") // Off-white — primary text
	colorSurface = lipgloss.Color("#1E1E2E") // Dark surface — status bar bg
	colorBlue    = lipgloss.Color("#5B8DEF") // Blue — fired mechanisms
)

// Status bar styles — solid background, one line at the top.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(colorSurface).
			Foreground(colorWhite).
			Bold(true).
			Padding(0, 1)

	styleStatusLabel = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)
)

// Body styles.
var (
	styleLayerIndex = lipgloss.NewStyle().Foreground(colorMuted)
	styleMechanism  = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleStepSeq    = lipgloss.NewStyle().Foreground(colorMuted)
	styleStall      = lipgloss.NewStyle().Foreground(colorMuted)
	styleDone       = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleErr        = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleHelp       = lipgloss.NewStyle().Foreground(colorMuted)
)
