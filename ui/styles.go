package ui

import "github.com/charmbracelet/lipgloss"

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	faintFg   = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	cursorFg  = lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1).
			Render

	statusMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Padding(0, 1).
				Render

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(red).
				Padding(0, 1).
				Render

	subtleStyle = lipgloss.NewStyle().Foreground(faintFg).Render

	selectedStyle = lipgloss.NewStyle().Foreground(cursorFg).Bold(true).Render

	missStyle = lipgloss.NewStyle().Foreground(red).Render

	pulseStyle = lipgloss.NewStyle().Foreground(mintGreen).Render

	unknownPulseStyle = lipgloss.NewStyle().Foreground(faintFg).Render

	headerStyle = lipgloss.NewStyle().Bold(true).Render
)
