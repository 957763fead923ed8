// ABOUTME: Shared lipgloss styles for the setup wizard and browse screen.
// ABOUTME: Colors follow the 256-color palette used across the terminal UI.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	favoriteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	fastStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	slowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	offlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)
