package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	muted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	danger  = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#FB7185"}
	success = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	online  = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1)
	labelStyle = lipgloss.NewStyle().Foreground(muted)
	hintStyle  = lipgloss.NewStyle().Foreground(muted).Italic(true)
	formStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(1, 2)

	paneStyle        = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(muted)
	focusedPaneStyle = paneStyle.BorderForeground(accent)

	rowStyle         = lipgloss.NewStyle().PaddingLeft(1)
	selectedRowStyle = rowStyle.Bold(true).Foreground(accent)
	onlineDotStyle   = lipgloss.NewStyle().Foreground(online)

	ownBubbleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1)
	otherBubbleStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(muted).Padding(0, 1)

	errorToastStyle   = lipgloss.NewStyle().Foreground(danger).Bold(true)
	successToastStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)
