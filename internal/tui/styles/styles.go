package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Gray   = lipgloss.Color("#555")
	Green  = lipgloss.Color("#2ecc71")
	Red    = lipgloss.Color("#e74c3c")
	Yellow = lipgloss.Color("#f1c40f")
	Purple = lipgloss.Color("#9b59b6")
	White  = lipgloss.Color("#ecf0f1")
	Blue   = lipgloss.Color("#3498db")

	HeaderStyle = lipgloss.NewStyle().Background(Purple).Foreground(White).Bold(true).Padding(0, 1)

	TabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(Gray)
	ActiveTabStyle = lipgloss.NewStyle().Padding(0, 2).Foreground(Blue).Bold(true).Underline(true)

	LabelStyle   = lipgloss.NewStyle().Foreground(White).Width(8)
	FocusedStyle = lipgloss.NewStyle().Foreground(Blue)
	MutedStyle   = lipgloss.NewStyle().Foreground(Gray)

	FoundStyle  = lipgloss.NewStyle().Foreground(Green).Bold(true)
	WarnStyle   = lipgloss.NewStyle().Foreground(Yellow)
	ErrorStyle  = lipgloss.NewStyle().Foreground(Red)
	ResultBox   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginTop(1)
	FooterStyle = lipgloss.NewStyle().Foreground(Gray).MarginTop(1)
)
