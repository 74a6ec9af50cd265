package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
)

// SlotHeader style for the time labels above the grid.
var SlotHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// ChannelLabel style for the channel column.
var ChannelLabel = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// FocusedChannelLabel style for the channel under the cursor.
var FocusedChannelLabel = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// LiveMarker style for the tuned channel's marker.
var LiveMarker = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// ProgramCell style for a program that is not airing.
var ProgramCell = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252"))

// OnAirCell style for the program airing now.
var OnAirCell = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Bold(true)

// PendingCell style for rows still waiting for a window.
var PendingCell = lipgloss.NewStyle().
	Foreground(colorMuted).
	Italic(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section titles in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
