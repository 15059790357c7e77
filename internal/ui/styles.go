package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorRating    = lipgloss.Color("220") // Gold
	colorBorder    = lipgloss.Color("238")
)

// CursorItem style for the film under the cursor in the focused pane.
var CursorItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary)

// NormalItem style for other films.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255"))

// SelectedMark style for the check mark on selected films.
var SelectedMark = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// UnselectedMark style for the empty box on unselected films.
var UnselectedMark = lipgloss.NewStyle().
	Foreground(colorMuted)

// MetaItem style for the year / director / actors line.
var MetaItem = lipgloss.NewStyle().
	Foreground(colorSecondary)

// RatingStyle for the star rating.
var RatingStyle = lipgloss.NewStyle().
	Foreground(colorRating)

// Pane is the bordered box around the catalog and recommendations lists.
var Pane = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorBorder).
	Padding(0, 1)

// FocusedPane marks the pane receiving navigation keys.
var FocusedPane = Pane.
	BorderForeground(colorPrimary)

// PulsePane is the recommendations pane right after new results arrive.
var PulsePane = Pane.
	BorderForeground(colorHighlight)

// PaneTitle style for pane headers.
var PaneTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// CountBadge style for the recommendations count.
var CountBadge = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// Header style for the top line.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// Counter style for "Selected: n/max".
var Counter = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Padding(0, 1)

// CounterFull style when the selection is at capacity.
var CounterFull = Counter.
	Foreground(lipgloss.Color("208"))

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// HelpStyle for hints and empty states.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(0, 1)

// DetailTitle style for the film title in the details view.
var DetailTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// DetailLabel style for field labels in the details view.
var DetailLabel = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// DetailPanel wraps the details view.
var DetailPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// DebugHeaderStyle for section headers in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// DebugPanel wraps the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(1, 2)
