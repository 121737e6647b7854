package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarn      = lipgloss.Color("214") // Orange
)

// Header style for the top bar; hidden while scrolling down.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// SelectedItem style for the currently highlighted post.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected posts.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// ExpiredItem style for posts past their expiry.
var ExpiredItem = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Strikethrough(true).
	Padding(0, 1)

// GridCell frames one post in grid mode.
var GridCell = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorMuted).
	Padding(0, 1)

// GridCellSelected frames the highlighted post in grid mode.
var GridCellSelected = GridCell.
	BorderForeground(colorHighlight)

// PriceStyle for prices.
var PriceStyle = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// SaleStyle for the pre-sale price.
var SaleStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Strikethrough(true)

// ReasonStyle for AI search reasoning.
var ReasonStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Italic(true)

// Title style for view titles.
var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	MarginBottom(1)

// Muted style for secondary text.
var Muted = lipgloss.NewStyle().
	Foreground(colorSecondary)

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

// FilterBar style for the search input bar.
var FilterBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("240")).
	Padding(0, 1)

// FilterChip style for an active filter dimension.
var FilterChip = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("237")).
	Padding(0, 1).
	MarginRight(1)

// LoginPanel style for the sign-in prompt.
var LoginPanel = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(colorWarn).
	Padding(1, 2)

// DebugPanel style for the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)
