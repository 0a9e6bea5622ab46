// Package ui implements the interactive slurmboard dashboard.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the colors of the dashboard. Colors are ANSI indices so the
// dashboard follows the terminal palette.
type Theme struct {
	Name       string
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Accent     lipgloss.Color
	Error      lipgloss.Color

	// Utilization bar segments.
	Utilized    lipgloss.Color
	Allocated   lipgloss.Color
	Blocked     lipgloss.Color
	Available   lipgloss.Color
	Unavailable lipgloss.Color

	IsDark bool
}

// DarkTheme returns the theme for dark terminal backgrounds.
func DarkTheme() Theme {
	return Theme{
		Name:        "dark",
		Foreground:  lipgloss.Color("15"),
		Muted:       lipgloss.Color("7"),
		Border:      lipgloss.Color("7"),
		Accent:      lipgloss.Color("6"),
		Error:       lipgloss.Color("1"),
		Utilized:    lipgloss.Color("2"),
		Allocated:   lipgloss.Color("3"),
		Blocked:     lipgloss.Color("13"),
		Available:   lipgloss.Color("8"),
		Unavailable: lipgloss.Color("0"),
		IsDark:      true,
	}
}

// LightTheme returns the theme for light terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Name:        "light",
		Foreground:  lipgloss.Color("0"),
		Muted:       lipgloss.Color("8"),
		Border:      lipgloss.Color("8"),
		Accent:      lipgloss.Color("4"),
		Error:       lipgloss.Color("1"),
		Utilized:    lipgloss.Color("2"),
		Allocated:   lipgloss.Color("3"),
		Blocked:     lipgloss.Color("5"),
		Available:   lipgloss.Color("7"),
		Unavailable: lipgloss.Color("0"),
		IsDark:      false,
	}
}

// DetectTheme resolves a theme setting ("auto", "dark" or "light").
// For "auto" it looks at COLORFGBG and falls back to the dark theme.
func DetectTheme(setting string) Theme {
	switch setting {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	}

	// Format is "foreground;background", sometimes with a middle field.
	if colors := os.Getenv("COLORFGBG"); colors != "" {
		parts := strings.Split(colors, ";")
		if bg, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			// 0-6 and 8 (dark grey) are dark backgrounds
			if (bg >= 0 && bg <= 6) || bg == 8 {
				return DarkTheme()
			}
			return LightTheme()
		}
	}
	return DarkTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	Border lipgloss.Style
	Title  lipgloss.Style
	Header lipgloss.Style
	Body   lipgloss.Style
	Bold   lipgloss.Style
	Muted  lipgloss.Style

	// Table rows
	Dim         lipgloss.Style
	Unavailable lipgloss.Style
	Scrollbar   lipgloss.Style

	// Footer
	Key     lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Border: lipgloss.NewStyle().
			Foreground(theme.Border),

		Title: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Header: lipgloss.NewStyle().
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Dim: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Unavailable: lipgloss.NewStyle().
			Foreground(theme.Error),

		Scrollbar: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Key: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Status: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),
	}
}

// DefaultStyles returns styles for the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme("auto"))
}
