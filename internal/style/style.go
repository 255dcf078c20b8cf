// pattern: Functional Core
package style

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// DefaultTheme is used when no theme or an unknown theme is configured.
const DefaultTheme = "mocha"

type Styles struct {
	flavor catppuccin.Flavor
}

func New(themeName string) *Styles {
	return &Styles{flavor: flavorFromName(themeName)}
}

func flavorFromName(name string) catppuccin.Flavor {
	switch name {
	case "latte":
		return catppuccin.Latte
	case "frappe":
		return catppuccin.Frappe
	case "macchiato":
		return catppuccin.Macchiato
	case "mocha":
		return catppuccin.Mocha
	default:
		return catppuccin.Mocha
	}
}

// ValidTheme reports whether name selects a known flavor.
func ValidTheme(name string) bool {
	switch name {
	case "latte", "frappe", "macchiato", "mocha":
		return true
	}
	return false
}

// HeaderStyle is used for section headings such as "Active environments:".
func (s *Styles) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Subtext0().Hex))
}

// LastActiveStyle highlights the most recently activated environment.
func (s *Styles) LastActiveStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(s.flavor.Mauve().Hex))
}

func (s *Styles) NameStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Text().Hex))
}

func (s *Styles) PathStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Teal().Hex))
}

// RemoteStyle dims the "(remote)" placeholder shown instead of a path.
func (s *Styles) RemoteStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Faint(true).
		Foreground(lipgloss.Color(s.flavor.Overlay0().Hex))
}

func (s *Styles) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.flavor.Red().Hex)).
		Bold(true)
}

// PadRight pads s with spaces to the given display width.
// Escape sequences and wide runes are measured by their rendered width.
func PadRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Width returns the display width of s.
func Width(s string) int {
	return ansi.StringWidth(s)
}
