// pattern: Functional Core

package format

import (
	"os"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

// Palette holds the SGR sequences used around each colored segment. The zero
// value renders plain text.
type Palette struct {
	Name    string // repository name
	Muted   string // non-repository name
	Fill    string // dash filler
	OK      string // master branch, clean status
	Neutral string // any other branch
	Warning string // dirty status, "no git"
	Reset   string
}

// ColorMode selects whether color is used.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value.
func ParseColorMode(s string) (ColorMode, bool) {
	switch m := ColorMode(s); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, true
	}
	return "", false
}

// Enabled resolves the mode against terminal detection and NO_COLOR.
func (m ColorMode) Enabled(isTerminal bool, noColor bool) bool {
	switch m {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal && !noColor
	}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewPalette builds the palette for a theme. When enabled is false every
// sequence is empty.
func NewPalette(enabled bool, theme string) Palette {
	if !enabled {
		return Palette{}
	}
	if flavor, ok := flavorFromName(theme); ok {
		return flavorPalette(flavor)
	}
	return ansiPalette()
}

// ansiPalette uses the bright 16-color codes most terminals render consistently.
func ansiPalette() Palette {
	return Palette{
		Name:    fg(ansi.BrightBlue),
		Muted:   fg(ansi.BrightBlack),
		Fill:    fg(ansi.BrightBlack),
		OK:      fg(ansi.BrightGreen),
		Neutral: fg(ansi.BrightYellow),
		Warning: fg(ansi.BrightRed),
		Reset:   ansi.ResetStyle,
	}
}

func flavorPalette(f catppuccin.Flavor) Palette {
	return Palette{
		Name:    fg(f.Blue()),
		Muted:   fg(f.Overlay0()),
		Fill:    fg(f.Surface2()),
		OK:      fg(f.Green()),
		Neutral: fg(f.Yellow()),
		Warning: fg(f.Red()),
		Reset:   ansi.ResetStyle,
	}
}

func fg(c ansi.Color) string {
	return ansi.Style{}.ForegroundColor(c).String()
}

func flavorFromName(name string) (catppuccin.Flavor, bool) {
	switch name {
	case "latte":
		return catppuccin.Latte, true
	case "frappe":
		return catppuccin.Frappe, true
	case "macchiato":
		return catppuccin.Macchiato, true
	case "mocha":
		return catppuccin.Mocha, true
	default:
		return nil, false
	}
}
