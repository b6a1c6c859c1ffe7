package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Colors.
var (
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	green     = lipgloss.Color("#04B575")
	poison    = lipgloss.Color("#1FC001")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}
)

// Styles.
var (
	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(fuchsia).
			Bold(true)

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(red).
			Padding(0, 1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(gray)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(green).
			Background(statusBarBg)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarPoisonStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(poison).
				Bold(true).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(cream).
				Background(red).
				Render
)

func radiationLogoView() string {
	return logoStyle.Render(" Radiation ")
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		b.WriteString(i)
		b.WriteString(v)
		b.WriteByte('\n')
	}
	return b.String()
}

// colorProfile maps a profile name to termenv, falling back to detected.
func colorProfile(name string, detected termenv.Profile) termenv.Profile {
	switch strings.ToLower(name) {
	case "ascii":
		return termenv.Ascii
	case "ansi":
		return termenv.ANSI
	case "ansi256":
		return termenv.ANSI256
	case "truecolor":
		return termenv.TrueColor
	default:
		return detected
	}
}
