package ui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

func (m model) statusBarView(b *strings.Builder) {
	showStatusMessage := m.statusMessage.message != ""

	// Logo
	logo := radiationLogoView()

	// Poison flag
	var poisoned string
	if m.machine.Poisoned() {
		poisoned = statusBarPoisonStyle(" POISONED ")
	}

	// Key help
	help := " z flip · x poison · c copy · "
	if m.deps.Prompt != nil {
		help += "tab type · "
	}
	helpNote := statusBarHelpStyle(help + "q quit ")

	// Note
	note := m.noteView()
	if showStatusMessage {
		note = m.statusMessage.message
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(poisoned)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	style := statusBarNoteStyle
	switch {
	case showStatusMessage && m.statusMessage.isError:
		style = statusBarErrorStyle
	case showStatusMessage:
		style = statusBarMessageStyle
	}
	note = style(note)

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(poisoned)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := style(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		poisoned,
		helpNote,
	)
}

// noteView summarizes what the dog is doing.
func (m model) noteView() string {
	var parts []string

	switch {
	case m.deps.View.Listening():
		parts = append(parts, m.spinner.View()+" listening")
	case m.deps.View.Speaking():
		parts = append(parts, "speaking")
	default:
		parts = append(parts, m.machine.State().String())
	}

	if m.cfg.Engine != "" {
		voice := m.cfg.Engine
		if m.cfg.Voice != "" {
			voice += ": " + m.cfg.Voice
		}
		parts = append(parts, voice)
	}

	if m.deps.Queue != nil {
		parts = append(parts, fmt.Sprintf("queue %d", m.deps.Queue.Len()))
	}

	if m.cfg.Debug {
		parts = append(parts, fmt.Sprintf("frame %d", m.frames))
	}

	return strings.Join(parts, " · ")
}
