package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"

	"github.com/shakes-lang/shakes/internal/mora"
	"github.com/shakes-lang/shakes/internal/rhythm"
)

const (
	// pulseUnit is the duration drawn as one cell of a pulse bar.
	pulseUnit = 25 * time.Millisecond

	// rows used by everything but the entry list
	chromeHeight = 8
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.heard != "" && strings.TrimSpace(m.input.Value()) == "" {
		b.WriteString(subtleStyle("  heard: " + m.heard))
	}
	b.WriteString("\n\n")
	b.WriteString(m.entriesView())
	b.WriteString("\n")
	if m.showHelp {
		b.WriteString(m.helpView())
	} else {
		b.WriteString(subtleStyle(m.shortHelp()))
	}
	return b.String()
}

func (m model) headerView() string {
	logo := logoStyle("shakes")

	var note string
	switch {
	case m.statusMessage != "" && m.statusIsError:
		note = statusErrorStyle(m.statusMessage)
	case m.statusMessage != "":
		note = statusMessageStyle(m.statusMessage)
	case m.listening:
		note = m.spinner.View() + " Listening..."
	case m.playing:
		note = m.spinner.View() + " Playing..."
	default:
		lx := m.engine.Lexicon()
		note = subtleStyle(fmt.Sprintf("%d moras from %s", lx.Len(), lx.Source()))
	}

	if m.width > 0 {
		note = truncate.StringWithTail(note, uint(max(0, m.width-ansi.PrintableRuneWidth(logo)-1)), ellipsis) //nolint:gosec
	}
	return logo + " " + note
}

func (m model) entriesView() string {
	entries := m.report.Entries
	if len(entries) == 0 {
		return subtleStyle("  Nothing to translate yet.") + "\n"
	}

	moraWidth, patternWidth := runewidth.StringWidth("MORA"), runewidth.StringWidth("PATTERN")
	for _, e := range entries {
		moraWidth = max(moraWidth, runewidth.StringWidth(e.Mora))
		patternWidth = max(patternWidth, runewidth.StringWidth(e.Pattern))
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle(runewidth.FillRight("MORA", moraWidth) + "  " +
		runewidth.FillRight("PATTERN", patternWidth) + "  PULSES"))
	b.WriteString("\n")

	start, end := m.visibleRange(len(entries))
	for i := start; i < end; i++ {
		e := entries[i]

		cursor := "  "
		name := runewidth.FillRight(e.Mora, moraWidth)
		if m.focus == focusList && i == m.cursor {
			cursor = selectedStyle("› ")
			name = selectedStyle(name)
		}

		var line string
		if e.Resolved {
			line = cursor + name + "  " + runewidth.FillRight(e.Pattern, patternWidth) + "  " +
				pulseBar(m.engine.Expand(e))
		} else {
			line = cursor + name + "  " + runewidth.FillRight("—", patternWidth) + "  " +
				missStyle(m.report.MissNote(e.Mora))
		}
		if m.width > 0 {
			line = truncate.StringWithTail(line, uint(m.width), ellipsis) //nolint:gosec
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if hidden := len(entries) - (end - start); hidden > 0 {
		b.WriteString(subtleStyle(fmt.Sprintf("  %d more", hidden)))
		b.WriteString("\n")
	}
	b.WriteString(subtleStyle(fmt.Sprintf("  %d of %d resolved", m.report.Resolved(), len(entries))))
	b.WriteString("\n")
	return b.String()
}

// visibleRange returns the window of entries that fits the screen, keeping
// the cursor in view.
func (m model) visibleRange(n int) (int, int) {
	rows := n
	if m.height > 0 {
		rows = max(m.height-chromeHeight, 1)
	}
	if n <= rows {
		return 0, n
	}
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	return start, min(start+rows, n)
}

// pulseBar draws each pulse as a bar whose length follows its duration.
func pulseBar(pulses []rhythm.Pulse) string {
	bars := make([]string, 0, len(pulses))
	for _, p := range pulses {
		cells := max(int(p.Duration/pulseUnit), 1)
		bar := strings.Repeat("█", cells)
		if p.Known {
			bars = append(bars, pulseStyle(bar))
		} else {
			bars = append(bars, unknownPulseStyle(bar))
		}
	}
	return strings.Join(bars, " ")
}

func (m model) shortHelp() string {
	if m.focus == focusList {
		return "  ↑/↓ select • enter play mora • l listen • c copy • ? help • tab input • q quit"
	}
	return "  enter play • ctrl+r listen • ctrl+y copy • tab moras • esc clear • ctrl+c quit"
}

func (m model) helpView() (s string) {
	s += "\n"
	s += "enter    play the text (or the selected mora)\n"
	s += "tab      switch between input and mora list\n"
	s += "ctrl+r   listen and translate speech\n"
	s += "ctrl+y   copy the translation\n"
	s += "↑/k ↓/j  select a mora\n"
	s += "g G      first / last mora\n"
	s += "esc      clear the input\n"
	s += "?        close help\n"
	s += "q        quit\n"
	return indent.String(s, 2)
}

// entryLine is the plain text of one entry, used for copies.
func entryLine(e mora.Entry) string {
	if !e.Resolved {
		return e.Mora + "\t?"
	}
	return e.Mora + "\t" + e.Pattern
}
