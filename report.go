package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/internal/rhythm"
)

const noPattern = "—"

// reportRow is one display line of a translation.
type reportRow struct {
	Mora     string
	Pattern  string
	Duration time.Duration
	Note     string
}

func reportRows(rep engine.Report, table *rhythm.Table) []reportRow {
	rows := make([]reportRow, 0, len(rep.Entries))
	for _, entry := range rep.Entries {
		if !entry.Resolved {
			rows = append(rows, reportRow{
				Mora:    entry.Mora,
				Pattern: noPattern,
				Note:    rep.MissNote(entry.Mora),
			})
			continue
		}
		rows = append(rows, reportRow{
			Mora:     entry.Mora,
			Pattern:  entry.Pattern,
			Duration: rhythm.TotalDuration(table.Expand(entry.Pattern)),
		})
	}
	return rows
}

func summaryLine(rep engine.Report, played bool) string {
	verb := "resolved"
	n := rep.Resolved()
	if played {
		verb = "played"
		n = rep.Played
	}
	line := fmt.Sprintf("%d of %d moras %s", n, len(rep.Entries), verb)
	if played && rep.Duration > 0 {
		line += fmt.Sprintf(", %v of pulses", rep.Duration)
	}
	return line
}

// printReport writes a played report in the requested format.
func printReport(w io.Writer, rep engine.Report, table *rhythm.Table, format string) error {
	return writeReport(w, rep, table, format, true)
}

func writeReport(w io.Writer, rep engine.Report, table *rhythm.Table, format string, played bool) error {
	if len(rep.Entries) == 0 {
		_, err := fmt.Fprintln(w, faint("Nothing to translate."))
		return err
	}

	rows := reportRows(rep, table)
	var out string
	switch format {
	case "markdown":
		var err error
		out, err = renderMarkdown(reportMarkdown(rows, summaryLine(rep, played)))
		if err != nil {
			return err
		}
	default:
		out = reportText(rows) + "\n" + faint(summaryLine(rep, played)) + "\n"
	}
	_, err := fmt.Fprint(w, out)
	return err
}

func reportText(rows []reportRow) string {
	moraWidth, patternWidth := runewidth.StringWidth("MORA"), runewidth.StringWidth("PATTERN")
	for _, r := range rows {
		moraWidth = max(moraWidth, runewidth.StringWidth(r.Mora))
		patternWidth = max(patternWidth, runewidth.StringWidth(r.Pattern))
	}

	var b strings.Builder
	header := runewidth.FillRight("MORA", moraWidth) + "  " +
		runewidth.FillRight("PATTERN", patternWidth) + "  DURATION"
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(header))
	b.WriteString("\n")

	for _, r := range rows {
		b.WriteString(runewidth.FillRight(r.Mora, moraWidth))
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(r.Pattern, patternWidth))
		b.WriteString("  ")
		if r.Note != "" {
			b.WriteString(warning(r.Note))
		} else {
			b.WriteString(fmt.Sprintf("%dms", r.Duration.Milliseconds()))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func reportMarkdown(rows []reportRow, summary string) string {
	var b strings.Builder
	b.WriteString("| Mora | Pattern | Duration |\n")
	b.WriteString("|------|---------|----------|\n")
	for _, r := range rows {
		dur := fmt.Sprintf("%dms", r.Duration.Milliseconds())
		if r.Note != "" {
			dur = "*" + r.Note + "*"
		}
		fmt.Fprintf(&b, "| `%s` | `%s` | %s |\n", escapeCell(r.Mora), escapeCell(r.Pattern), dur)
	}
	b.WriteString("\n")
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func renderMarkdown(md string) (string, error) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = min(w, 120)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}
