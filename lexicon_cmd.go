package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/internal/lexicon"
	"github.com/shakes-lang/shakes/internal/rhythm"
)

var (
	lexiconList bool

	lexiconCmd = &cobra.Command{
		Use:   "lexicon [MORA...]",
		Short: "Inspect the mora dataset",
		Long: paragraph(fmt.Sprintf("\n%s the loaded dataset. Without arguments a summary is printed; "+
			"with arguments each mora is looked up.", keyword("Inspect"))),
		Example: paragraph("shakes lexicon\nshakes lexicon ka shi\nshakes lexicon --list"),
		RunE:    runLexicon,
	}
)

func runLexicon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	start := time.Now()
	lx, err := engine.OpenLexicon(cfg.Dataset)
	if err != nil {
		return err
	}
	loaded := time.Since(start)

	table, err := engine.OpenTable(cfg.Rhythm)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch {
	case lexiconList:
		return listLexicon(w, lx, table)
	case len(args) > 0:
		return lookupMoras(w, lx, table, args, cfg.Suggestions)
	}

	skipped, replaced := lx.Stats()
	fmt.Fprintf(w, "%s %s\n", faint("source  "), lx.Source())
	fmt.Fprintf(w, "%s %s\n", faint("entries "), humanize.Comma(int64(lx.Len())))
	fmt.Fprintf(w, "%s %s\n", faint("skipped "), humanize.Comma(int64(skipped)))
	fmt.Fprintf(w, "%s %s\n", faint("replaced"), humanize.Comma(int64(replaced)))
	fmt.Fprintf(w, "%s %v\n", faint("loaded  "), loaded.Round(time.Millisecond))
	return nil
}

func listLexicon(w io.Writer, lx *lexicon.Lexicon, table *rhythm.Table) error {
	width := 0
	for _, m := range lx.Moras() {
		width = max(width, runewidth.StringWidth(m))
	}
	for _, m := range lx.Moras() {
		p, _ := lx.Lookup(m)
		d := rhythm.TotalDuration(table.Expand(p))
		if _, err := fmt.Fprintf(w, "%s  %s  %s\n", runewidth.FillRight(m, width), p, faint(fmt.Sprintf("%dms", d.Milliseconds()))); err != nil {
			return err
		}
	}
	return nil
}

func lookupMoras(w io.Writer, lx *lexicon.Lexicon, table *rhythm.Table, moras []string, suggestions int) error {
	for _, arg := range moras {
		m := lexicon.NormalizeMora(arg)
		p, ok := lx.Lookup(m)
		if !ok {
			fmt.Fprintln(w, warning(engine.MissNote(m, lx.Suggest(m, suggestions))))
			continue
		}
		fmt.Fprintf(w, "%s → %s\n", keyword(m), p)
		for _, pulse := range table.Expand(p) {
			note := ""
			if !pulse.Known {
				note = faint(" (unknown symbol, default duration)")
			}
			fmt.Fprintf(w, "  %s %dms%s\n", pulse.Symbol, pulse.Milliseconds(), note)
		}
	}
	return nil
}

func init() {
	lexiconCmd.Flags().BoolVarP(&lexiconList, "list", "l", false, "list every mora with its pattern")
}
