package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/internal/rhythm"
)

var symbolsCmd = &cobra.Command{
	Use:     "symbols",
	Short:   "Show the rhythm table",
	Long:    paragraph(fmt.Sprintf("\n%s every rhythm symbol with its pulse duration. Symbols missing from the table play for %v.", keyword("List"), rhythm.DefaultDuration)),
	Example: paragraph("shakes symbols\nshakes symbols --rhythm my-rhythm.yml"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table, err := engine.OpenTable(cfg.Rhythm)
		if err != nil {
			return err
		}

		var b strings.Builder
		if outputFormat == "markdown" {
			b.WriteString("| Symbol | Duration |\n|--------|----------|\n")
			for _, s := range table.Symbols() {
				d, _ := table.Duration(s)
				fmt.Fprintf(&b, "| `%s` | %dms |\n", s, d.Milliseconds())
			}
			out, err := renderMarkdown(b.String())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}

		for _, s := range table.Symbols() {
			d, _ := table.Duration(s)
			fmt.Fprintf(&b, "%-4s %dms\n", s, d.Milliseconds())
		}
		fmt.Fprint(cmd.OutOrStdout(), b.String())
		return nil
	},
}
