package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:     "play [TEXT...]",
	Short:   "Play the rhythm of text",
	Long:    paragraph(fmt.Sprintf("\n%s every mora of the text as tone pulses, in order. Unknown moras are reported and skipped.", keyword("Play"))),
	Example: paragraph("shakes play kabisu\nshakes play --out kabisu.wav kabisu\nshakes play -f 120 kabisu"),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(args)
		if err != nil {
			return err
		}
		return playText(cmd.OutOrStdout(), text)
	},
}
