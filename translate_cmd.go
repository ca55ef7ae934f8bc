package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/internal/input"
)

var translateCmd = &cobra.Command{
	Use:     "translate [TEXT...]",
	Short:   "Print the rhythm of text without playing it",
	Long:    paragraph(fmt.Sprintf("\n%s text into moras and rhythm patterns. Nothing is played.", keyword("Translate"))),
	Example: paragraph("shakes translate kabisu\necho kabisu | shakes translate --format text\nshakes translate --input notes.md"),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := inputText(args)
		if err != nil {
			return err
		}

		e, _, err := openEngine(engine.Needs{})
		if err != nil {
			return err
		}
		defer e.Close() //nolint:errcheck

		return writeReport(cmd.OutOrStdout(), e.Report(text), e.Table(), outputFormat, false)
	},
}

// inputText reads the --input file, or joins args, or reads stdin when it
// is a pipe and no args were given.
func inputText(args []string) (string, error) {
	text, err := readInput(args)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", engine.NewError(engine.ErrorCodeInvalidInput, "reading input", engine.ErrEmptyInput)
	}
	return text, nil
}

func readInput(args []string) (string, error) {
	if inputPath != "" {
		return input.ReadFile(inputPath)
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	yes, err := stdinIsPipe()
	if err != nil {
		return "", err
	}
	if !yes {
		return "", nil
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("unable to read from stdin: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
