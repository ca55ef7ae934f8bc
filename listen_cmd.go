package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/shakes-lang/shakes/internal/audio"
	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/internal/speech"
)

var (
	listenFile string
	listenPlay bool

	listenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Translate what you say",
		Long: paragraph(fmt.Sprintf("\n%s to the microphone (or a WAV file), transcribe the speech and translate it. "+
			"Recording uses the configured recorder command.", keyword("Listen"))),
		Example: paragraph("shakes listen\nshakes listen --play\nshakes listen --file hello.wav"),
		Args:    cobra.NoArgs,
		RunE:    runListen,
	}
)

func runListen(cmd *cobra.Command, _ []string) error {
	w := cmd.OutOrStdout()
	if listenFile != "" {
		d, err := recordingLength(listenFile)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, faint(fmt.Sprintf("Transcribing %s (%v)", listenFile, d.Round(10*time.Millisecond))))
	}

	e, _, err := openEngine(engine.Needs{
		Audio:     listenPlay,
		Speech:    true,
		Recording: listenFile,
	})
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if listenFile == "" {
		fmt.Fprintln(w, faint("Listening..."))
	}
	res := e.Listen(ctx)
	if !res.Ok() {
		if ctx.Err() == context.Canceled {
			return nil
		}
		return res.Err
	}
	fmt.Fprintf(w, "Heard %s\n\n", keyword(fmt.Sprintf("%q", res.Text)))

	if !listenPlay {
		return writeReport(w, e.Report(res.Text), e.Table(), outputFormat, false)
	}
	rep, playErr := e.PlayText(res.Text)
	if err := printReport(w, rep, e.Table(), outputFormat); err != nil {
		return err
	}
	return playErr
}

// recordingLength decodes a WAV file and returns its duration. Files that
// cannot be decoded or hold no audio are rejected before anything is sent
// to the recognizer.
func recordingLength(path string) (time.Duration, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return 0, engine.NewError(engine.ErrorCodeInvalidInput, "expanding recording path", err)
	}
	samples, rate, err := audio.ReadWAV(expanded)
	if err != nil {
		return 0, engine.NewError(engine.ErrorCodeInvalidInput, "reading recording", err).
			WithContext("path", path)
	}
	if len(samples) == 0 || rate <= 0 {
		return 0, engine.NewError(engine.ErrorCodeInvalidInput, "reading recording", speech.ErrNoSpeech).
			WithContext("path", path)
	}
	return time.Duration(len(samples)) * time.Second / time.Duration(rate), nil
}

func init() {
	listenCmd.Flags().StringVar(&listenFile, "file", "", "transcribe a 16-bit PCM WAV file instead of recording")
	listenCmd.Flags().BoolVarP(&listenPlay, "play", "p", false, "play the translation")
}
