// Package main provides the entry point for the shakes CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/shakes-lang/shakes/internal/engine"
	"github.com/shakes-lang/shakes/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	datasetPath  string
	rhythmPath   string
	outputPath   string
	inputPath    string
	frequency    float64
	outputFormat string
	debug        bool

	rootCmd = &cobra.Command{
		Use:   "shakes [TEXT...]",
		Short: "Feel words as rhythm",
		Long: paragraph(
			fmt.Sprintf("\nTranslate text into %s, one mora at a time.", keyword("rhythmic pulses")),
		),
		Example: paragraph("shakes kabisu\necho kabisu | shakes\nshakes --out kabisu.wav kabisu\nshakes --input notes.md"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	outputFormat = viper.GetString("format")
	switch outputFormat {
	case "":
		outputFormat = "auto"
	case "auto", "text", "markdown":
	default:
		return fmt.Errorf("unknown format %q: use text, markdown or auto", outputFormat)
	}

	// Markdown only renders well on a terminal
	if outputFormat == "auto" {
		outputFormat = "text"
		if term.IsTerminal(int(os.Stdout.Fd())) {
			outputFormat = "markdown"
		}
	}
	return nil
}

// loadConfig reads the engine configuration, filling in the cache
// directory from the platform defaults.
func loadConfig() (engine.Config, error) {
	cfg, err := engine.LoadConfigFromViper()
	if err != nil {
		return cfg, err
	}
	if cfg.Cache.Dir == "" {
		if dir, err := gap.NewScope(gap.User, "shakes").CacheDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(dir, "tones")
		}
	}
	return cfg, nil
}

func openEngine(needs engine.Needs) (*engine.Engine, engine.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	e, err := engine.Open(cfg, needs)
	if err != nil {
		return nil, cfg, err
	}
	return e, cfg, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// if stdin is a pipe then use stdin for input
	pipe, err := stdinIsPipe()
	if err != nil {
		return err
	}
	if len(args) == 0 && inputPath == "" && !pipe {
		return runTUI()
	}

	text, err := inputText(args)
	if err != nil {
		return err
	}
	return playText(cmd.OutOrStdout(), text)
}

// playText plays text and prints the translation report.
func playText(w io.Writer, text string) error {
	e, cfg, err := openEngine(engine.Needs{Audio: true})
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	rep, playErr := e.PlayText(text)
	if err := printReport(w, rep, e.Table(), outputFormat); err != nil {
		return err
	}
	if playErr != nil {
		return playErr
	}
	if cfg.Audio.Output != "" {
		fmt.Fprintln(w, "Wrote", cfg.Audio.Output)
	}
	return nil
}

// openInteractive opens an engine for the TUI. Without a usable audio
// device the TUI still translates and listens; only playback is disabled.
func openInteractive(cfg engine.Config) (*engine.Engine, error) {
	e, err := engine.Open(cfg, engine.Needs{Audio: true, Speech: true})
	if engine.CodeOf(err) == engine.ErrorCodeAudioDevice {
		log.Warn("Audio output unavailable, playback disabled", "error", err)
		return engine.Open(cfg, engine.Needs{Speech: true})
	}
	return e, err
}

func runTUI() error {
	// Read environment to get TUI settings
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	engineCfg, err := loadConfig()
	if err != nil {
		return err
	}
	e, err := openInteractive(engineCfg)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck

	cfg.Dataset = engineCfg.Dataset

	if _, err := ui.NewProgram(cfg, e).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// errorHint suggests what to check after a failed command.
func errorHint(err error) string {
	var hint string
	switch engine.CodeOf(err) {
	case engine.ErrorCodeDataset:
		hint = "Check --dataset and --rhythm, or dataset.path in the config file."
	case engine.ErrorCodeAudioDevice:
		hint = "Check the audio device, or write a WAV file with --out."
	case engine.ErrorCodeSpeechCapture:
		hint = "Check speech.recorder and speech.api_key in the config file."
	case engine.ErrorCodeInvalidInput:
		hint = "Pass text as arguments, on stdin or with --input."
	default:
		return ""
	}
	var ee *engine.Error
	if errors.As(err, &ee) && ee.IsRetryable() {
		hint += " The failure may be temporary; try again."
	}
	return hint
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		var ee *engine.Error
		if errors.As(err, &ee) {
			log.Error("Command failed", "code", ee.Code, "fatal", ee.IsFatal(), "error", err)
		}
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(os.Stderr, faint(hint))
		}
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	flags.StringVarP(&datasetPath, "dataset", "d", "", "mora dataset (csv, jsonl, sqlite or a directory)")
	flags.StringVarP(&rhythmPath, "rhythm", "r", "", "rhythm table YAML (default built-in)")
	flags.StringVarP(&outputPath, "out", "o", "", "write a WAV file instead of playing")
	flags.StringVarP(&inputPath, "input", "i", "", "read text from a file (markdown is reduced to its prose)")
	flags.Float64VarP(&frequency, "frequency", "f", 70, "tone frequency in Hz")
	flags.StringVar(&outputFormat, "format", "auto", "report format: text, markdown or auto")
	flags.BoolVar(&debug, "debug", false, "log debug output")

	// Config bindings
	_ = viper.BindPFlag("dataset.path", flags.Lookup("dataset"))
	_ = viper.BindPFlag("rhythm.path", flags.Lookup("rhythm"))
	_ = viper.BindPFlag("audio.output", flags.Lookup("out"))
	_ = viper.BindPFlag("audio.frequency", flags.Lookup("frequency"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))

	engine.SetDefaults()
	viper.SetDefault("format", "auto")

	rootCmd.AddCommand(
		translateCmd,
		playCmd,
		listenCmd,
		lexiconCmd,
		symbolsCmd,
		configCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "shakes")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "shakes")}, dirs...)
	}

	if c := os.Getenv("SHAKES_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("shakes")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("shakes")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "shakes.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
