package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# mora dataset: csv, jsonl, sqlite or a directory holding one
dataset:
  # path: "~/shakes/moras.csv"
  mora_column: "Romaji"
  pattern_column: "Rhythmic Pattern"
  # table name for sqlite datasets
  table: "moras"

# rhythm table YAML mapping symbols to milliseconds (default built-in)
rhythm:
  # path: "~/shakes/rhythm.yml"

# tone settings
audio:
  frequency: 70
  # 44100 or 48000
  sample_rate: 44100
  volume: 1.0
  buffer_size: "50ms"
  # write a WAV file instead of playing
  # output: "out.wav"

# synthesized tone cache
cache:
  enabled: true
  # dir: "~/.cache/shakes/tones"
  memory_mb: 16
  disk_mb: 128
  max_age: "720h"

# speech input (TUI and listen command)
speech:
  # api_key: "your-api-key-here"
  language: "en-US"
  recorder: "arecord"
  record_duration: "5s"
  sample_rate: 16000
  requests_per_minute: 30
  timeout: "30s"

# suggestions shown per unknown mora; 0 disables them
suggestions: 3
# report format: text, markdown or auto
format: "auto"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the shakes config file",
	Long:    paragraph(fmt.Sprintf("\n%s the shakes config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("shakes config\nshakes config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Shakes", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
