package ui

import (
	"time"

	"github.com/shakes-lang/shakes/internal/engine"
)

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool `env:"SHAKES_TUI_MOUSE"`
	AltScreen   bool `env:"SHAKES_TUI_ALT_SCREEN" envDefault:"true"`

	// Reload the lexicon when the dataset file changes
	Watch bool `env:"SHAKES_TUI_WATCH" envDefault:"true"`

	// Upper bound for one speech capture, including recognition
	ListenTimeout time.Duration `env:"SHAKES_TUI_LISTEN_TIMEOUT" envDefault:"30s"`

	// Dataset the engine was opened with; used for reloads
	Dataset engine.DatasetConfig
}
