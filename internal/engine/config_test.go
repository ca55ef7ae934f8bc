package engine

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Audio.Frequency != 70 || cfg.Audio.SampleRate != 44100 {
		t.Errorf("audio defaults = %+v", cfg.Audio)
	}
	if cols := cfg.Dataset.Columns(); cols.Mora != "Romaji" || cols.Pattern != "Rhythmic Pattern" {
		t.Errorf("columns = %+v", cols)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty column", func(c *Config) { c.Dataset.MoraColumn = "" }},
		{"bad sample rate", func(c *Config) { c.Audio.SampleRate = 12345 }},
		{"zero frequency", func(c *Config) { c.Audio.Frequency = 0 }},
		{"frequency above nyquist", func(c *Config) { c.Audio.Frequency = 30000 }},
		{"loud", func(c *Config) { c.Audio.Volume = 1.5 }},
		{"tiny memory cache", func(c *Config) { c.Cache.MemoryMB = 0 }},
		{"short recording", func(c *Config) { c.Speech.RecordDuration = time.Millisecond }},
		{"no requests", func(c *Config) { c.Speech.RequestsPerMinute = 0 }},
		{"negative suggestions", func(c *Config) { c.Suggestions = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate succeeded, want error")
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Cache.MemoryMB = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled cache still validated: %v", err)
	}
}

func TestLoadConfigFromViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("dataset.path", "~/moras.csv")
	viper.Set("audio.frequency", 90.0)
	viper.Set("audio.output", "out.wav")
	viper.Set("cache.max_age", "1h")
	viper.Set("speech.record_duration", "3s")
	viper.Set("suggestions", 5)

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper failed: %v", err)
	}
	if cfg.Dataset.Path != "~/moras.csv" {
		t.Errorf("dataset path = %q", cfg.Dataset.Path)
	}
	if cfg.Audio.Frequency != 90 || cfg.Audio.Output != "out.wav" {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Cache.MaxAge != time.Hour {
		t.Errorf("max age = %v, want 1h", cfg.Cache.MaxAge)
	}
	if cfg.Speech.RecordDuration != 3*time.Second {
		t.Errorf("record duration = %v, want 3s", cfg.Speech.RecordDuration)
	}
	if cfg.Suggestions != 5 {
		t.Errorf("suggestions = %d, want 5", cfg.Suggestions)
	}
	if cfg.Dataset.MoraColumn != "Romaji" {
		t.Errorf("default column lost: %q", cfg.Dataset.MoraColumn)
	}
}

func TestLoadConfigFromViperInvalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("audio.volume", 3.0)
	if _, err := LoadConfigFromViper(); err == nil {
		t.Error("LoadConfigFromViper accepted volume 3.0")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		fatal     bool
		retryable bool
	}{
		{ErrorCodeDataset, true, false},
		{ErrorCodeAudioDevice, false, true},
		{ErrorCodeSpeechCapture, false, true},
		{ErrorCodeInvalidInput, false, false},
	}
	for _, tt := range tests {
		e := NewError(tt.code, "x", nil)
		if e.IsFatal() != tt.fatal || e.IsRetryable() != tt.retryable {
			t.Errorf("%s: fatal=%v retryable=%v, want %v %v", tt.code, e.IsFatal(), e.IsRetryable(), tt.fatal, tt.retryable)
		}
	}
	if got := NewError(ErrorCodeDataset, "loading", ErrEmptyInput).Error(); got != "DATASET: loading: no text to translate" {
		t.Errorf("Error() = %q", got)
	}
}
