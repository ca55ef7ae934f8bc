package engine

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads engine configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	cfg.Dataset = loadDatasetConfig(cfg.Dataset)
	if viper.IsSet("rhythm.path") {
		cfg.Rhythm.Path = viper.GetString("rhythm.path")
	}
	cfg.Audio = loadAudioConfig(cfg.Audio)
	cfg.Cache = loadCacheConfig(cfg.Cache)
	cfg.Speech = loadSpeechConfig(cfg.Speech)

	if viper.IsSet("suggestions") {
		cfg.Suggestions = viper.GetInt("suggestions")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadDatasetConfig(cfg DatasetConfig) DatasetConfig {
	if viper.IsSet("dataset.path") {
		cfg.Path = viper.GetString("dataset.path")
	}
	if viper.IsSet("dataset.mora_column") {
		cfg.MoraColumn = viper.GetString("dataset.mora_column")
	}
	if viper.IsSet("dataset.pattern_column") {
		cfg.PatternColumn = viper.GetString("dataset.pattern_column")
	}
	if viper.IsSet("dataset.table") {
		cfg.Table = viper.GetString("dataset.table")
	}
	return cfg
}

func loadAudioConfig(cfg AudioConfig) AudioConfig {
	if viper.IsSet("audio.frequency") {
		cfg.Frequency = viper.GetFloat64("audio.frequency")
	}
	if viper.IsSet("audio.sample_rate") {
		cfg.SampleRate = viper.GetInt("audio.sample_rate")
	}
	if viper.IsSet("audio.volume") {
		cfg.Volume = viper.GetFloat64("audio.volume")
	}
	if viper.IsSet("audio.buffer_size") {
		if d, err := time.ParseDuration(viper.GetString("audio.buffer_size")); err == nil {
			cfg.BufferSize = d
		}
	}
	if viper.IsSet("audio.output") {
		cfg.Output = viper.GetString("audio.output")
	}
	return cfg
}

func loadCacheConfig(cfg CacheConfig) CacheConfig {
	if viper.IsSet("cache.enabled") {
		cfg.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.memory_mb") {
		cfg.MemoryMB = viper.GetInt("cache.memory_mb")
	}
	if viper.IsSet("cache.disk_mb") {
		cfg.DiskMB = viper.GetInt("cache.disk_mb")
	}
	if viper.IsSet("cache.max_age") {
		if d, err := time.ParseDuration(viper.GetString("cache.max_age")); err == nil {
			cfg.MaxAge = d
		}
	}
	return cfg
}

func loadSpeechConfig(cfg SpeechConfig) SpeechConfig {
	if viper.IsSet("speech.api_key") {
		cfg.APIKey = viper.GetString("speech.api_key")
	}
	if viper.IsSet("speech.language") {
		cfg.Language = viper.GetString("speech.language")
	}
	if viper.IsSet("speech.endpoint") {
		cfg.Endpoint = viper.GetString("speech.endpoint")
	}
	if viper.IsSet("speech.recorder") {
		cfg.Recorder = viper.GetString("speech.recorder")
	}
	if viper.IsSet("speech.record_duration") {
		if d, err := time.ParseDuration(viper.GetString("speech.record_duration")); err == nil {
			cfg.RecordDuration = d
		}
	}
	if viper.IsSet("speech.sample_rate") {
		cfg.SampleRate = viper.GetInt("speech.sample_rate")
	}
	if viper.IsSet("speech.requests_per_minute") {
		cfg.RequestsPerMinute = viper.GetInt("speech.requests_per_minute")
	}
	if viper.IsSet("speech.timeout") {
		if d, err := time.ParseDuration(viper.GetString("speech.timeout")); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// SetDefaults sets default values in Viper for the engine configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("dataset.mora_column", defaults.Dataset.MoraColumn)
	viper.SetDefault("dataset.pattern_column", defaults.Dataset.PatternColumn)
	viper.SetDefault("dataset.table", defaults.Dataset.Table)

	viper.SetDefault("audio.frequency", defaults.Audio.Frequency)
	viper.SetDefault("audio.sample_rate", defaults.Audio.SampleRate)
	viper.SetDefault("audio.volume", defaults.Audio.Volume)
	viper.SetDefault("audio.buffer_size", defaults.Audio.BufferSize.String())

	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.memory_mb", defaults.Cache.MemoryMB)
	viper.SetDefault("cache.disk_mb", defaults.Cache.DiskMB)
	viper.SetDefault("cache.max_age", defaults.Cache.MaxAge.String())

	viper.SetDefault("speech.language", defaults.Speech.Language)
	viper.SetDefault("speech.recorder", defaults.Speech.Recorder)
	viper.SetDefault("speech.record_duration", defaults.Speech.RecordDuration.String())
	viper.SetDefault("speech.sample_rate", defaults.Speech.SampleRate)
	viper.SetDefault("speech.requests_per_minute", defaults.Speech.RequestsPerMinute)
	viper.SetDefault("speech.timeout", defaults.Speech.Timeout.String())

	viper.SetDefault("suggestions", defaults.Suggestions)
}
