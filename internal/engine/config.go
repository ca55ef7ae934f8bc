package engine

import (
	"fmt"
	"time"

	"github.com/shakes-lang/shakes/internal/lexicon"
)

// Config contains all engine configuration options.
type Config struct {
	Dataset DatasetConfig `yaml:"dataset"`
	Rhythm  RhythmConfig  `yaml:"rhythm"`
	Audio   AudioConfig   `yaml:"audio"`
	Cache   CacheConfig   `yaml:"cache"`
	Speech  SpeechConfig  `yaml:"speech"`

	// Number of lexicon suggestions reported per miss; 0 disables them
	Suggestions int `yaml:"suggestions" env:"SHAKES_SUGGESTIONS" envDefault:"3"`
}

// DatasetConfig locates the mora lexicon.
type DatasetConfig struct {
	Path          string `yaml:"path" env:"SHAKES_DATASET_PATH"`
	MoraColumn    string `yaml:"mora_column" env:"SHAKES_DATASET_MORA_COLUMN" envDefault:"Romaji"`
	PatternColumn string `yaml:"pattern_column" env:"SHAKES_DATASET_PATTERN_COLUMN" envDefault:"Rhythmic Pattern"`
	Table         string `yaml:"table" env:"SHAKES_DATASET_TABLE" envDefault:"moras"`
}

// RhythmConfig selects the rhythm table. An empty path uses the built-in one.
type RhythmConfig struct {
	Path string `yaml:"path" env:"SHAKES_RHYTHM_PATH"`
}

// AudioConfig contains tone and output device settings.
type AudioConfig struct {
	Frequency  float64       `yaml:"frequency" env:"SHAKES_AUDIO_FREQUENCY" envDefault:"70"`
	SampleRate int           `yaml:"sample_rate" env:"SHAKES_AUDIO_SAMPLE_RATE" envDefault:"44100"`
	Volume     float64       `yaml:"volume" env:"SHAKES_AUDIO_VOLUME" envDefault:"1.0"`
	BufferSize time.Duration `yaml:"buffer_size" env:"SHAKES_AUDIO_BUFFER_SIZE" envDefault:"50ms"`
	// Output writes a WAV file instead of using the speaker when set
	Output string `yaml:"output" env:"SHAKES_AUDIO_OUTPUT"`
}

// CacheConfig contains tone cache settings.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" env:"SHAKES_CACHE_ENABLED" envDefault:"true"`
	Dir      string        `yaml:"dir" env:"SHAKES_CACHE_DIR"`
	MemoryMB int           `yaml:"memory_mb" env:"SHAKES_CACHE_MEMORY_MB" envDefault:"16"`
	DiskMB   int           `yaml:"disk_mb" env:"SHAKES_CACHE_DISK_MB" envDefault:"128"`
	MaxAge   time.Duration `yaml:"max_age" env:"SHAKES_CACHE_MAX_AGE" envDefault:"720h"`
}

// SpeechConfig contains speech capture settings.
type SpeechConfig struct {
	APIKey            string        `yaml:"api_key" env:"SHAKES_SPEECH_API_KEY"`
	Language          string        `yaml:"language" env:"SHAKES_SPEECH_LANGUAGE" envDefault:"en-US"`
	Endpoint          string        `yaml:"endpoint" env:"SHAKES_SPEECH_ENDPOINT"`
	Recorder          string        `yaml:"recorder" env:"SHAKES_SPEECH_RECORDER" envDefault:"arecord"`
	RecordDuration    time.Duration `yaml:"record_duration" env:"SHAKES_SPEECH_RECORD_DURATION" envDefault:"5s"`
	SampleRate        int           `yaml:"sample_rate" env:"SHAKES_SPEECH_SAMPLE_RATE" envDefault:"16000"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"SHAKES_SPEECH_REQUESTS_PER_MINUTE" envDefault:"30"`
	Timeout           time.Duration `yaml:"timeout" env:"SHAKES_SPEECH_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	cols := lexicon.DefaultColumns()
	return Config{
		Dataset: DatasetConfig{
			MoraColumn:    cols.Mora,
			PatternColumn: cols.Pattern,
			Table:         lexicon.DefaultTable,
		},
		Audio: AudioConfig{
			Frequency:  70,
			SampleRate: 44100,
			Volume:     1.0,
			BufferSize: 50 * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:  true,
			MemoryMB: 16,
			DiskMB:   128,
			MaxAge:   30 * 24 * time.Hour,
		},
		Speech: SpeechConfig{
			Language:          "en-US",
			Recorder:          "arecord",
			RecordDuration:    5 * time.Second,
			SampleRate:        16000,
			RequestsPerMinute: 30,
			Timeout:           30 * time.Second,
		},
		Suggestions: 3,
	}
}

// Columns returns the dataset column names.
func (c *DatasetConfig) Columns() lexicon.Columns {
	return lexicon.Columns{Mora: c.MoraColumn, Pattern: c.PatternColumn}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dataset.MoraColumn == "" || c.Dataset.PatternColumn == "" {
		return fmt.Errorf("dataset columns cannot be empty")
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}
	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("speech config: %w", err)
	}

	if c.Suggestions < 0 || c.Suggestions > 20 {
		return fmt.Errorf("suggestions must be between 0 and 20, got %d", c.Suggestions)
	}
	return nil
}

// Validate checks if the audio configuration is valid.
func (c *AudioConfig) Validate() error {
	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}

	if c.Frequency <= 0 || c.Frequency >= float64(c.SampleRate)/2 {
		return fmt.Errorf("frequency must be between 0 and %dHz, got %v", c.SampleRate/2, c.Frequency)
	}

	if c.Volume < 0.0 || c.Volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", c.Volume)
	}

	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size cannot be negative, got %v", c.BufferSize)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.MemoryMB < 1 || c.MemoryMB > 1024 {
		return fmt.Errorf("memory_mb must be between 1 and 1024, got %d", c.MemoryMB)
	}
	if c.DiskMB < 0 || c.DiskMB > 10240 {
		return fmt.Errorf("disk_mb must be between 0 and 10240, got %d", c.DiskMB)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("max_age cannot be negative, got %v", c.MaxAge)
	}
	return nil
}

// Validate checks if the speech configuration is valid.
func (c *SpeechConfig) Validate() error {
	if c.RecordDuration < time.Second || c.RecordDuration > time.Minute {
		return fmt.Errorf("record_duration must be between 1s and 1m, got %v", c.RecordDuration)
	}
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000, got %d", c.SampleRate)
	}
	if c.RequestsPerMinute < 1 {
		return fmt.Errorf("requests_per_minute must be positive, got %d", c.RequestsPerMinute)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be at least 1 second, got %v", c.Timeout)
	}
	return nil
}
