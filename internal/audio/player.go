//go:build cgo && !nocgo
// +build cgo,!nocgo

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Player is a Device backed by an oto context. oto allows a single context
// per process, so create one Player and share it.
type Player struct {
	context *oto.Context

	sampleRate   int
	pollInterval time.Duration
	volume       float64

	mu     sync.Mutex
	closed bool
}

// PlayerConfig contains configuration for the speaker device.
type PlayerConfig struct {
	SampleRate   int           // 44100 or 48000 Hz only
	BufferSize   time.Duration // device buffer latency
	PollInterval time.Duration // how often Play checks for completion
	ReadyTimeout time.Duration
	Volume       float64 // 0.0 to 1.0
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate:   44100,
		BufferSize:   50 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		ReadyTimeout: 5 * time.Second,
		Volume:       1.0,
	}
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	// oto only supports these rates reliably across backends
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize < 0 {
		return errors.New("buffer size must not be negative")
	}
	if config.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", config.Volume)
	}
	return nil
}

// NewPlayer opens the default output device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   config.BufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, &DeviceError{Op: "open", Err: errors.Join(ErrDeviceUnavailable, err)}
	}

	timeout := config.ReadyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	select {
	case <-readyChan:
	case <-time.After(timeout):
		return nil, &DeviceError{
			Op:  "open",
			Err: fmt.Errorf("%w: context not ready after %v", ErrDeviceUnavailable, timeout),
		}
	}

	log.Debug("Audio device ready",
		"sample_rate", config.SampleRate,
		"buffer_size", config.BufferSize)

	return &Player{
		context:      ctx,
		sampleRate:   config.SampleRate,
		pollInterval: config.PollInterval,
		volume:       config.Volume,
	}, nil
}

// Play writes samples to the device and blocks until they have been heard.
func (p *Player) Play(samples []float32, sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return &DeviceError{Op: "play", Err: ErrDeviceClosed}
	}
	if sampleRate != p.sampleRate {
		return &DeviceError{
			Op:  "play",
			Err: fmt.Errorf("buffer sample rate %d does not match device rate %d", sampleRate, p.sampleRate),
		}
	}
	if len(samples) == 0 {
		return nil
	}

	// The reader owns the byte slice until the player is closed below.
	player := p.context.NewPlayer(bytes.NewReader(Float32LEBytes(samples)))
	defer player.Close() //nolint:errcheck

	player.SetVolume(p.volume)
	player.Play()

	for player.IsPlaying() || player.BufferedSize() > 0 {
		time.Sleep(p.pollInterval)
	}

	if err := player.Err(); err != nil {
		return &DeviceError{Op: "play", Err: err}
	}
	return nil
}

// SampleRate returns the device sample rate.
func (p *Player) SampleRate() int {
	return p.sampleRate
}

// Close marks the device closed. oto v3 contexts have no Close method; the
// context is released with the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}

var _ Device = (*Player)(nil)
