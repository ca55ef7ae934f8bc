//go:build !cgo || nocgo
// +build !cgo nocgo

package audio

import "time"

// Player stub for builds without CGO.
type Player struct{}

// PlayerConfig mirrors the cgo build so callers compile unchanged.
type PlayerConfig struct {
	SampleRate   int
	BufferSize   time.Duration
	PollInterval time.Duration
	ReadyTimeout time.Duration
	Volume       float64
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{SampleRate: 44100, PollInterval: 5 * time.Millisecond, Volume: 1.0}
}

// NewPlayer always fails in nocgo builds; use a WAVWriter instead.
func NewPlayer(PlayerConfig) (*Player, error) {
	return nil, &DeviceError{Op: "open", Err: ErrDeviceUnavailable}
}

func (p *Player) Play([]float32, int) error {
	return &DeviceError{Op: "play", Err: ErrDeviceUnavailable}
}

func (p *Player) SampleRate() int { return 0 }

func (p *Player) Close() error { return nil }

var _ Device = (*Player)(nil)
