// Package render turns rhythm pulses into sound. Each pulse becomes a sine
// tone at a fixed carrier frequency, played to completion on an audio device
// before the next one starts.
package render

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/shakes-lang/shakes/internal/audio"
	"github.com/shakes-lang/shakes/internal/cache"
	"github.com/shakes-lang/shakes/internal/rhythm"
)

const (
	// DefaultFrequency is the tone carrier in Hz.
	DefaultFrequency = 70.0
	// DefaultSampleRate is the synthesis rate in samples per second.
	DefaultSampleRate = 44100
)

// Options configures a Renderer. Zero values take the defaults.
type Options struct {
	Frequency  float64
	SampleRate int
	// Cache memoises tone buffers; nil synthesizes every time.
	Cache *cache.ToneCache
}

// Renderer plays pulses on a device. A Renderer is safe for concurrent use;
// Render calls are serialized so pulses from two calls never interleave.
type Renderer struct {
	device     audio.Device
	frequency  float64
	sampleRate int
	cache      *cache.ToneCache

	mu sync.Mutex
}

// New returns a renderer that plays to device.
func New(device audio.Device, opts Options) (*Renderer, error) {
	if device == nil {
		return nil, errors.New("render: nil audio device")
	}
	if opts.Frequency == 0 {
		opts.Frequency = DefaultFrequency
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = DefaultSampleRate
	}
	if opts.Frequency < 0 || math.IsNaN(opts.Frequency) {
		return nil, fmt.Errorf("render: invalid frequency %v", opts.Frequency)
	}
	if opts.SampleRate < 0 {
		return nil, fmt.Errorf("render: invalid sample rate %d", opts.SampleRate)
	}
	// Nyquist
	if opts.Frequency >= float64(opts.SampleRate)/2 {
		return nil, fmt.Errorf("render: frequency %vHz not representable at %dHz", opts.Frequency, opts.SampleRate)
	}

	return &Renderer{
		device:     device,
		frequency:  opts.Frequency,
		sampleRate: opts.SampleRate,
		cache:      opts.Cache,
	}, nil
}

// Frequency returns the carrier frequency in Hz.
func (r *Renderer) Frequency() float64 { return r.frequency }

// SampleRate returns the synthesis rate.
func (r *Renderer) SampleRate() int { return r.sampleRate }

// SampleCount returns how many samples a tone of length d has. Durations are
// truncated to whole milliseconds.
func (r *Renderer) SampleCount(d time.Duration) int {
	ms := d.Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(int64(r.sampleRate) * ms / 1000)
}

// Synthesize returns a unit-amplitude sine tone of length d.
func (r *Renderer) Synthesize(d time.Duration) []float32 {
	n := r.SampleCount(d)
	samples := make([]float32, n)
	step := 2 * math.Pi * r.frequency / float64(r.sampleRate)
	for i := range samples {
		samples[i] = float32(math.Sin(step * float64(i)))
	}
	return samples
}

// Tone returns the buffer for d, from the cache when one is configured.
// The result must not be modified.
func (r *Renderer) Tone(d time.Duration) []float32 {
	if r.cache == nil {
		return r.Synthesize(d)
	}

	key := cache.ToneKey{
		Frequency:  r.frequency,
		SampleRate: r.sampleRate,
		Millis:     d.Milliseconds(),
	}
	if samples, ok := r.cache.Get(key); ok {
		return samples
	}

	samples := r.Synthesize(d)
	if err := r.cache.Put(key, samples); err != nil {
		log.Debug("Tone not cached", "key", key, "error", err)
	}
	return samples
}

// Render plays pulses in order, each to completion. Pulses whose symbol is
// not in the rhythm table still sound at their expanded duration. The first
// device failure aborts the remaining pulses and is returned as a
// *audio.DeviceError.
func (r *Renderer) Render(pulses []rhythm.Pulse) error {
	if len(pulses) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewString()
	start := time.Now()
	log.Debug("Render started", "id", id, "pulses", len(pulses), "total", rhythm.TotalDuration(pulses))

	for i, p := range pulses {
		if !p.Known {
			log.Debug("Unknown rhythm symbol, using default duration",
				"id", id, "symbol", p.Symbol, "duration", p.Duration)
		}
		if err := r.device.Play(r.Tone(p.Duration), r.sampleRate); err != nil {
			log.Error("Render aborted", "id", id, "pulse", i, "symbol", p.Symbol, "error", err)
			var de *audio.DeviceError
			if errors.As(err, &de) {
				return err
			}
			return &audio.DeviceError{Op: "play", Err: err}
		}
	}

	log.Debug("Render finished", "id", id, "elapsed", time.Since(start))
	return nil
}

// Close closes the underlying device and the tone cache.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.device.Close()
	if r.cache != nil {
		err = errors.Join(err, r.cache.Close())
	}
	return err
}
