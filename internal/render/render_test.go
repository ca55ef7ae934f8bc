package render

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"

	"github.com/mjibson/go-dsp/fft"

	"github.com/shakes-lang/shakes/internal/audio"
	"github.com/shakes-lang/shakes/internal/cache"
	"github.com/shakes-lang/shakes/internal/rhythm"
)

func newTestRenderer(t *testing.T, opts Options) (*Renderer, *audio.MockDevice) {
	t.Helper()
	md := audio.NewMockDevice()
	r, err := New(md, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return r, md
}

func TestNewDefaults(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	if r.Frequency() != 70 || r.SampleRate() != 44100 {
		t.Errorf("defaults = %vHz/%d, want 70Hz/44100", r.Frequency(), r.SampleRate())
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name   string
		device audio.Device
		opts   Options
	}{
		{"nil device", nil, Options{}},
		{"negative frequency", audio.NewMockDevice(), Options{Frequency: -1}},
		{"negative rate", audio.NewMockDevice(), Options{SampleRate: -1}},
		{"above nyquist", audio.NewMockDevice(), Options{Frequency: 30000, SampleRate: 44100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.device, tt.opts); err == nil {
				t.Error("New succeeded, want error")
			}
		})
	}
}

func TestSynthesizeLength(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})

	tests := []struct {
		d    time.Duration
		want int
	}{
		{100 * time.Millisecond, 4410},
		{130 * time.Millisecond, 5733},
		{200 * time.Millisecond, 8820},
		{0, 0},
		{-time.Second, 0},
		// sub-millisecond parts are truncated
		{1500 * time.Microsecond, 44},
	}
	for _, tt := range tests {
		if got := len(r.Synthesize(tt.d)); got != tt.want {
			t.Errorf("len(Synthesize(%v)) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestSynthesizeWaveform(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})
	s := r.Synthesize(100 * time.Millisecond)

	if s[0] != 0 {
		t.Errorf("s[0] = %v, want 0", s[0])
	}
	for i := 0; i < 50; i++ {
		want := float32(math.Sin(2 * math.Pi * float64(i) * 70 / 44100))
		if math.Abs(float64(s[i]-want)) > 1e-6 {
			t.Fatalf("s[%d] = %v, want %v", i, s[i], want)
		}
	}
	for i, v := range s {
		if v > 1 || v < -1 {
			t.Fatalf("s[%d] = %v out of [-1, 1]", i, v)
		}
	}
}

func TestSynthesizeFrequency(t *testing.T) {
	r, _ := newTestRenderer(t, Options{})

	// One second gives 1Hz bins.
	s := r.Synthesize(time.Second)
	in := make([]float64, len(s))
	for i, v := range s {
		in[i] = float64(v)
	}
	spectrum := fft.FFTReal(in)

	peak, peakMag := 0, 0.0
	for k := 1; k < len(spectrum)/2; k++ {
		if m := cmplx.Abs(spectrum[k]); m > peakMag {
			peak, peakMag = k, m
		}
	}
	if peak != 70 {
		t.Errorf("spectral peak at %dHz, want 70Hz", peak)
	}
}

func TestRenderOrderAndDurations(t *testing.T) {
	r, md := newTestRenderer(t, Options{})
	table := rhythm.DefaultTable()

	pulses := table.Expand("s-S-x")
	if err := r.Render(pulses); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := md.Durations()
	want := []time.Duration{100 * time.Millisecond, 180 * time.Millisecond, 100 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("played %d buffers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("buffer %d = %v, want %v", i, got[i], want[i])
		}
	}
	for _, b := range md.Buffers() {
		if b.SampleRate != 44100 {
			t.Errorf("buffer sample rate = %d, want 44100", b.SampleRate)
		}
	}
}

func TestRenderEmpty(t *testing.T) {
	r, md := newTestRenderer(t, Options{})
	if err := r.Render(nil); err != nil {
		t.Fatal(err)
	}
	if n := len(md.Buffers()); n != 0 {
		t.Errorf("played %d buffers for no pulses", n)
	}
}

func TestRenderDeviceFailureAborts(t *testing.T) {
	r, md := newTestRenderer(t, Options{})
	md.FailAfter(1)

	err := r.Render(rhythm.DefaultTable().Expand("s-m-S"))
	var de *audio.DeviceError
	if !errors.As(err, &de) {
		t.Fatalf("Render = %v, want *audio.DeviceError", err)
	}
	if n := len(md.Buffers()); n != 1 {
		t.Errorf("played %d buffers before abort, want 1", n)
	}

	// A fresh call after the device recovers plays everything
	md.FailAfter(-1)
	md.Reset()
	if err := r.Render(rhythm.DefaultTable().Expand("s-m")); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if n := len(md.Buffers()); n != 2 {
		t.Errorf("retry played %d buffers, want 2", n)
	}
}

func TestToneUsesCache(t *testing.T) {
	tc, err := cache.NewToneCache(&cache.CacheConfig{MemoryCapacity: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	r, _ := newTestRenderer(t, Options{Cache: tc})

	first := r.Tone(150 * time.Millisecond)
	second := r.Tone(150 * time.Millisecond)
	if &first[0] != &second[0] {
		t.Error("second Tone call did not return the cached buffer")
	}

	stats := tc.Stats()
	if stats["total_hits"].(int64) != 1 || stats["total_misses"].(int64) != 1 {
		t.Errorf("cache stats = %v, want 1 hit and 1 miss", stats)
	}
}
