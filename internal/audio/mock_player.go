package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrMockFailure is returned by a MockDevice configured to fail.
var ErrMockFailure = errors.New("mock device failure")

// Buffer is one Play call recorded by a MockDevice.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns how long the buffer would sound.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnPlay  func(b Buffer)
	OnClose func()
}

// MockDevice implements Device for testing purposes. It records every buffer
// instead of producing sound.
type MockDevice struct {
	mu      sync.Mutex
	buffers []Buffer
	closed  bool

	callbacks MockCallbacks

	// failAfter makes the device fail once this many buffers have played;
	// negative disables it.
	failAfter int
	realtime  bool

	playCount  atomic.Int64
	closeCount atomic.Int64
}

// NewMockDevice creates a mock device that never fails.
func NewMockDevice() *MockDevice {
	return &MockDevice{failAfter: -1}
}

// NewMockDeviceWithCallbacks creates a mock device with hooks.
func NewMockDeviceWithCallbacks(callbacks MockCallbacks) *MockDevice {
	md := NewMockDevice()
	md.callbacks = callbacks
	return md
}

// FailAfter makes Play fail once n buffers have been accepted.
func (md *MockDevice) FailAfter(n int) {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.failAfter = n
}

// SetRealtime makes Play sleep for the buffer duration.
func (md *MockDevice) SetRealtime(enabled bool) {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.realtime = enabled
}

// Play records the buffer.
func (md *MockDevice) Play(samples []float32, sampleRate int) error {
	md.mu.Lock()
	if md.closed {
		md.mu.Unlock()
		return &DeviceError{Op: "play", Err: ErrDeviceClosed}
	}
	if md.failAfter >= 0 && len(md.buffers) >= md.failAfter {
		md.mu.Unlock()
		return &DeviceError{Op: "play", Err: ErrMockFailure}
	}

	buf := Buffer{
		Samples:    append([]float32(nil), samples...),
		SampleRate: sampleRate,
	}
	md.buffers = append(md.buffers, buf)
	realtime := md.realtime
	onPlay := md.callbacks.OnPlay
	md.mu.Unlock()

	md.playCount.Add(1)
	if onPlay != nil {
		onPlay(buf)
	}
	if realtime {
		time.Sleep(buf.Duration())
	}
	return nil
}

// Close marks the device closed.
func (md *MockDevice) Close() error {
	md.mu.Lock()
	md.closed = true
	onClose := md.callbacks.OnClose
	md.mu.Unlock()

	md.closeCount.Add(1)
	if onClose != nil {
		onClose()
	}
	return nil
}

// Buffers returns a copy of the recorded buffers.
func (md *MockDevice) Buffers() []Buffer {
	md.mu.Lock()
	defer md.mu.Unlock()
	return append([]Buffer(nil), md.buffers...)
}

// Durations returns the duration of each recorded buffer.
func (md *MockDevice) Durations() []time.Duration {
	bufs := md.Buffers()
	out := make([]time.Duration, len(bufs))
	for i, b := range bufs {
		out[i] = b.Duration()
	}
	return out
}

// Reset drops recorded buffers and reopens the device.
func (md *MockDevice) Reset() {
	md.mu.Lock()
	defer md.mu.Unlock()
	md.buffers = nil
	md.closed = false
}

// MockDeviceMetrics contains counters for test assertions.
type MockDeviceMetrics struct {
	PlayCount  int64
	CloseCount int64
}

// GetMetrics returns the current counters.
func (md *MockDevice) GetMetrics() MockDeviceMetrics {
	return MockDeviceMetrics{
		PlayCount:  md.playCount.Load(),
		CloseCount: md.closeCount.Load(),
	}
}

var _ Device = (*MockDevice)(nil)
