package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDeviceUnavailable indicates the output device cannot be opened.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// ErrDeviceClosed is returned by Play after Close.
var ErrDeviceClosed = errors.New("audio device closed")

// Device plays mono float32 sample buffers.
//
// Play must not return until the buffer has finished playing (or has been
// fully written, for offline devices). Devices are single-owner: callers
// serialize their own Play calls.
type Device interface {
	Play(samples []float32, sampleRate int) error
	Close() error
}

// DeviceError reports a device that could not be opened or a buffer that
// could not be played. It aborts the render call that produced it; a fresh
// call may be retried.
type DeviceError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Float32LEBytes encodes samples as little-endian IEEE-754 floats, the
// layout oto expects for FormatFloat32LE.
func Float32LEBytes(samples []float32) []byte {
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	return buf
}

// Float32ToPCM16 converts samples in [-1, 1] to signed 16-bit values,
// clamping anything outside that range.
func Float32ToPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int(s * math.MaxInt16)
	}
	return out
}
