package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth  = 16
	wavPCMFormat = 1
)

// WAVWriter is an offline Device that appends every buffer to a single mono
// 16-bit PCM WAV file. The file is finalized on Close.
type WAVWriter struct {
	mu         sync.Mutex
	path       string
	file       *os.File
	enc        *wav.Encoder
	sampleRate int
	frames     int
}

// NewWAVWriter creates (or truncates) path. The sample rate is fixed by the
// first buffer played.
func NewWAVWriter(path string) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &DeviceError{Op: "open", Err: err}
	}
	return &WAVWriter{path: path, file: f}, nil
}

// Play appends samples to the file.
func (w *WAVWriter) Play(samples []float32, sampleRate int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return &DeviceError{Op: "play", Err: ErrDeviceClosed}
	}
	if sampleRate <= 0 {
		return &DeviceError{Op: "play", Err: fmt.Errorf("invalid sample rate %d", sampleRate)}
	}
	if w.enc == nil {
		w.sampleRate = sampleRate
		w.enc = wav.NewEncoder(w.file, sampleRate, wavBitDepth, 1, wavPCMFormat)
	} else if sampleRate != w.sampleRate {
		return &DeviceError{
			Op:  "play",
			Err: fmt.Errorf("buffer sample rate %d does not match file rate %d", sampleRate, w.sampleRate),
		}
	}

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           Float32ToPCM16(samples),
		SourceBitDepth: wavBitDepth,
	}
	if err := w.enc.Write(buf); err != nil {
		return &DeviceError{Op: "play", Err: err}
	}
	w.frames += len(samples)
	return nil
}

// Path returns the output file path.
func (w *WAVWriter) Path() string {
	return w.path
}

// Frames returns the number of samples written so far.
func (w *WAVWriter) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Close writes the WAV header and closes the file. A writer that never
// received a buffer produces an empty 44.1kHz file.
func (w *WAVWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	if w.enc == nil {
		// Write an empty data chunk so the header is complete.
		w.sampleRate = 44100
		w.enc = wav.NewEncoder(w.file, w.sampleRate, wavBitDepth, 1, wavPCMFormat)
		empty := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: w.sampleRate},
			SourceBitDepth: wavBitDepth,
		}
		if err := w.enc.Write(empty); err != nil {
			_ = w.file.Close()
			w.file = nil
			return &DeviceError{Op: "close", Err: err}
		}
	}

	encErr := w.enc.Close()
	fileErr := w.file.Close()
	w.file = nil

	if err := errors.Join(encErr, fileErr); err != nil {
		return &DeviceError{Op: "close", Err: err}
	}
	log.Debug("WAV file written", "path", w.path, "frames", w.frames, "sample_rate", w.sampleRate)
	return nil
}

// ReadWAV decodes a PCM WAV file into mono float32 samples in [-1, 1]. Only
// the first channel of multi-channel files is kept.
func ReadWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close() //nolint:errcheck

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = wavBitDepth
	}
	scale := float32(int(1) << (depth - 1))

	out := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		out = append(out, float32(buf.Data[i])/scale)
	}
	return out, buf.Format.SampleRate, nil
}

var _ Device = (*WAVWriter)(nil)
