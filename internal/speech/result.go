// Package speech captures a short utterance and turns it into text. The
// outcome of a capture is always a Result value; callers decide how a
// failure is presented.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrNoSpeech is reported when the recognizer heard nothing usable.
	ErrNoSpeech = errors.New("no speech recognized")

	// ErrUnavailable is reported when the recognition service cannot be
	// reached or rejects the request.
	ErrUnavailable = errors.New("speech service unavailable")
)

// Result is the outcome of one capture.
type Result struct {
	Text string
	Err  error
}

// OK returns a successful result.
func OK(text string) Result {
	return Result{Text: text}
}

// Failed returns a failed result.
func Failed(err error) Result {
	return Result{Err: err}
}

// Ok reports whether the capture produced text.
func (r Result) Ok() bool {
	return r.Err == nil
}

// Recognizer captures one utterance and transcribes it.
type Recognizer interface {
	Recognize(ctx context.Context) Result
}

// Source produces a WAV recording and returns its path. The caller owns the
// file and removes it when temporary is true.
type Source interface {
	Capture(ctx context.Context) (path string, temporary bool, err error)
}

// FileSource replays an existing recording.
type FileSource struct {
	Path string
}

// Capture returns the configured path.
func (s FileSource) Capture(context.Context) (string, bool, error) {
	if s.Path == "" {
		return "", false, errors.New("no recording path configured")
	}
	return s.Path, false, nil
}
