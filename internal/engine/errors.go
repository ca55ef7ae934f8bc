package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecognizer is returned by Listen when no speech recognizer is
	// configured.
	ErrNoRecognizer = errors.New("no speech recognizer configured")

	// ErrEmptyInput indicates there was nothing to translate.
	ErrEmptyInput = errors.New("no text to translate")
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// ErrorCodeDataset marks a lexicon or rhythm table that could not be loaded.
	ErrorCodeDataset ErrorCode = "DATASET"

	// ErrorCodeAudioDevice marks an output device failure.
	ErrorCodeAudioDevice ErrorCode = "AUDIO_DEVICE"

	// ErrorCodeSpeechCapture marks a failed recording or transcription.
	ErrorCodeSpeechCapture ErrorCode = "SPEECH_CAPTURE"

	// ErrorCodeInvalidInput marks unusable caller input.
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error carries a code alongside the underlying cause
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new engine error
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// IsFatal reports whether the engine cannot continue. A broken dataset is
// fatal; a device failure only aborts the render in flight.
func (e *Error) IsFatal() bool {
	return e.Code == ErrorCodeDataset
}

// IsRetryable reports whether a fresh call may succeed.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeAudioDevice,
		ErrorCodeSpeechCapture:
		return true
	default:
		return false
	}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
