package lexicon

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is wrapped by DatasetError when a required field is absent.
var ErrMissingColumn = errors.New("required column missing")

// DatasetError reports a dataset that could not be read or lacks the
// required fields. It is fatal to lexicon construction.
type DatasetError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *DatasetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *DatasetError) Unwrap() error {
	return e.Err
}

func newDatasetError(path, reason string, err error) *DatasetError {
	return &DatasetError{Path: path, Reason: reason, Err: err}
}

func asDatasetError(path string, err error) error {
	var de *DatasetError
	if errors.As(err, &de) {
		return de
	}
	return newDatasetError(path, "unreadable", err)
}
