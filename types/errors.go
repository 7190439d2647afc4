package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies split service errors for reply mapping.
type ErrorKind string

const (
	// ErrorKindValidation indicates bad user input (missing file, bad extension, empty name)
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindIO indicates a save/read/write/delete failure
	ErrorKindIO ErrorKind = "io"
	// ErrorKindProbe indicates the media duration could not be determined
	ErrorKindProbe ErrorKind = "probe"
	// ErrorKindSegment indicates the stream-copy tool failed for a segment
	ErrorKindSegment ErrorKind = "segment"
	// ErrorKindNotFound indicates a requested folder or file is absent
	ErrorKindNotFound ErrorKind = "not_found"
	// ErrorKindConflict indicates the job is already running
	ErrorKindConflict ErrorKind = "conflict"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrJobInFlight      = errors.New("job already in progress")
	ErrInvalidExtension = errors.New("invalid file type")
	ErrEmptyFilename    = errors.New("no selected file")
	ErrNoDuration       = errors.New("no duration found in media file")
	ErrInsufficientDisk = errors.New("insufficient disk space")
)

// SplitError carries the kind and operation of a failure.
type SplitError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Op, e.Err)
}

func (e *SplitError) Unwrap() error {
	return e.Err
}

func NewSplitError(kind ErrorKind, op string, err error) *SplitError {
	return &SplitError{Kind: kind, Op: op, Err: err}
}

func ValidationError(op string, err error) *SplitError {
	return NewSplitError(ErrorKindValidation, op, err)
}

func IOError(op string, err error) *SplitError {
	return NewSplitError(ErrorKindIO, op, err)
}

func ProbeError(op string, err error) *SplitError {
	return NewSplitError(ErrorKindProbe, op, err)
}

func SegmentError(op string, err error) *SplitError {
	return NewSplitError(ErrorKindSegment, op, err)
}

func NotFoundError(op string, err error) *SplitError {
	return NewSplitError(ErrorKindNotFound, op, err)
}

func ConflictError(op string, err error) *SplitError {
	return NewSplitError(ErrorKindConflict, op, err)
}

// KindOf returns the kind of err, ErrorKindIO when err is not a SplitError.
func KindOf(err error) ErrorKind {
	var sErr *SplitError
	if errors.As(err, &sErr) {
		return sErr.Kind
	}
	return ErrorKindIO
}
