package chat

import (
	"errors"
	"fmt"
)

// ErrRequestFailed matches every failure returned by the dispatcher.
var ErrRequestFailed = errors.New("request failed")

// ErrorKind tells why a turn failed.
type ErrorKind string

const (
	// KindProvider covers transport, auth and malformed-response failures of the model call.
	KindProvider ErrorKind = "provider"
	// KindInternal covers faults inside classification or formatting.
	KindInternal ErrorKind = "internal"
)

// RequestFailedError is the single error type surfaced by the pipeline.
type RequestFailedError struct {
	Kind ErrorKind
	Err  error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrRequestFailed, e.Kind, e.Err)
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRequestFailed) hold.
func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// KindOf returns the kind of a pipeline error, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf.Kind
	}
	return KindInternal
}
