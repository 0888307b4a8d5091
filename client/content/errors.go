package content

import (
	"errors"
	"fmt"
)

var (
	// ErrIO indicates a read, write or open failure on a stream or file.
	ErrIO = errors.New("content i/o failure")
	// ErrOverflow indicates the content is too large to be held as a string.
	ErrOverflow = errors.New("content exceeds text size limit")
	// ErrEncoding indicates an invalid byte sequence for the requested encoding.
	ErrEncoding = errors.New("invalid byte sequence for encoding")
)

// Error wraps one of the sentinel kinds with the failing operation and its cause.
type Error struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", msg, e.Kind)
	}

	return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

// ioError wraps err as an ErrIO failure. Errors that already carry a kind
// are returned unchanged.
func ioError(op, path string, err error) error {
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}

	return &Error{Kind: ErrIO, Op: op, Path: path, Err: err}
}
