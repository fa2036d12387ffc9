/*
Package patcherrors classifies the ways a diff or apply run can fail, so
callers (the CLI in particular) can report a clear exit status instead of
an opaque wrapped error.

The teacher reports file-open failures by switching on os.IsExist /
os.IsNotExist / os.IsPermission in gosync/common.go's formatFileError; this
package follows the same switch-on-kind idea but at the level the spec
calls out in §7, wrapping the underlying cause with github.com/pkg/errors
so a %+v format still prints a stack trace during debugging.
*/
package patcherrors

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// Kind identifies one of the error classes named in §7.
type Kind int

const (
	// BadOption marks invalid CLI flags or option combinations.
	BadOption Kind = iota
	// IoError marks a failure reading or writing a file or stream.
	IoError
	// BaseMismatch marks a base file whose size or hash does not match
	// the patch's recorded preconditions.
	BaseMismatch
	// OutputMismatch marks output whose size or hash does not match the
	// patch's recorded postconditions.
	OutputMismatch
	// PatchMalformed marks a patch container that fails to parse or
	// whose commands do not tile the output.
	PatchMalformed
	// DiffVerificationFailed marks a diff whose self-check (replaying
	// the produced plan against base reproduces other) failed.
	DiffVerificationFailed
)

func (k Kind) String() string {
	switch k {
	case BadOption:
		return "bad option"
	case IoError:
		return "io error"
	case BaseMismatch:
		return "base mismatch"
	case OutputMismatch:
		return "output mismatch"
	case PatchMalformed:
		return "patch malformed"
	case DiffVerificationFailed:
		return "diff verification failed"
	default:
		return "unknown error"
	}
}

// Error pairs a Kind with the underlying cause.
type Error struct {
	Kind  Kind
	cause error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.cause.Error()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Wrap annotates cause with kind and message, recording a stack trace at
// the point of the call.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return nil
	}

	return &Error{Kind: kind, cause: pkgerrors.Wrap(cause, message)}
}

// New creates a new error of the given kind from a message alone.
func New(kind Kind, message string) error {
	return &Error{Kind: kind, cause: pkgerrors.New(message)}
}

// KindOf reports the Kind of err if it (or something it wraps) is an
// *Error, and ok=false otherwise.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return 0, false
}
