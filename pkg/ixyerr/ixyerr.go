// Package ixyerr defines the single error taxonomy shared by every layer
// of the driver, from raw sysfs access up through the batched RX/TX path.
package ixyerr

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Kind classifies a failure so callers can branch on category without
// string matching.
type Kind int

const (
	// InvalidArg means a caller-supplied value was out of range or malformed.
	InvalidArg Kind = iota
	// InvalidState means the operation is not valid given the object's
	// current lifecycle state (e.g. use after close, double free).
	InvalidState
	// OutOfMemory means a resource pool (hugepages, a mempool) is exhausted.
	OutOfMemory
	// Unsupported means the request is outside what this driver implements.
	Unsupported
	// IO means a syscall against sysfs, procfs, or a mapped file failed.
	IO
	// Timeout means a bounded wait exceeded its deadline.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case InvalidArg:
		return "invalid_arg"
	case InvalidState:
		return "invalid_state"
	case OutOfMemory:
		return "out_of_memory"
	case Unsupported:
		return "unsupported"
	case IO:
		return "io"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, ixyerr.New(kind, "")) and errors.Is
// matching against the package-level sentinels below to work by Kind
// rather than by identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an Error with no underlying cause.
func New(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap constructs an Error that carries an underlying cause.
func Wrap(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Sentinels usable with errors.Is for the common kinds.
var (
	ErrInvalidArg   = New(InvalidArg, "")
	ErrInvalidState = New(InvalidState, "")
	ErrOutOfMemory  = New(OutOfMemory, "")
	ErrUnsupported  = New(Unsupported, "")
	ErrIO           = New(IO, "")
	ErrTimeout      = New(Timeout, "")
)

// FromErrno maps a syscall failure to a Kind and wraps it with context,
// mirroring the failure modes this driver actually hits: missing sysfs
// nodes, permission, and busy/locked device files. err need not actually
// be a unix.Errno; anything else is wrapped as IO.
func FromErrno(err error, context string) *Error {
	errno, ok := err.(unix.Errno)
	if !ok {
		return Wrap(IO, context, err)
	}
	switch errno {
	case unix.ENOENT, unix.ENODEV, unix.ENXIO:
		return Wrap(IO, context, errno)
	case unix.EACCES, unix.EPERM:
		return Wrap(IO, context, errno)
	case unix.EBUSY, unix.EAGAIN:
		return Wrap(InvalidState, context, errno)
	case unix.ENOMEM:
		return Wrap(OutOfMemory, context, errno)
	case unix.EINVAL:
		return Wrap(InvalidArg, context, errno)
	case unix.ENOSYS, unix.EOPNOTSUPP:
		return Wrap(Unsupported, context, errno)
	case unix.ETIMEDOUT:
		return Wrap(Timeout, context, errno)
	default:
		return Wrap(IO, context, errno)
	}
}
