package ixyerr

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/sys/unix"
)

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(IO, "reading config", cause)

	if got := err.Error(); got == "" {
		t.Fatal("expected non-empty error string")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Errorf("Error() = %q, want it to include the cause %q", got, "boom")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected Unwrap chain to reach cause")
	}
}

func TestIsMatchesByKindNotIdentity(t *testing.T) {
	a := New(OutOfMemory, "pool exhausted")
	b := New(OutOfMemory, "different context entirely")

	if !errors.Is(a, b) {
		t.Errorf("expected two distinct Errors with the same Kind to match via Is")
	}
	if errors.Is(a, ErrIO) {
		t.Errorf("did not expect OutOfMemory to match the IO sentinel")
	}
}

func TestFromErrnoMapping(t *testing.T) {
	cases := []struct {
		errno unix.Errno
		want  Kind
	}{
		{unix.ENOMEM, OutOfMemory},
		{unix.EINVAL, InvalidArg},
		{unix.EBUSY, InvalidState},
		{unix.ENOSYS, Unsupported},
		{unix.ETIMEDOUT, Timeout},
		{unix.ENOENT, IO},
	}
	for _, c := range cases {
		got := FromErrno(c.errno, "ctx")
		if got.Kind != c.want {
			t.Errorf("FromErrno(%v) = %v, want %v", c.errno, got.Kind, c.want)
		}
	}
}

func TestFromErrnoFallsBackToIOForNonErrno(t *testing.T) {
	got := FromErrno(errors.New("not an errno"), "ctx")
	if got.Kind != IO {
		t.Errorf("FromErrno(non-errno) kind = %v, want IO", got.Kind)
	}
}

func TestKindString(t *testing.T) {
	if InvalidArg.String() != "invalid_arg" {
		t.Errorf("unexpected String() for InvalidArg: %s", InvalidArg.String())
	}
}
