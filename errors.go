package liftplane

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrInvalidArgument is returned for programming errors: registering the
// same plane twice, setting CRTC_ID on a layer, or assigning a composition
// layer to an output it doesn't belong to.
var ErrInvalidArgument = errors.New("liftplane: invalid argument")

// ErrIncompatible is the plane applier's "this plane can't carry this
// layer" signal. The search engine treats it as a routine branch-rejection,
// not an error; the reuse cache panics on it, since a plane that carried a
// layer in the previous allocation must still accept it.
var ErrIncompatible = errors.New("liftplane: plane incompatible with layer")

// KernelError wraps a non-zero result from AtomicRequest.Commit.
type KernelError struct {
	Op  string
	Err error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("liftplane: %s: %s", e.Op, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

// Prunable reports whether the kernel rejected a candidate configuration
// rather than failing for some other reason. EINVAL/ERANGE/ENOSPC mean
// "this configuration is not supported" and are routine search signals;
// any other errno is a caller-visible failure.
func (e *KernelError) Prunable() bool {
	var errno unix.Errno
	if !errors.As(e.Err, &errno) {
		return false
	}
	switch errno {
	case unix.EINVAL, unix.ERANGE, unix.ENOSPC:
		return true
	default:
		return false
	}
}

// retryable reports whether the kernel asked the caller to simply try the
// same commit again.
func retryable(err error) bool {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == unix.EINTR || errno == unix.EAGAIN
}

func prunableErrno(err error) bool {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke.Prunable()
	}
	return false
}
