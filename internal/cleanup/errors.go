package cleanup

import (
	"errors"
	"fmt"
)

// Kind classifies workflow failures so callers can map them to HTTP statuses or exit codes.
type Kind string

const (
	// KindAuth covers bad credentials and unreachable servers. Terminal.
	KindAuth Kind = "auth"
	// KindFolder covers select and create failures. Terminal for the run.
	KindFolder Kind = "folder"
	// KindFetch is a per-message fetch failure. Recovered by skipping the message,
	// except in Inspect where the message is the whole request.
	KindFetch Kind = "fetch"
	// KindCopy is a per-message copy failure. Recovered by leaving the original untouched.
	KindCopy Kind = "copy"
	// KindExpunge is logged and never returned; flagged messages remain until a later expunge.
	KindExpunge Kind = "expunge"
	// KindInternal is anything else, including cancellation.
	KindInternal Kind = "internal"
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Errors that did not come from a workflow are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

var (
	errMissingDialer      = errors.New("dialer is required")
	errMissingCredentials = errors.New("email and password are required")
)

// internalError wraps unexpected failures, leaving workflow errors untouched.
func internalError(op string, err error) error {
	if err == nil {
		return nil
	}
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return err
	}
	return newError(KindInternal, op, err)
}
