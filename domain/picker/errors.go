package picker

import "errors"

// Terminal causes. Every one of them reaches the caller as a Cancelled
// outcome; the distinction is kept for diagnostics only.
var (
	ErrPermissionDenied  = errors.New("picker: permission denied")
	ErrNoCapableDelegate = errors.New("picker: no capable delegate")
	ErrDelegateFailure   = errors.New("picker: delegate failure")
	ErrUserCancelled     = errors.New("picker: user cancelled")
	ErrAborted           = errors.New("picker: session aborted")
)

// Caller-facing errors returned by Start.
var (
	ErrSessionActive = errors.New("picker: a session is already active")
	ErrClosed        = errors.New("picker: coordinator closed")
)
