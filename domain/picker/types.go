package picker

import (
	"context"
	"fmt"

	"github.com/soocke/image-picker-go/domain/provider"
)

// State enumerates the lifecycle states of a chooser session.
type State int

const (
	StateIdle State = iota
	StateAwaitingChoice
	StateAwaitingPermission
	StateDelegated
	StateCompleted
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingChoice:
		return "awaiting-choice"
	case StateAwaitingPermission:
		return "awaiting-permission"
	case StateDelegated:
		return "delegated"
	case StateCompleted:
		return "completed"
	case StateDismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further session transitions follow s.
func (s State) Terminal() bool { return s == StateCompleted || s == StateDismissed }

// ReportKind tags what a delegate reported.
type ReportKind int

const (
	ReportSuccess ReportKind = iota + 1
	ReportCancelled
	ReportFailed
)

func (k ReportKind) String() string {
	switch k {
	case ReportSuccess:
		return "success"
	case ReportCancelled:
		return "cancelled"
	case ReportFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Report is the raw outcome of one delegated acquisition.
type Report[T any] struct {
	Kind  ReportKind
	Value T
	Err   error
}

func Success[T any](v T) Report[T]       { return Report[T]{Kind: ReportSuccess, Value: v} }
func Cancel[T any]() Report[T]           { return Report[T]{Kind: ReportCancelled} }
func Failure[T any](err error) Report[T] { return Report[T]{Kind: ReportFailed, Err: err} }

// Delegate performs the actual library pick or camera capture.
//
// Start must not block: it kicks the acquisition off and returns. report is
// called once from any goroutine; extra calls are ignored. A non-nil error
// means the acquisition could not be started at all. ctx is cancelled when
// the session is torn down.
type Delegate[T any] interface {
	Start(ctx context.Context, path provider.Path, report func(Report[T])) error
}

// PermissionChecker is queried before a delegate whose path requires a
// sensitive capability. decide is called once from any goroutine.
type PermissionChecker interface {
	Check(ctx context.Context, path provider.Path, decide func(granted bool, err error))
}

// SessionInfo is the read-only description of a session handed to
// collaborators.
type SessionInfo struct {
	ID   string
	Mode provider.Mode
}

// Chooser presents the offered paths when more than one is available.
//
// Present must not block. choose and dismiss may be called from any
// goroutine; only the first of them counts. Close hides the surface for
// the given session id if it is still shown and must not call dismiss.
type Chooser interface {
	Present(s SessionInfo, paths []provider.Path, choose func(provider.Path), dismiss func())
	Close(id string)
}

// Transition describes one state change. Cause is set on transitions into
// a terminal state and names why the session ended.
type Transition struct {
	Session string
	From    State
	To      State
	Path    provider.Path
	Cause   error
}

func (t Transition) String() string {
	if t.Cause != nil {
		return fmt.Sprintf("%s: %s -> %s (%v)", t.Session, t.From, t.To, t.Cause)
	}
	return fmt.Sprintf("%s: %s -> %s", t.Session, t.From, t.To)
}

// StateListener is called on every transition, on the coordinator goroutine.
type StateListener func(Transition)

// Deps carries the collaborators of a Coordinator.
type Deps[T any] struct {
	Delegates   map[provider.Path]Delegate[T]
	Chooser     Chooser
	Permissions PermissionChecker // nil grants every path
}
