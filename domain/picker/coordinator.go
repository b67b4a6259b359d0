package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/image-picker-go/domain/provider"
	"github.com/soocke/image-picker-go/domain/result"
)

// Coordinator drives chooser sessions from trigger to terminal state.
//
// All session state is owned by a single event-loop goroutine; exported
// methods post events and are safe from any goroutine. Listeners run on the
// loop goroutine and must not call Start or Close.
type Coordinator[T any] struct {
	logger    *slog.Logger
	mode      provider.Mode
	deps      Deps[T]
	state     atomic.Int32
	events    chan any
	done      chan struct{}
	closeOnce sync.Once

	// loop-owned
	session   *session[T]
	listeners []StateListener
	onResult  []result.Listener[T]
	onDismiss []result.DismissListener
}

type session[T any] struct {
	info      SessionInfo
	ch        *result.Channel[T]
	ctx       context.Context
	cancel    context.CancelFunc
	stopWatch func() bool
	paths     []provider.Path
	path      provider.Path
	presented bool
	delegated bool
	started   time.Time
}

// events
type evtStart[T any] struct {
	ctx   context.Context
	reply chan startReply[T]
}

type evtChoose struct {
	id   string
	path provider.Path
}

type evtPermission struct {
	id      string
	path    provider.Path
	granted bool
	err     error
}

type evtReport[T any] struct {
	id     string
	report Report[T]
}

type evtSurfaceClosed struct {
	id    string // empty targets the active session
	cause error
}

type evtAddResultListener[T any] struct{ l result.Listener[T] }

type (
	evtAddListener        struct{ l StateListener }
	evtAddDismissListener struct{ l result.DismissListener }
	evtClose              struct{}
)

type startReply[T any] struct {
	future result.Future[T]
	err    error
}

// NewCoordinator constructs a coordinator for mode and starts its event loop.
func NewCoordinator[T any](logger *slog.Logger, mode provider.Mode, deps Deps[T]) *Coordinator[T] {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator[T]{
		logger: logger,
		mode:   mode,
		deps:   deps,
		events: make(chan any, 64),
		done:   make(chan struct{}),
	}
	go c.loop()
	return c
}

func (c *Coordinator[T]) loop() {
	defer close(c.done)
	for ev := range c.events {
		if _, ok := ev.(evtClose); ok {
			if s := c.session; s != nil {
				c.dismiss(s, fmt.Errorf("%w: %w", ErrAborted, ErrClosed))
			}
			return
		}
		c.handle(ev)
	}
}

func (c *Coordinator[T]) handle(ev any) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("picker event panic", "error", r, "stack", string(debug.Stack()))
			c.failActive()
		}
	}()
	switch e := ev.(type) {
	case evtAddListener:
		c.listeners = append(c.listeners, e.l)
	case evtAddResultListener[T]:
		c.onResult = append(c.onResult, e.l)
	case evtAddDismissListener:
		c.onDismiss = append(c.onDismiss, e.l)
	case evtStart[T]:
		c.handleStart(e)
	case evtChoose:
		c.handleChoose(e)
	case evtPermission:
		c.handlePermission(e)
	case evtReport[T]:
		c.handleReport(e)
	case evtSurfaceClosed:
		if s := c.active(e.id); s != nil && !c.Current().Terminal() {
			c.dismiss(s, e.cause)
		}
	default:
		c.logger.Warn("picker unknown event", "type", fmt.Sprintf("%T", ev))
	}
}

func (c *Coordinator[T]) handleStart(e evtStart[T]) {
	if c.session != nil {
		e.reply <- startReply[T]{err: ErrSessionActive}
		return
	}
	parent := e.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &session[T]{
		info:    SessionInfo{ID: uuid.NewString(), Mode: c.mode},
		ch:      result.New[T](),
		ctx:     ctx,
		cancel:  cancel,
		paths:   provider.Paths(c.mode),
		started: time.Now(),
	}
	for _, l := range c.onResult {
		_ = s.ch.OnResult(l)
	}
	for _, l := range c.onDismiss {
		_ = s.ch.OnDismiss(l)
	}
	c.session = s
	id := s.info.ID
	c.logger.Info("picker session started", "session", id, "mode", c.mode.String())
	if parent.Err() != nil {
		// Aborted before anything was offered or started.
		c.dismiss(s, ErrAborted)
		e.reply <- startReply[T]{future: s.ch}
		return
	}
	s.stopWatch = context.AfterFunc(parent, func() {
		c.post(evtSurfaceClosed{id: id, cause: ErrAborted})
	})

	if !provider.NeedsChoice(c.mode) {
		c.begin(s, s.paths[0])
	} else if c.deps.Chooser == nil {
		c.complete(s, result.Cancelled[T](), fmt.Errorf("%w: no chooser", ErrNoCapableDelegate))
	} else {
		c.transition(s, StateAwaitingChoice, nil)
		s.presented = true
		c.deps.Chooser.Present(s.info, slices.Clone(s.paths),
			func(p provider.Path) { go c.post(evtChoose{id: id, path: p}) },
			func() { go c.post(evtSurfaceClosed{id: id, cause: ErrUserCancelled}) },
		)
	}
	e.reply <- startReply[T]{future: s.ch}
}

func (c *Coordinator[T]) handleChoose(e evtChoose) {
	s := c.active(e.id)
	if s == nil || c.Current() != StateAwaitingChoice {
		c.logger.Debug("picker choice ignored", "session", e.id, "path", e.path.String(), "state", c.Current().String())
		return
	}
	if !slices.Contains(s.paths, e.path) {
		c.logger.Warn("picker choice not offered", "session", e.id, "path", e.path.String())
		return
	}
	if s.presented {
		c.deps.Chooser.Close(s.info.ID)
		s.presented = false
	}
	c.begin(s, e.path)
}

// begin routes a chosen path through the permission check to its delegate.
func (c *Coordinator[T]) begin(s *session[T], path provider.Path) {
	if s.delegated {
		return
	}
	s.path = path
	d, ok := c.deps.Delegates[path]
	if !ok || d == nil {
		c.complete(s, result.Cancelled[T](), fmt.Errorf("%w: %s", ErrNoCapableDelegate, path))
		return
	}
	if path.RequiresPermission() && c.deps.Permissions != nil {
		c.transition(s, StateAwaitingPermission, nil)
		id := s.info.ID
		var once sync.Once
		c.deps.Permissions.Check(s.ctx, path, func(granted bool, err error) {
			once.Do(func() {
				go c.post(evtPermission{id: id, path: path, granted: granted, err: err})
			})
		})
		return
	}
	c.startDelegate(s, path, d)
}

func (c *Coordinator[T]) handlePermission(e evtPermission) {
	s := c.active(e.id)
	if s == nil || c.Current() != StateAwaitingPermission || s.path != e.path {
		return
	}
	switch {
	case e.err != nil:
		c.complete(s, result.Cancelled[T](), fmt.Errorf("%w: %w", ErrPermissionDenied, e.err))
	case !e.granted:
		c.complete(s, result.Cancelled[T](), ErrPermissionDenied)
	default:
		c.startDelegate(s, e.path, c.deps.Delegates[e.path])
	}
}

func (c *Coordinator[T]) startDelegate(s *session[T], path provider.Path, d Delegate[T]) {
	if s.delegated {
		return
	}
	s.delegated = true
	c.transition(s, StateDelegated, nil)
	id := s.info.ID
	var once sync.Once
	report := func(r Report[T]) {
		once.Do(func() { go c.post(evtReport[T]{id: id, report: r}) })
	}
	if err := d.Start(s.ctx, path, report); err != nil {
		if !errors.Is(err, ErrNoCapableDelegate) && !errors.Is(err, ErrPermissionDenied) {
			err = fmt.Errorf("%w: %w", ErrNoCapableDelegate, err)
		}
		c.complete(s, result.Cancelled[T](), err)
	}
}

func (c *Coordinator[T]) handleReport(e evtReport[T]) {
	s := c.active(e.id)
	if s == nil || c.Current() != StateDelegated {
		c.logger.Debug("picker stale report ignored", "session", e.id, "kind", e.report.Kind.String())
		return
	}
	switch e.report.Kind {
	case ReportSuccess:
		c.complete(s, result.Delivered(e.report.Value), nil)
	case ReportCancelled:
		c.complete(s, result.Cancelled[T](), ErrUserCancelled)
	default:
		err := ErrDelegateFailure
		if e.report.Err != nil {
			err = fmt.Errorf("%w: %w", ErrDelegateFailure, e.report.Err)
		}
		c.complete(s, result.Cancelled[T](), err)
	}
}

// complete delivers o and then closes the surface, so both notifications
// fire for every session.
func (c *Coordinator[T]) complete(s *session[T], o result.Outcome[T], cause error) {
	c.transition(s, StateCompleted, cause)
	if err := s.ch.Deliver(o); errors.Is(err, result.ErrAlreadyDelivered) {
		c.logger.Warn("picker duplicate delivery", "session", s.info.ID, "error", err)
	} else if err != nil {
		c.logger.Error("picker result listener failed", "session", s.info.ID, "error", err)
	}
	c.dismiss(s, cause)
}

// dismiss closes the presentation surface and tears the session down. A
// session that has not delivered yet is reported as Cancelled.
func (c *Coordinator[T]) dismiss(s *session[T], cause error) {
	if s.presented && c.deps.Chooser != nil {
		c.deps.Chooser.Close(s.info.ID)
		s.presented = false
	}
	c.transition(s, StateDismissed, cause)
	if !s.ch.Delivered() {
		if err := s.ch.Deliver(result.Cancelled[T]()); err != nil {
			c.logger.Error("picker result listener failed", "session", s.info.ID, "error", err)
		}
	}
	if err := s.ch.NotifyDismiss(); err != nil && !errors.Is(err, result.ErrAlreadyDismissed) {
		c.logger.Error("picker dismiss listener failed", "session", s.info.ID, "error", err)
	}

	o, _ := s.ch.Outcome()
	attrs := []any{"session", s.info.ID, "outcome", o.String(), "path", s.path.String(), "elapsed", time.Since(s.started)}
	if cause != nil {
		attrs = append(attrs, "cause", cause.Error())
	}
	c.logger.Info("picker session ended", attrs...)

	if s.stopWatch != nil {
		s.stopWatch()
	}
	s.cancel()
	c.session = nil
	c.transition(s, StateIdle, nil)
}

// failActive ends the active session after a collaborator panicked.
func (c *Coordinator[T]) failActive() {
	s := c.session
	if s == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("picker teardown panic", "error", r)
			c.session = nil
			c.state.Store(int32(StateIdle))
		}
	}()
	c.dismiss(s, ErrDelegateFailure)
}

func (c *Coordinator[T]) active(id string) *session[T] {
	s := c.session
	if s == nil || (id != "" && id != s.info.ID) {
		return nil
	}
	return s
}

func (c *Coordinator[T]) transition(s *session[T], next State, cause error) {
	prev := c.Current()
	if prev == next {
		return
	}
	c.state.Store(int32(next))
	c.logger.Debug("picker state transition", "session", s.info.ID, "from", prev.String(), "to", next.String())
	t := Transition{Session: s.info.ID, From: prev, To: next, Path: s.path, Cause: cause}
	for _, l := range c.listeners {
		l(t)
	}
}

// post hands ev to the loop. It reports false once the loop has stopped.
func (c *Coordinator[T]) post(ev any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case <-c.done:
		return false
	case c.events <- ev:
		return true
	}
}

// Public API

// Mode returns the configured provider mode.
func (c *Coordinator[T]) Mode() provider.Mode { return c.mode }

// Current returns the state of the active session, or StateIdle.
func (c *Coordinator[T]) Current() State { return State(c.state.Load()) }

// AddListener registers l for state transitions of later events.
func (c *Coordinator[T]) AddListener(l StateListener) {
	if l != nil {
		c.post(evtAddListener{l: l})
	}
}

// OnResult registers l on every session started after this call.
func (c *Coordinator[T]) OnResult(l result.Listener[T]) {
	if l != nil {
		c.post(evtAddResultListener[T]{l: l})
	}
}

// OnDismiss registers l on every session started after this call.
func (c *Coordinator[T]) OnDismiss(l result.DismissListener) {
	if l != nil {
		c.post(evtAddDismissListener{l: l})
	}
}

// Start begins a new session. While a session is active it returns
// ErrSessionActive and leaves that session alone. Cancelling ctx aborts
// the session.
func (c *Coordinator[T]) Start(ctx context.Context) (result.Future[T], error) {
	reply := make(chan startReply[T], 1)
	if !c.post(evtStart[T]{ctx: ctx, reply: reply}) {
		return nil, ErrClosed
	}
	select {
	case r := <-reply:
		return r.future, r.err
	case <-c.done:
		return nil, ErrClosed
	}
}

// Dismiss closes the presentation surface of the active session. A
// session without a result yet is reported as Cancelled.
func (c *Coordinator[T]) Dismiss() { c.post(evtSurfaceClosed{cause: ErrUserCancelled}) }

// Abort ends the active session without invoking any further delegate.
func (c *Coordinator[T]) Abort() { c.post(evtSurfaceClosed{cause: ErrAborted}) }

// Close aborts the active session and stops the loop. It blocks until the
// loop has exited.
func (c *Coordinator[T]) Close() {
	c.closeOnce.Do(func() {
		c.post(evtClose{})
	})
	<-c.done
}
