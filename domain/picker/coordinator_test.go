package picker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/image-picker-go/domain/provider"
	"github.com/soocke/image-picker-go/domain/result"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeDelegate counts starts and runs fn for each of them.
type fakeDelegate struct {
	starts atomic.Int32
	ctxs   chan context.Context
	fn     func(ctx context.Context, report func(Report[string])) error
}

func newFakeDelegate(fn func(ctx context.Context, report func(Report[string])) error) *fakeDelegate {
	return &fakeDelegate{fn: fn, ctxs: make(chan context.Context, 8)}
}

func (d *fakeDelegate) Start(ctx context.Context, _ provider.Path, report func(Report[string])) error {
	d.starts.Add(1)
	d.ctxs <- ctx
	if d.fn == nil {
		return nil
	}
	return d.fn(ctx, report)
}

func succeedWith(v string) func(context.Context, func(Report[string])) error {
	return func(_ context.Context, report func(Report[string])) error {
		report(Success(v))
		return nil
	}
}

// pending never reports on its own.
func pending(context.Context, func(Report[string])) error { return nil }

type presentCall struct {
	info    SessionInfo
	paths   []provider.Path
	choose  func(provider.Path)
	dismiss func()
}

type fakeChooser struct {
	presented chan presentCall
	closes    atomic.Int32
}

func newFakeChooser() *fakeChooser { return &fakeChooser{presented: make(chan presentCall, 4)} }

func (c *fakeChooser) Present(s SessionInfo, paths []provider.Path, choose func(provider.Path), dismiss func()) {
	c.presented <- presentCall{info: s, paths: paths, choose: choose, dismiss: dismiss}
}

func (c *fakeChooser) Close(string) { c.closes.Add(1) }

type fakePermissions struct {
	checks  atomic.Int32
	granted bool
	err     error
}

func (p *fakePermissions) Check(_ context.Context, _ provider.Path, decide func(bool, error)) {
	p.checks.Add(1)
	go decide(p.granted, p.err)
}

type transitionRecorder struct {
	mu sync.Mutex
	ts []Transition
}

func (r *transitionRecorder) record(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ts = append(r.ts, t)
}

func (r *transitionRecorder) snapshot() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Transition(nil), r.ts...)
}

func (r *transitionRecorder) states() []State {
	var out []State
	for _, t := range r.snapshot() {
		out = append(out, t.To)
	}
	return out
}

// terminalCause returns the cause attached to the transition into Dismissed.
func (r *transitionRecorder) terminalCause() error {
	for _, t := range r.snapshot() {
		if t.To == StateDismissed {
			return t.Cause
		}
	}
	return nil
}

type harness struct {
	c         *Coordinator[string]
	rec       *transitionRecorder
	results   atomic.Int32
	dismisses atomic.Int32
	last      atomic.Pointer[result.Outcome[string]]
}

func newHarness(t *testing.T, mode provider.Mode, deps Deps[string]) *harness {
	t.Helper()
	h := &harness{rec: &transitionRecorder{}}
	h.c = NewCoordinator[string](discardLogger, mode, deps)
	h.c.AddListener(h.rec.record)
	h.c.OnResult(func(o result.Outcome[string]) {
		h.results.Add(1)
		h.last.Store(&o)
	})
	h.c.OnDismiss(func() { h.dismisses.Add(1) })
	t.Cleanup(h.c.Close)
	return h
}

func (h *harness) start(t *testing.T) result.Future[string] {
	t.Helper()
	f, err := h.c.Start(context.Background())
	require.NoError(t, err)
	require.NotNil(t, f)
	return f
}

// finish waits for both notifications and for the coordinator to go idle.
func finish(t *testing.T, h *harness, f result.Future[string]) result.Outcome[string] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o, err := f.Wait(ctx)
	require.NoError(t, err, "outcome not delivered")
	select {
	case <-f.Dismissed():
	case <-ctx.Done():
		t.Fatal("dismiss not notified")
	}
	waitForState(t, h.c, StateIdle, time.Second)
	return o
}

func waitForState(t *testing.T, c *Coordinator[string], expected State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.Current() == expected {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for state %v (got %v)", expected, c.Current())
}

func waitPresented(t *testing.T, ch *fakeChooser) presentCall {
	t.Helper()
	select {
	case call := <-ch.presented:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("chooser never presented")
		return presentCall{}
	}
}

func TestGallery_SkipsChooser(t *testing.T) {
	gallery := newFakeDelegate(succeedWith("P"))
	chooser := newFakeChooser()
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
		Chooser:   chooser,
	})

	o := finish(t, h, h.start(t))

	v, ok := o.Value()
	assert.True(t, ok)
	assert.Equal(t, "P", v)
	assert.Equal(t, int32(1), gallery.starts.Load())
	assert.Empty(t, chooser.presented)
	assert.NotContains(t, h.rec.states(), StateAwaitingChoice)
	assert.Equal(t, []State{StateDelegated, StateCompleted, StateDismissed, StateIdle}, h.rec.states())
	first := h.rec.snapshot()[0]
	assert.Equal(t, StateIdle, first.From)
	assert.Equal(t, provider.LibraryPick, first.Path)
}

func TestBoth_DismissBeforeChoice(t *testing.T) {
	gallery := newFakeDelegate(succeedWith("P"))
	camera := newFakeDelegate(succeedWith("C"))
	chooser := newFakeChooser()
	h := newHarness(t, provider.Both, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery, provider.CameraCapture: camera},
		Chooser:   chooser,
	})

	f := h.start(t)
	call := waitPresented(t, chooser)
	assert.Equal(t, []provider.Path{provider.LibraryPick, provider.CameraCapture}, call.paths)
	assert.Equal(t, StateAwaitingChoice, h.c.Current())
	call.dismiss()

	o := finish(t, h, f)
	assert.True(t, o.IsCancelled())
	assert.Equal(t, int32(1), h.dismisses.Load())
	assert.Equal(t, int32(1), h.results.Load())
	assert.Zero(t, gallery.starts.Load())
	assert.Zero(t, camera.starts.Load())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrUserCancelled)
	assert.Equal(t, []State{StateAwaitingChoice, StateDismissed, StateIdle}, h.rec.states())
}

func TestCamera_PermissionDenied(t *testing.T) {
	camera := newFakeDelegate(succeedWith("C"))
	perms := &fakePermissions{granted: false}
	h := newHarness(t, provider.Camera, Deps[string]{
		Delegates:   map[provider.Path]Delegate[string]{provider.CameraCapture: camera},
		Permissions: perms,
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.Zero(t, camera.starts.Load())
	assert.Equal(t, int32(1), perms.checks.Load())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrPermissionDenied)
	assert.NotContains(t, h.rec.states(), StateDelegated)
}

func TestCamera_PermissionError(t *testing.T) {
	camera := newFakeDelegate(succeedWith("C"))
	h := newHarness(t, provider.Camera, Deps[string]{
		Delegates:   map[provider.Path]Delegate[string]{provider.CameraCapture: camera},
		Permissions: &fakePermissions{granted: true, err: errors.New("prompt broke")},
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.Zero(t, camera.starts.Load())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrPermissionDenied)
}

func TestCamera_PermissionGranted(t *testing.T) {
	camera := newFakeDelegate(succeedWith("C"))
	h := newHarness(t, provider.Camera, Deps[string]{
		Delegates:   map[provider.Path]Delegate[string]{provider.CameraCapture: camera},
		Permissions: &fakePermissions{granted: true},
	})

	o := finish(t, h, h.start(t))
	v, ok := o.Value()
	assert.True(t, ok)
	assert.Equal(t, "C", v)
	assert.Equal(t, []State{StateAwaitingPermission, StateDelegated, StateCompleted, StateDismissed, StateIdle}, h.rec.states())
}

func TestBoth_PickLibrarySucceeds(t *testing.T) {
	gallery := newFakeDelegate(func(_ context.Context, report func(Report[string])) error {
		go func() {
			time.Sleep(5 * time.Millisecond)
			report(Success("P"))
		}()
		return nil
	})
	camera := newFakeDelegate(pending)
	chooser := newFakeChooser()
	h := newHarness(t, provider.Both, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery, provider.CameraCapture: camera},
		Chooser:   chooser,
	})

	f := h.start(t)
	waitPresented(t, chooser).choose(provider.LibraryPick)

	o := finish(t, h, f)
	v, ok := o.Value()
	require.True(t, ok)
	assert.Equal(t, "P", v)
	assert.Equal(t, int32(1), h.results.Load())
	last := h.last.Load()
	require.NotNil(t, last)
	lv, _ := last.Value()
	assert.Equal(t, "P", lv)
	assert.Equal(t, int32(1), gallery.starts.Load())
	assert.Zero(t, camera.starts.Load())
	assert.Equal(t, int32(1), h.dismisses.Load())
	assert.Equal(t, int32(1), chooser.closes.Load(), "chooser closes once when the path is chosen")
}

func TestBoth_ChoosingTwiceStartsOneDelegate(t *testing.T) {
	gallery := newFakeDelegate(pending)
	camera := newFakeDelegate(pending)
	chooser := newFakeChooser()
	h := newHarness(t, provider.Both, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery, provider.CameraCapture: camera},
		Chooser:   chooser,
	})

	f := h.start(t)
	call := waitPresented(t, chooser)
	call.choose(provider.LibraryPick)
	call.choose(provider.CameraCapture)
	call.choose(provider.LibraryPick)
	waitForState(t, h.c, StateDelegated, time.Second)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, int32(1), gallery.starts.Load()+camera.starts.Load())
	h.c.Abort()
	assert.True(t, finish(t, h, f).IsCancelled())
}

func TestStartWhileActive_Rejected(t *testing.T) {
	camera := newFakeDelegate(pending)
	h := newHarness(t, provider.Camera, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.CameraCapture: camera},
	})

	f := h.start(t)
	waitForState(t, h.c, StateDelegated, time.Second)

	second, err := h.c.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)
	assert.Nil(t, second)
	assert.Equal(t, int32(1), camera.starts.Load())
	assert.Equal(t, StateDelegated, h.c.Current(), "active session untouched")

	h.c.Abort()
	o := finish(t, h, f)
	assert.True(t, o.IsCancelled())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrAborted)
	ctx := <-camera.ctxs
	assert.Error(t, ctx.Err(), "delegate context cancelled on teardown")
}

func TestSequentialSessions(t *testing.T) {
	n := atomic.Int32{}
	gallery := newFakeDelegate(func(_ context.Context, report func(Report[string])) error {
		if n.Add(1) == 1 {
			report(Success("first"))
		} else {
			report(Success("second"))
		}
		return nil
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o1 := finish(t, h, h.start(t))
	o2 := finish(t, h, h.start(t))
	v1, _ := o1.Value()
	v2, _ := o2.Value()
	assert.Equal(t, "first", v1)
	assert.Equal(t, "second", v2)
	assert.Equal(t, int32(2), h.results.Load())
	assert.Equal(t, int32(2), h.dismisses.Load())
}

func TestDelegateStartError_NoCapableDelegate(t *testing.T) {
	gallery := newFakeDelegate(func(context.Context, func(Report[string])) error {
		return errors.New("no file manager")
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrNoCapableDelegate)
	assert.Equal(t, int32(1), h.results.Load())
}

func TestMissingDelegate_NoCapableDelegate(t *testing.T) {
	h := newHarness(t, provider.Camera, Deps[string]{})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrNoCapableDelegate)
	assert.NotContains(t, h.rec.states(), StateDelegated)
}

func TestBothWithoutChooser_NoCapableDelegate(t *testing.T) {
	gallery := newFakeDelegate(succeedWith("P"))
	h := newHarness(t, provider.Both, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.Zero(t, gallery.starts.Load())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrNoCapableDelegate)
}

func TestDelegateFailure_ReportedAsCancelled(t *testing.T) {
	boom := errors.New("decode failed")
	gallery := newFakeDelegate(func(_ context.Context, report func(Report[string])) error {
		report(Failure[string](boom))
		return nil
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	cause := h.rec.terminalCause()
	assert.ErrorIs(t, cause, ErrDelegateFailure)
	assert.ErrorIs(t, cause, boom)
}

func TestDelegateCancelled_ReportedAsCancelled(t *testing.T) {
	gallery := newFakeDelegate(func(_ context.Context, report func(Report[string])) error {
		report(Cancel[string]())
		return nil
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrUserCancelled)
}

func TestDoubleReport_DeliversOnce(t *testing.T) {
	gallery := newFakeDelegate(func(_ context.Context, report func(Report[string])) error {
		report(Success("one"))
		report(Success("two"))
		report(Cancel[string]())
		return nil
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o := finish(t, h, h.start(t))
	time.Sleep(20 * time.Millisecond)
	v, _ := o.Value()
	assert.Equal(t, "one", v)
	assert.Equal(t, int32(1), h.results.Load())
	assert.Equal(t, int32(1), h.dismisses.Load())
}

func TestDismissWhileDelegated_LateReportIgnored(t *testing.T) {
	reportCh := make(chan func(Report[string]), 1)
	gallery := newFakeDelegate(func(_ context.Context, report func(Report[string])) error {
		reportCh <- report
		return nil
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	f := h.start(t)
	waitForState(t, h.c, StateDelegated, time.Second)
	h.c.Dismiss()
	o := finish(t, h, f)
	assert.True(t, o.IsCancelled())

	(<-reportCh)(Success("late"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), h.results.Load())
	assert.Equal(t, StateIdle, h.c.Current())
}

func TestStartContextCancelAborts(t *testing.T) {
	camera := newFakeDelegate(pending)
	h := newHarness(t, provider.Camera, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.CameraCapture: camera},
	})

	ctx, cancel := context.WithCancel(context.Background())
	f, err := h.c.Start(ctx)
	require.NoError(t, err)
	waitForState(t, h.c, StateDelegated, time.Second)
	cancel()

	o := finish(t, h, f)
	assert.True(t, o.IsCancelled())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrAborted)
}

func TestStartWithCancelledContext_NoDelegate(t *testing.T) {
	gallery := newFakeDelegate(succeedWith("P"))
	chooser := newFakeChooser()
	for _, mode := range []provider.Mode{provider.Gallery, provider.Both} {
		h := newHarness(t, mode, Deps[string]{
			Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
			Chooser:   chooser,
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		f, err := h.c.Start(ctx)
		require.NoError(t, err)

		o := finish(t, h, f)
		assert.True(t, o.IsCancelled())
		assert.ErrorIs(t, h.rec.terminalCause(), ErrAborted)
		assert.Equal(t, int32(1), h.results.Load())
		assert.Equal(t, int32(1), h.dismisses.Load())
	}
	assert.Zero(t, gallery.starts.Load())
	assert.Empty(t, chooser.presented)
}

func TestPanickingResultListener_OthersStillNotified(t *testing.T) {
	gallery := newFakeDelegate(succeedWith("P"))
	c := NewCoordinator[string](discardLogger, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})
	t.Cleanup(c.Close)
	var results, dismisses atomic.Int32
	c.OnResult(func(result.Outcome[string]) { panic("listener exploded") })
	c.OnResult(func(o result.Outcome[string]) {
		if _, ok := o.Value(); ok {
			results.Add(1)
		}
	})
	c.OnDismiss(func() { panic("dismiss exploded") })
	c.OnDismiss(func() { dismisses.Add(1) })

	f, err := c.Start(context.Background())
	require.NoError(t, err)
	select {
	case <-f.Dismissed():
	case <-time.After(2 * time.Second):
		t.Fatal("dismiss not notified")
	}
	waitForState(t, c, StateIdle, time.Second)
	assert.Equal(t, int32(1), results.Load())
	assert.Equal(t, int32(1), dismisses.Load())

	// The coordinator keeps serving sessions.
	f, err = c.Start(context.Background())
	require.NoError(t, err)
	<-f.Dismissed()
	waitForState(t, c, StateIdle, time.Second)
	assert.Equal(t, int32(2), results.Load())
}

func TestAbortWhileAwaitingChoice_NoDelegate(t *testing.T) {
	gallery := newFakeDelegate(pending)
	chooser := newFakeChooser()
	h := newHarness(t, provider.Both, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
		Chooser:   chooser,
	})

	f := h.start(t)
	call := waitPresented(t, chooser)
	h.c.Abort()
	o := finish(t, h, f)
	assert.True(t, o.IsCancelled())
	assert.Equal(t, int32(1), chooser.closes.Load())

	call.choose(provider.LibraryPick)
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, gallery.starts.Load(), "no delegate after abort")
}

func TestPanickingDelegate_EndsSession(t *testing.T) {
	gallery := newFakeDelegate(func(context.Context, func(Report[string])) error {
		panic("delegate exploded")
	})
	h := newHarness(t, provider.Gallery, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.LibraryPick: gallery},
	})

	o := finish(t, h, h.start(t))
	assert.True(t, o.IsCancelled())
	assert.ErrorIs(t, h.rec.terminalCause(), ErrDelegateFailure)
}

func TestClose(t *testing.T) {
	camera := newFakeDelegate(pending)
	c := NewCoordinator[string](discardLogger, provider.Camera, Deps[string]{
		Delegates: map[provider.Path]Delegate[string]{provider.CameraCapture: camera},
	})
	f, err := c.Start(context.Background())
	require.NoError(t, err)
	c.Close()

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("close should cancel the active session")
	}
	o, _ := f.Outcome()
	assert.True(t, o.IsCancelled())
	<-f.Dismissed()

	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	c.Close()
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting-choice", StateAwaitingChoice.String())
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateDismissed.Terminal())
	assert.False(t, StateDelegated.Terminal())
}
