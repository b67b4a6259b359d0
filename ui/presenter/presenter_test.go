package presenter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soocke/image-picker-go/domain/gallery"
	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/domain/picker"
	"github.com/soocke/image-picker-go/domain/provider"
	"github.com/soocke/image-picker-go/domain/result"
	"github.com/soocke/image-picker-go/ui/model"
)

func TestDispatcher_DrainInOrder(t *testing.T) {
	d := &Dispatcher{}
	var got []int
	d.Post(func() { got = append(got, 1) })
	d.Post(func() {
		got = append(got, 2)
		d.Post(func() { got = append(got, 3) })
	})
	if n := d.Drain(); n != 2 {
		t.Fatalf("expected 2 drained, got %d", n)
	}
	if len(got) != 2 || d.Pending() != 1 {
		t.Fatalf("nested post should wait for the next drain: got=%v pending=%d", got, d.Pending())
	}
	d.Drain()
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestDispatcher_PanicContained(t *testing.T) {
	d := &Dispatcher{}
	ran := false
	d.Post(func() { panic("boom") })
	d.Post(func() { ran = true })
	d.Drain()
	if !ran {
		t.Fatal("panic in one func should not skip the rest")
	}
}

func TestDispatcher_Closed(t *testing.T) {
	d := &Dispatcher{}
	d.Post(func() { t.Fatal("dropped work ran") })
	d.Close()
	if d.Post(func() {}) {
		t.Fatal("post after close should fail")
	}
	if d.Drain() != 0 {
		t.Fatal("close should drop queued work")
	}
	var nilD *Dispatcher
	if nilD.Post(func() {}) || nilD.Drain() != 0 {
		t.Fatal("nil dispatcher should be inert")
	}
}

type mockChooserView struct {
	shown, hidden int
	lastID        string
	lastPaths     []provider.Path
}

func (v *mockChooserView) ShowChooser(id string, paths []provider.Path, _ func(provider.Path), _ func()) {
	v.shown++
	v.lastID, v.lastPaths = id, paths
}

func (v *mockChooserView) HideChooser(string) { v.hidden++ }

func TestChooserPresenter_RunsOnDrain(t *testing.T) {
	d := &Dispatcher{}
	view := &mockChooserView{}
	p := NewChooserPresenter(d, view)
	dismissed := 0
	p.Present(picker.SessionInfo{ID: "s1"}, provider.Paths(provider.Both), func(provider.Path) {}, func() { dismissed++ })
	p.Close("s1")
	if view.shown != 0 || view.hidden != 0 {
		t.Fatal("view touched before drain")
	}
	d.Drain()
	if view.shown != 1 || view.hidden != 1 || view.lastID != "s1" || len(view.lastPaths) != 2 {
		t.Fatalf("unexpected view calls %+v", view)
	}
	if dismissed != 0 {
		t.Fatal("dismiss should not fire")
	}

	d.Close()
	p.Present(picker.SessionInfo{ID: "s2"}, nil, func(provider.Path) {}, func() { dismissed++ })
	if dismissed != 1 {
		t.Fatal("present on a closed dispatcher should dismiss")
	}
}

type mockPromptView struct {
	files   []string
	granted bool
	asked   int
}

func (v *mockPromptView) AskFile(string, string, []string) []string { v.asked++; return v.files }
func (v *mockPromptView) AskPermission(provider.Path) bool          { v.asked++; return v.granted }

func TestPromptPresenter(t *testing.T) {
	d := &Dispatcher{}
	view := &mockPromptView{files: []string{"/a.png"}, granted: true}
	p := NewPromptPresenter(d, view)

	var files []string
	p.AskFile(context.Background(), gallery.Options{}, func(f []string, _ error) { files = f })
	var granted bool
	p.AskPermission(context.Background(), provider.CameraCapture, func(g bool, _ error) { granted = g })
	d.Drain()
	if len(files) != 1 || !granted || view.asked != 2 {
		t.Fatalf("files=%v granted=%v asked=%d", files, granted, view.asked)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var permErr error
	p.AskPermission(ctx, provider.CameraCapture, func(_ bool, err error) { permErr = err })
	cancel()
	d.Drain()
	if !errors.Is(permErr, context.Canceled) || view.asked != 2 {
		t.Fatalf("cancelled prompt should not ask: err=%v asked=%d", permErr, view.asked)
	}
}

type mockPicker struct {
	starts, dismisses int
	err               error
}

func (m *mockPicker) Start(context.Context) (result.Future[*photo.Photo], error) {
	m.starts++
	if m.err != nil {
		return nil, m.err
	}
	return result.New[*photo.Photo](), nil
}

func (m *mockPicker) Dismiss() { m.dismisses++ }

type mockPickView struct {
	busy     bool
	editable bool
	status   string
	shown    *photo.Photo
}

func (v *mockPickView) SetBusy(b bool)           { v.busy = b }
func (v *mockPickView) ShowPhoto(p *photo.Photo) { v.shown = p }
func (v *mockPickView) SetStatus(s string)       { v.status = s }
func (v *mockPickView) ConfigEditable(b bool)    { v.editable = b }

func TestPickPresenter_Lifecycle(t *testing.T) {
	d := &Dispatcher{}
	m := &model.PickModel{}
	stats := model.NewStatsModel()
	pk := &mockPicker{}
	view := &mockPickView{editable: true}
	p := NewPickPresenter(nil, m, pk, stats, view, d)
	var picked *photo.Photo
	finished := 0
	p.OnFinished(func(ph *photo.Photo) { picked = ph; finished++ })

	p.Pick()
	p.Pick() // busy, ignored
	if pk.starts != 1 || !m.Busy() || !view.busy || view.editable {
		t.Fatalf("pick failed: starts=%d busy=%v view=%+v", pk.starts, m.Busy(), view)
	}

	ph := &photo.Photo{Path: "/pics/a.png", Source: provider.LibraryPick}
	p.OnOutcome(result.Delivered(ph))
	p.OnDismiss()
	d.Drain()
	if m.Busy() || view.busy || !view.editable || view.shown != ph || picked != ph || m.Last() != ph {
		t.Fatalf("outcome not reflected: busy=%v view=%+v picked=%v", m.Busy(), view, picked)
	}
	if view.status != "Picked a.png" || finished != 1 {
		t.Fatalf("status %q finished=%d", view.status, finished)
	}
	if s := stats.Snapshot(); s.Delivered != 1 || s.Library != 1 {
		t.Fatalf("stats %+v", s)
	}

	p.Cancel() // idle, ignored
	if pk.dismisses != 0 {
		t.Fatal("cancel while idle should not dismiss")
	}
}

func TestPickPresenter_CancelAndErrors(t *testing.T) {
	d := &Dispatcher{}
	m := &model.PickModel{}
	stats := model.NewStatsModel()
	pk := &mockPicker{}
	view := &mockPickView{}
	p := NewPickPresenter(nil, m, pk, stats, view, d)
	finished := 0
	p.OnFinished(func(ph *photo.Photo) {
		if ph != nil {
			t.Fatal("cancelled session should finish with nil")
		}
		finished++
	})

	p.Pick()
	p.Cancel()
	if pk.dismisses != 1 {
		t.Fatal("cancel should dismiss the running session")
	}
	p.OnOutcome(result.Cancelled[*photo.Photo]())
	p.OnDismiss()
	d.Drain()
	if view.status != "Cancelled" || m.Busy() || finished != 1 {
		t.Fatalf("status=%q busy=%v finished=%d", view.status, m.Busy(), finished)
	}
	if s := stats.Snapshot(); s.Cancelled != 1 || s.Delivered != 0 {
		t.Fatalf("stats %+v", s)
	}

	pk.err = picker.ErrSessionActive
	p.Pick()
	if m.Busy() || view.status != "A pick is already running" {
		t.Fatalf("rejected start should leave presenter idle: busy=%v status=%q", m.Busy(), view.status)
	}
	pk.err = picker.ErrClosed
	p.Pick()
	if view.status != "Picker unavailable" {
		t.Fatalf("status %q", view.status)
	}

	next := &mockPicker{}
	p.SetPicker(next)
	p.Pick()
	if next.starts != 1 || pk.starts != 3 {
		t.Fatalf("swapped picker not used: next=%d old=%d", next.starts, pk.starts)
	}
}

type mockStateView struct {
	labels []string
}

func (v *mockStateView) SetStateLabel(s string) { v.labels = append(v.labels, s) }

func TestStatePresenter_ReflectsLatest(t *testing.T) {
	view := &mockStateView{}
	p := NewStatePresenter(view)
	now := time.Now()

	p.Tick(now)
	if len(view.labels) != 0 {
		t.Fatal("no transitions, no label")
	}
	p.OnTransition(picker.Transition{From: picker.StateIdle, To: picker.StateAwaitingChoice})
	p.OnTransition(picker.Transition{From: picker.StateAwaitingChoice, To: picker.StateDelegated})
	p.Tick(now)
	if len(view.labels) != 1 || view.labels[0] != "State: delegated" {
		t.Fatalf("labels %v", view.labels)
	}

	p.OnTransition(picker.Transition{To: picker.StateCompleted, Cause: picker.ErrPermissionDenied})
	p.OnTransition(picker.Transition{To: picker.StateDismissed, Cause: picker.ErrPermissionDenied})
	p.OnTransition(picker.Transition{To: picker.StateIdle})
	p.Tick(now)
	if got := view.labels[len(view.labels)-1]; got != "State: idle (permission denied)" {
		t.Fatalf("label %q", got)
	}

	p.OnTransition(picker.Transition{To: picker.StateIdle, Cause: picker.ErrPermissionDenied})
	p.Tick(now)
	if len(view.labels) != 2 {
		t.Fatalf("unchanged label should not be pushed again: %v", view.labels)
	}
}

type mockStatsView struct {
	calls int
	last  model.PickStats
}

func (v *mockStatsView) SetStats(s model.PickStats) { v.calls++; v.last = s }

func TestStatsPresenter_PushesOnChange(t *testing.T) {
	stats := model.NewStatsModel()
	busy := &model.PickModel{}
	view := &mockStatsView{}
	p := NewStatsPresenter(stats, busy, view)
	base := time.Unix(0, 0)

	p.Tick(base)
	p.Tick(base.Add(time.Second))
	if view.calls != 0 {
		t.Fatalf("idle zero stats should not push, got %d", view.calls)
	}
	busy.SetBusy(true)
	p.Tick(base.Add(2 * time.Second))
	p.Tick(base.Add(3 * time.Second))
	if view.calls != 1 || view.last.Session != time.Second {
		t.Fatalf("calls=%d last=%+v", view.calls, view.last)
	}
}

func TestLoop_NilSafe(t *testing.T) {
	var l *Loop
	l.Tick()
	scheduled := 0
	d := &Dispatcher{}
	ran := false
	d.Post(func() { ran = true })
	NewLoop(d, nil, nil, func() { scheduled++ }).Tick()
	if !ran || scheduled != 1 {
		t.Fatalf("ran=%v scheduled=%d", ran, scheduled)
	}
}
