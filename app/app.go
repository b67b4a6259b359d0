package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/image-picker-go/config"
	"github.com/soocke/image-picker-go/debug"
	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/ui/presenter"
	"github.com/soocke/image-picker-go/ui/theme"
	"github.com/soocke/image-picker-go/ui/view"
)

const (
	tick = 50 * time.Millisecond
)

type app struct {
	c       *AppContainer
	title   string
	width   int
	height  int
	afterID string
	out     io.Writer
	cancel  context.CancelFunc
	started bool
	exiting bool
	closed  bool
	code    int
}

// NewApp prepares the root window. out receives picked file paths in
// one-shot mode.
func NewApp(title string, width, height int, c *AppContainer, out io.Writer) *app {
	a := &app{c: c, title: title, width: width, height: height, out: out}
	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a
}

// Start builds the UI, runs the Tk event loop and returns the exit code.
func (a *app) Start() int {
	c := a.c
	theme.InitStyles(c.Config.DarkMode)
	overlay := view.NewRegionOverlay(c.Config, c.CfgPath, c.Region, c.Screen.Bounds, c.Logger)
	c.RootView.Build(view.Handlers{
		Pick:   c.PickPresenter.Pick,
		Cancel: c.PickPresenter.Cancel,
		Region: overlay.OpenOrFocus,
		Exit:   a.exitHandler,
	})
	c.RootView.ConfigPanel.OnApplied(a.onConfigApplied)
	c.PickPresenter.OnFinished(a.onFinished)
	c.Loop = presenter.NewLoop(c.UI, c.StatePresenter, c.StatsPresenter, a.scheduleUpdate)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	if c.Config.Debug {
		debug.StartGoroutineLogger(ctx, 5*time.Second, c.Logger)
		debug.StartMemLogger(ctx, 10*time.Second, c.Logger, a.debugAttrs)
	}

	a.scheduleUpdate()
	App.Wait()
	return a.code
}

func (a *app) update() {
	a.c.Loop.Tick()
	if a.exiting {
		a.exitHandler()
		return
	}
	// One-shot hosts get the picker straight away.
	if a.c.Config.ExitOnPick && !a.started {
		a.started = true
		a.c.PickPresenter.Pick()
	}
}

func (a *app) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.update() })
}

// onFinished ends the process in one-shot mode: the picked path goes to
// out, a cancellation exits non-zero.
func (a *app) onFinished(p *photo.Photo) {
	if !a.c.Config.ExitOnPick {
		return
	}
	if p == nil || p.Path == "" {
		a.code = 1
	} else if a.out != nil {
		fmt.Fprintln(a.out, p.Path)
	}
	// Widgets are still in use by the current tick.
	a.exiting = true
}

func (a *app) onConfigApplied(prev, next config.Config) {
	if prev.DarkMode != next.DarkMode {
		theme.InitStyles(next.DarkMode)
	}
	if !pickerChanged(prev, next) {
		return
	}
	if !a.c.Rebuild() {
		a.c.RootView.SetStatus("Settings apply after the current pick")
		return
	}
	a.c.RootView.SetStatus("Settings applied")
}

func (a *app) debugAttrs() []slog.Attr {
	hits, misses, entries := a.c.Thumbs.Stats()
	cs := a.c.Camera.Stats()
	ps := a.c.Stats.Snapshot()
	return []slog.Attr{
		slog.Uint64("thumb_hits", hits),
		slog.Uint64("thumb_misses", misses),
		slog.Int("thumb_entries", entries),
		slog.Uint64("captures", cs.Captures),
		slog.Duration("avg_capture", cs.AvgCapture),
		slog.Int("picks_delivered", ps.Delivered),
		slog.Int("picks_cancelled", ps.Cancelled),
	}
}

func (a *app) exitHandler() {
	if a.closed {
		return
	}
	a.closed = true
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
		a.afterID = ""
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.c.Close()
	Destroy(App)
}

// pickerChanged reports whether next differs from prev in a field the
// coordinator or its delegates were built from.
func pickerChanged(prev, next config.Config) bool {
	return prev.Provider != next.Provider ||
		prev.CameraPermission != next.CameraPermission ||
		prev.RememberPermission != next.RememberPermission ||
		prev.GalleryDir != next.GalleryDir ||
		!slices.Equal(prev.Extensions, next.Extensions) ||
		prev.CaptureDelayMs != next.CaptureDelayMs ||
		prev.CaptureDir != next.CaptureDir ||
		prev.SaveCaptures != next.SaveCaptures
}
