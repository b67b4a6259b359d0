package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/domain/picker"
	"github.com/soocke/image-picker-go/domain/provider"
)

var ErrNoScreen = errors.New("capture: no screen available")

// Options configures a camera capture.
type Options struct {
	Delay   time.Duration // countdown before the shot
	Save    bool          // write a PNG into Dir
	Dir     string
	Selects func() *image.Rectangle // capture region, nil or empty grabs the whole screen
}

// Delegate captures a still from the screen grabber and reports it as a
// photo. It exposes the latest frame and capture stats for the UI.
type Delegate struct {
	logger    *slog.Logger
	grab      Grabber
	opts      Options
	countdown atomic.Pointer[func(left int)]
	now       func() time.Time

	latest       atomic.Pointer[FrameSnapshot]
	captures     atomic.Uint64
	failed       atomic.Uint64
	cancelled    atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

func New(logger *slog.Logger, grab Grabber, opts Options) *Delegate {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	return &Delegate{logger: logger, grab: grab, opts: opts, now: time.Now}
}

// SetCountdown installs fn, called with the whole seconds left before the
// shot. fn runs on the capture goroutine.
func (d *Delegate) SetCountdown(fn func(left int)) {
	if fn == nil {
		d.countdown.Store(nil)
		return
	}
	d.countdown.Store(&fn)
}

func (d *Delegate) Start(ctx context.Context, path provider.Path, report func(picker.Report[*photo.Photo])) error {
	if path != provider.CameraCapture {
		return fmt.Errorf("%w: camera cannot serve %s", picker.ErrNoCapableDelegate, path)
	}
	if d.grab == nil || d.grab.Bounds().Empty() {
		return fmt.Errorf("%w: %w", picker.ErrNoCapableDelegate, ErrNoScreen)
	}
	go d.run(ctx, report)
	return nil
}

func (d *Delegate) run(ctx context.Context, report func(picker.Report[*photo.Photo])) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("capture panic", "error", r, "stack", string(debug.Stack()))
			d.failed.Add(1)
			report(picker.Failure[*photo.Photo](fmt.Errorf("capture panic: %v", r)))
		}
	}()
	if !d.wait(ctx) {
		d.cancelled.Add(1)
		report(picker.Cancel[*photo.Photo]())
		return
	}
	img, seq, err := d.shoot()
	if err != nil {
		d.failed.Add(1)
		d.logger.Error("capture failed", "error", err)
		report(picker.Failure[*photo.Photo](err))
		return
	}
	p := &photo.Photo{Image: img, Source: provider.CameraCapture, Format: "png", Taken: d.now()}
	if d.opts.Save && d.opts.Dir != "" {
		target := filepath.Join(d.opts.Dir, fmt.Sprintf("%s-%d.png", p.Name(), seq))
		if err := p.Save(target); err != nil {
			d.logger.Warn("capture save failed", "path", target, "error", err)
		}
	}
	if ctx.Err() != nil {
		d.cancelled.Add(1)
		report(picker.Cancel[*photo.Photo]())
		return
	}
	report(picker.Success(p))
}

// wait runs the countdown and reports false if ctx ends first.
func (d *Delegate) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if d.opts.Delay <= 0 {
		return true
	}
	deadline := time.NewTimer(d.opts.Delay)
	defer deadline.Stop()
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	left := int((d.opts.Delay + time.Second - 1) / time.Second)
	d.tick(left)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			d.tick(0)
			return true
		case <-tick.C:
			if left > 1 {
				left--
				d.tick(left)
			}
		}
	}
}

func (d *Delegate) tick(left int) {
	if fn := d.countdown.Load(); fn != nil {
		(*fn)(left)
	}
}

func (d *Delegate) shoot() (*image.RGBA, uint64, error) {
	start := time.Now()
	var img *image.RGBA
	var err error
	if r := d.region(); !r.Empty() {
		img, err = d.grab.GrabRect(r)
	} else {
		img, err = d.grab.Grab()
	}
	if err != nil {
		return nil, 0, fmt.Errorf("capture grab: %w", err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, 0, fmt.Errorf("capture grab: %w", photo.ErrEmptyImage)
	}
	d.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	d.captures.Add(1)
	seq := d.sequence.Add(1)
	d.latest.Store(&FrameSnapshot{Image: img, CapturedAt: d.now(), Sequence: seq})
	return img, seq, nil
}

// region clips the configured selection to the screen.
func (d *Delegate) region() image.Rectangle {
	if d.opts.Selects == nil {
		return image.Rectangle{}
	}
	r := d.opts.Selects()
	if r == nil {
		return image.Rectangle{}
	}
	return r.Canon().Intersect(d.grab.Bounds())
}

func (d *Delegate) LatestFrame() FrameSnapshot {
	snap := d.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (d *Delegate) Stats() CaptureStats {
	captures := d.captures.Load()
	total := d.captureNanos.Load()
	var avg time.Duration
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
	}
	snapshot := d.LatestFrame()
	age := time.Duration(0)
	if !snapshot.CapturedAt.IsZero() {
		age = time.Since(snapshot.CapturedAt)
	}
	return CaptureStats{
		Captures:       captures,
		Failed:         d.failed.Load(),
		Cancelled:      d.cancelled.Load(),
		AvgCapture:     avg,
		LastCapture:    snapshot.CapturedAt,
		LatestFrameAge: age,
		Sequence:       snapshot.Sequence,
	}
}

// LogStats writes the current stats at debug level.
func (d *Delegate) LogStats() {
	stats := d.Stats()
	d.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"failed", stats.Failed,
		"cancelled", stats.Cancelled,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}
