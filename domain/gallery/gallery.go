package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/domain/picker"
	"github.com/soocke/image-picker-go/domain/provider"
)

var ErrUnsupportedType = errors.New("gallery: unsupported file type")

// Options configures the file prompt.
type Options struct {
	Title      string
	Dir        string
	Extensions []string
}

// Prompt shows a file selection surface and calls done once with the chosen
// files. An empty selection means the user backed out. Prompt must not block
// the caller.
type Prompt func(ctx context.Context, opts Options, done func(files []string, err error))

// Delegate performs library picks through a Prompt and decodes the chosen
// file off the caller's goroutine.
type Delegate struct {
	logger *slog.Logger
	prompt Prompt
	opts   Options
	load   func(string, provider.Path) (*photo.Photo, error)
}

func New(logger *slog.Logger, prompt Prompt, opts Options) *Delegate {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Title == "" {
		opts.Title = "Pick an image"
	}
	return &Delegate{logger: logger, prompt: prompt, opts: opts, load: photo.Load}
}

func (d *Delegate) Start(ctx context.Context, path provider.Path, report func(picker.Report[*photo.Photo])) error {
	if d == nil || d.prompt == nil {
		return fmt.Errorf("%w: no file prompt", picker.ErrNoCapableDelegate)
	}
	if path != provider.LibraryPick {
		return fmt.Errorf("%w: gallery cannot serve %s", picker.ErrNoCapableDelegate, path)
	}
	d.prompt(ctx, d.opts, func(files []string, err error) {
		go d.finish(ctx, files, err, report)
	})
	return nil
}

func (d *Delegate) finish(ctx context.Context, files []string, err error, report func(picker.Report[*photo.Photo])) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("gallery decode panic", "error", r, "stack", string(debug.Stack()))
			report(picker.Failure[*photo.Photo](fmt.Errorf("gallery panic: %v", r)))
		}
	}()
	switch {
	case ctx.Err() != nil:
		report(picker.Cancel[*photo.Photo]())
		return
	case err != nil:
		report(picker.Failure[*photo.Photo](fmt.Errorf("gallery prompt: %w", err)))
		return
	case len(files) == 0 || files[0] == "":
		d.logger.Debug("gallery selection empty")
		report(picker.Cancel[*photo.Photo]())
		return
	}
	file := files[0]
	if len(files) > 1 {
		d.logger.Debug("gallery multiple files, using first", "count", len(files))
	}
	if !photo.MatchExt(file, d.opts.Extensions) {
		report(picker.Failure[*photo.Photo](fmt.Errorf("%w: %s", ErrUnsupportedType, file)))
		return
	}
	p, lerr := d.load(file, provider.LibraryPick)
	if lerr != nil {
		d.logger.Warn("gallery decode failed", "file", file, "error", lerr)
		report(picker.Failure[*photo.Photo](lerr))
		return
	}
	if ctx.Err() != nil {
		report(picker.Cancel[*photo.Photo]())
		return
	}
	d.logger.Debug("gallery picked", "file", file, "bounds", p.Bounds().String())
	report(picker.Success(p))
}
