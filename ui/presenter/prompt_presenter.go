package presenter

import (
	"context"

	"github.com/soocke/image-picker-go/domain/gallery"
	"github.com/soocke/image-picker-go/domain/provider"
)

// PromptView runs the blocking native dialogs on the UI thread.
type PromptView interface {
	AskFile(title, dir string, exts []string) []string
	AskPermission(path provider.Path) bool
}

// PromptPresenter turns the blocking dialogs into the callback prompts the
// gallery delegate and the permission checker expect.
type PromptPresenter struct {
	ui   *Dispatcher
	view PromptView
}

func NewPromptPresenter(ui *Dispatcher, view PromptView) *PromptPresenter {
	return &PromptPresenter{ui: ui, view: view}
}

// AskFile satisfies gallery.Prompt.
func (p *PromptPresenter) AskFile(ctx context.Context, opts gallery.Options, done func([]string, error)) {
	posted := p.ui.Post(func() {
		if err := ctx.Err(); err != nil {
			done(nil, nil)
			return
		}
		done(p.view.AskFile(opts.Title, opts.Dir, opts.Extensions), nil)
	})
	if !posted {
		done(nil, nil)
	}
}

// AskPermission satisfies permission.Prompt.
func (p *PromptPresenter) AskPermission(ctx context.Context, path provider.Path, answer func(bool, error)) {
	posted := p.ui.Post(func() {
		if err := ctx.Err(); err != nil {
			answer(false, err)
			return
		}
		answer(p.view.AskPermission(path), nil)
	})
	if !posted {
		answer(false, context.Canceled)
	}
}
