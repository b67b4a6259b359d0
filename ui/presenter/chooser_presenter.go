package presenter

import (
	"github.com/soocke/image-picker-go/domain/picker"
	"github.com/soocke/image-picker-go/domain/provider"
)

// ChooserView shows and hides the path chooser. Both run on the UI thread.
type ChooserView interface {
	ShowChooser(id string, paths []provider.Path, choose func(provider.Path), dismiss func())
	HideChooser(id string)
}

// ChooserPresenter bridges the coordinator's chooser calls onto the UI thread.
type ChooserPresenter struct {
	ui   *Dispatcher
	view ChooserView
}

func NewChooserPresenter(ui *Dispatcher, view ChooserView) *ChooserPresenter {
	return &ChooserPresenter{ui: ui, view: view}
}

func (p *ChooserPresenter) Present(s picker.SessionInfo, paths []provider.Path, choose func(provider.Path), dismiss func()) {
	if p == nil || p.view == nil {
		dismiss()
		return
	}
	if !p.ui.Post(func() { p.view.ShowChooser(s.ID, paths, choose, dismiss) }) {
		dismiss()
	}
}

func (p *ChooserPresenter) Close(id string) {
	if p == nil || p.view == nil {
		return
	}
	p.ui.Post(func() { p.view.HideChooser(id) })
}

var _ picker.Chooser = (*ChooserPresenter)(nil)
