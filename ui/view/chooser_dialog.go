package view

import (
	"log/slog"

	"github.com/soocke/image-picker-go/domain/provider"
	"github.com/soocke/image-picker-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ChooserDialog is the modal-looking window offering the acquisition paths.
// All methods run on the Tk thread.
type ChooserDialog struct {
	logger  *slog.Logger
	win     *ToplevelWidget
	id      string
	dismiss func()
}

func NewChooserDialog(logger *slog.Logger) *ChooserDialog {
	return &ChooserDialog{logger: logger}
}

// ShowChooser opens the dialog for session id, replacing a stale one.
func (d *ChooserDialog) ShowChooser(id string, paths []provider.Path, choose func(provider.Path), dismiss func()) {
	if d.win != nil {
		d.destroy()
	}
	win := App.Toplevel(Borderwidth(2))
	win.WmTitle("Choose a source")
	d.win, d.id, d.dismiss = win, id, dismiss

	cols := max(len(paths), 1)
	prompt := win.TLabel(Txt("Where should the image come from?"), Style(theme.StyleAccentLabel))
	Grid(prompt, Row(0), Column(0), Columnspan(cols), Sticky("we"), Padx("2m"), Pady("2m"))
	for i, p := range paths {
		b := win.TButton(Txt(p.Label()), Style(theme.StylePrimaryButton), Command(func() { d.picked(id, p, choose) }))
		Grid(b, Row(1), Column(i), Sticky("we"), Padx("1m"), Pady("1m"))
	}
	cancel := win.TButton(Txt("Cancel [Esc]"), Style(theme.StyleDangerButton), Command(func() { d.dismissed(id) }))
	Grid(cancel, Row(2), Column(0), Columnspan(cols), Sticky("we"), Padx("1m"), Pady("1m"))

	Bind(win, "<Escape>", Command(func() { d.dismissed(id) }))
	WmProtocol(win.Window, "WM_DELETE_WINDOW", func() { d.dismissed(id) })
	WmAttributes(win.Window, "-topmost", 1)
	if d.logger != nil {
		d.logger.Debug("chooser shown", "session", id, "paths", len(paths))
	}
}

// HideChooser closes the dialog of session id without reporting a dismissal.
func (d *ChooserDialog) HideChooser(id string) {
	if d.win != nil && d.id == id {
		d.destroy()
	}
}

func (d *ChooserDialog) picked(id string, p provider.Path, choose func(provider.Path)) {
	if d.id != id {
		return
	}
	d.destroy()
	choose(p)
}

func (d *ChooserDialog) dismissed(id string) {
	if d.win == nil || d.id != id {
		return
	}
	fn := d.dismiss
	d.destroy()
	if fn != nil {
		fn()
	}
}

func (d *ChooserDialog) destroy() {
	if d.win != nil {
		Destroy(d.win)
	}
	d.win, d.id, d.dismiss = nil, "", nil
}
