package view

import (
	"log/slog"

	"github.com/soocke/image-picker-go/config"
	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/ui/images"
	"github.com/soocke/image-picker-go/ui/model"
	"github.com/soocke/image-picker-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	thumbs  *images.Thumbnails

	// Subviews
	Stats       PickStats
	ConfigPanel ConfigPanel
	Preview     PhotoPreview

	// Widgets
	StateLabel  *TLabelWidget
	StatusLabel *LabelWidget
	pickBtn     *TButtonWidget
	cancelBtn   *TButtonWidget
	regionBtn   *ButtonWidget
}

// Handlers are the user actions the root view forwards.
type Handlers struct {
	Pick   func()
	Cancel func()
	Region func()
	Exit   func()
}

func NewRootView(cfg *config.Config, cfgPath string, thumbs *images.Thumbnails, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, thumbs: thumbs, logger: logger}
}

// Build constructs the layout. Handlers are invoked on user actions.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	// Row 0: state label, status label, buttons frame
	rv.StateLabel = TLabel(Txt("State: idle"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.StatusLabel = Label(Txt("Ready"), Anchor("w"))
	Grid(rv.StatusLabel, Row(0), Column(2), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	rv.pickBtn = TButton(Txt("Pick Image"), Style(theme.StylePrimaryButton), Command(h.Pick))
	Grid(rv.pickBtn, In(btnFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.cancelBtn = TButton(Txt("Cancel"), Style(theme.StyleDangerButton), Command(h.Cancel), State("disabled"))
	Grid(rv.cancelBtn, In(btnFrame), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.regionBtn = Button(Txt("Capture Region"), Command(h.Region))
	Grid(rv.regionBtn, In(btnFrame), Row(2), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	exitBtn := Button(Txt("Exit"), Command(h.Exit))
	Grid(exitBtn, In(btnFrame), Row(3), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	// Row 1: stats
	statsFrame := Frame()
	Grid(statsFrame, Row(1), Column(0), Columnspan(4), Sticky("we"))
	rv.Stats = NewPickStats(statsFrame, 0, 0)

	// Config panel rows
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger)
	endRow := rv.ConfigPanel.Build(2)

	// Preview placement
	rv.Preview = NewPhotoPreview(endRow, rv.thumbs)
	Bind(App, "<Control-o>", Command(h.Pick))
	Bind(App, "<Escape>", Command(h.Cancel))
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

// SetStatus updates the status line.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
}

// SetBusy swaps which of Pick and Cancel is usable.
func (rv *RootView) SetBusy(busy bool) {
	if rv == nil || rv.pickBtn == nil || rv.cancelBtn == nil {
		return
	}
	pick, cancel := "normal", "disabled"
	if busy {
		pick, cancel = "disabled", "normal"
	}
	rv.pickBtn.Configure(State(pick))
	rv.cancelBtn.Configure(State(cancel))
	if rv.regionBtn != nil {
		rv.regionBtn.Configure(State(pick))
	}
}

// ShowPhoto proxies to the preview.
func (rv *RootView) ShowPhoto(p *photo.Photo) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Show(p)
	}
}

// SetStats proxies to the stats row.
func (rv *RootView) SetStats(s model.PickStats) {
	if rv != nil && rv.Stats != nil {
		rv.Stats.Set(s)
	}
}

// ConfigEditable toggles config panel editability.
func (rv *RootView) ConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}
