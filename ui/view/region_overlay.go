package view

import (
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/soocke/image-picker-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// RegionStore receives the confirmed capture region.
type RegionStore interface {
	Set(r *image.Rectangle)
	Region() *image.Rectangle
}

// RegionOverlay is a translucent window the user drags and resizes over the
// area the camera path should capture.
type RegionOverlay interface {
	OpenOrFocus()
	Clear()
}

type regionOverlay struct {
	logger  *slog.Logger
	cfg     *config.Config
	cfgPath string
	store   RegionStore
	screen  func() image.Rectangle
	win     *ToplevelWidget
}

// NewRegionOverlay creates the overlay manager. screen reports the display
// bounds used to size the initial window.
func NewRegionOverlay(cfg *config.Config, cfgPath string, store RegionStore, screen func() image.Rectangle, logger *slog.Logger) RegionOverlay {
	return &regionOverlay{logger: logger, cfg: cfg, cfgPath: cfgPath, store: store, screen: screen}
}

func (v *regionOverlay) OpenOrFocus() {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Capture Region")
	v.win = win
	WmGeometry(win.Window, initialGeometry(v.store.Region(), v.screenBounds()))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-alpha", 0.45)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(1))
	center := win.Frame(Background("#008080"))
	Grid(center, Row(0), Column(0), Columnspan(3), Sticky("nsew"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Use Region [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	full := win.Button(Txt("Full Screen"), Command(func() { v.Clear(); v.destroy() }))
	Grid(full, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.destroy))
	Grid(cancel, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.destroy))
	WmProtocol(win.Window, "WM_DELETE_WINDOW", v.destroy)
}

func (v *regionOverlay) Clear() {
	v.store.Set(nil)
	v.persist(nil)
}

func (v *regionOverlay) confirm() {
	if v.win == nil {
		return
	}
	geom := WmGeometry(v.win.Window)
	if rect, ok := parseGeometry(geom); ok {
		v.store.Set(&rect)
		v.persist(&rect)
		if v.logger != nil {
			v.logger.Info("capture region set", "region", rect.String())
		}
	}
	v.destroy()
}

func (v *regionOverlay) persist(r *image.Rectangle) {
	if v.cfg == nil {
		return
	}
	v.cfg.SetSelection(r)
	if err := v.cfg.Save(v.cfgPath); err != nil && v.logger != nil {
		v.logger.Error("config save failed", "error", err)
	}
}

func (v *regionOverlay) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

func (v *regionOverlay) screenBounds() image.Rectangle {
	if v.screen != nil {
		if r := v.screen(); !r.Empty() {
			return r
		}
	}
	return image.Rect(0, 0, 1920, 1080)
}

// initialGeometry places the window over the saved region, or centers a
// window covering two thirds of the screen.
func initialGeometry(saved *image.Rectangle, screen image.Rectangle) string {
	if saved != nil && !saved.Empty() {
		return fmt.Sprintf("%dx%d+%d+%d", saved.Dx(), saved.Dy(), saved.Min.X, saved.Min.Y)
	}
	w, h := max(screen.Dx()*2/3, 1), max(screen.Dy()*5/9, 1)
	x, y := screen.Min.X+(screen.Dx()-w)/2, screen.Min.Y+(screen.Dy()-h)/2
	return fmt.Sprintf("%dx%d+%d+%d", w, h, x, y)
}

// geomRe matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometry parses a Tk geometry string and returns the corresponding rectangle.
func parseGeometry(g string) (image.Rectangle, bool) {
	m := geomRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
