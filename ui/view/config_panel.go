package view

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/soocke/image-picker-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
	OnApplied(fn func(prev, next config.Config))
}

var (
	providerChoices   = []string{"both", "gallery", "camera"}
	permissionChoices = []string{"prompt", "allow", "deny"}
)

type choice struct {
	box    *TComboboxWidget
	values []string
}

type configPanel struct {
	cfg       *config.Config
	cfgPath   string
	logger    *slog.Logger
	applyBtn  *ButtonWidget
	widgets   map[string]*TextWidget // keyed by internal field id
	choices   map[string]choice
	onApplied func(prev, next config.Config)
}

// NewConfigPanel creates the view bound to cfg.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger) ConfigPanel {
	return &configPanel{
		cfg:     cfg,
		cfgPath: cfgPath,
		logger:  logger,
		widgets: make(map[string]*TextWidget),
		choices: make(map[string]choice),
	}
}

func (v *configPanel) OnApplied(fn func(prev, next config.Config)) { v.onApplied = fn }

func (v *configPanel) Build(startRow int) (row int) {
	c := v.cfg
	row = startRow
	label := func(text string) {
		lbl := Label(Txt(text), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
	}
	makeRow := func(id, text, value string) {
		label(text)
		w := Text(Height(1), Width(28))
		Grid(w, Row(row), Column(1), Columnspan(3), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeChoice := func(id, text string, values []string, current string) {
		label(text)
		box := TCombobox(Values(values), Width(12), State("readonly"))
		Grid(box, Row(row), Column(1), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		idx := slices.Index(values, current)
		box.Current(max(idx, 0))
		v.choices[id] = choice{box: box, values: values}
		row++
	}
	makeChoice("provider", "Source", providerChoices, c.Provider)
	makeRow("galleryDir", "Gallery Folder", c.GalleryDir)
	makeRow("extensions", "Extensions (comma separated)", strings.Join(c.Extensions, ", "))
	makeChoice("cameraPermission", "Camera Permission", permissionChoices, c.CameraPermission)
	makeRow("rememberPermission", "Remember Grant (true/false)", fmt.Sprintf("%t", c.RememberPermission))
	makeRow("captureDelayMs", "Capture Delay ms", fmt.Sprintf("%d", c.CaptureDelayMs))
	makeRow("saveCaptures", "Save Captures (true/false)", fmt.Sprintf("%t", c.SaveCaptures))
	makeRow("captureDir", "Capture Folder", c.CaptureDir)
	makeRow("previewMaxW", "Preview Max Width", fmt.Sprintf("%d", c.PreviewMaxW))
	makeRow("previewMaxH", "Preview Max Height", fmt.Sprintf("%d", c.PreviewMaxH))
	makeRow("darkMode", "Dark Theme (true/false)", fmt.Sprintf("%t", c.DarkMode))
	makeRow("exitOnPick", "Exit After Pick (true/false)", fmt.Sprintf("%t", c.ExitOnPick))
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state, boxState := "disabled", "disabled"
	if enabled {
		state, boxState = "normal", "readonly"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	for _, ch := range v.choices {
		if ch.box != nil {
			ch.box.Configure(State(boxState))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	parts := w.Get("1.0", END)
	return strings.TrimSpace(strings.Join(parts, ""))
}

func (v *configPanel) choiceValue(id string) (string, bool) {
	ch, ok := v.choices[id]
	if !ok || ch.box == nil {
		return "", false
	}
	idx, err := strconv.Atoi(ch.box.Current(nil))
	if err != nil || idx < 0 || idx >= len(ch.values) {
		return "", false
	}
	return ch.values[idx], true
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	prev := *v.cfg
	cfg := *v.cfg // copy
	cfg.Extensions = slices.Clone(v.cfg.Extensions)
	assignInt := func(id string, dst *int) {
		if i, ok := parseIntField(v.text(v.widgets[id])); ok {
			*dst = i
		}
	}
	assignBool := func(id string, dst *bool) {
		if b, ok := parseBoolLoose(v.text(v.widgets[id])); ok {
			*dst = b
		}
	}
	assignText := func(id string, dst *string) {
		if w := v.widgets[id]; w != nil {
			*dst = v.text(w)
		}
	}
	if s, ok := v.choiceValue("provider"); ok {
		cfg.Provider = s
	}
	if s, ok := v.choiceValue("cameraPermission"); ok {
		cfg.CameraPermission = s
	}
	assignText("galleryDir", &cfg.GalleryDir)
	if w := v.widgets["extensions"]; w != nil {
		cfg.Extensions = strings.Split(v.text(w), ",")
	}
	assignBool("rememberPermission", &cfg.RememberPermission)
	assignInt("captureDelayMs", &cfg.CaptureDelayMs)
	assignBool("saveCaptures", &cfg.SaveCaptures)
	assignText("captureDir", &cfg.CaptureDir)
	assignInt("previewMaxW", &cfg.PreviewMaxW)
	assignInt("previewMaxH", &cfg.PreviewMaxH)
	assignBool("darkMode", &cfg.DarkMode)
	assignBool("exitOnPick", &cfg.ExitOnPick)
	if verr := cfg.Validate(); verr != nil {
		if v.logger != nil {
			v.logger.Warn("config rejected", "error", verr)
		}
		return
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	if v.onApplied != nil {
		v.onApplied(prev, cfg)
	}
}

// parsing helpers (unexported)
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
