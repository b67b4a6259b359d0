// Package theme owns the ttk styles shared by the picker windows.
package theme

import (
	tk "modernc.org/tk9.0"
)

// Style names passed to Style(...).
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleAccentLabel   = "accent.TLabel"
	StyleStateLabel    = "state.TLabel"
)

// Palette holds the resolved colors of one mode.
type Palette struct {
	Name    string // ttk theme activated underneath
	Window  string
	Panel   string
	Action  string
	Abort   string
	Badge   string
	OnBadge string
	Ink     string
}

var palettes = map[bool]Palette{
	false: {
		Name:    "azure light",
		Window:  "#f4f6f8",
		Panel:   "#ffffff",
		Action:  "#1d4ed8",
		Abort:   "#b91c1c",
		Badge:   "#0f766e",
		OnBadge: "#ffffff",
		Ink:     "#111827",
	},
	true: {
		Name:    "azure dark",
		Window:  "#111318",
		Panel:   "#1b1f27",
		Action:  "#60a5fa",
		Abort:   "#f87171",
		Badge:   "#2dd4bf",
		OnBadge: "#042f2e",
		Ink:     "#e5e7eb",
	},
}

// For returns the palette of the light or dark mode.
func For(isDark bool) Palette { return palettes[isDark] }

// InitStyles activates the base theme and configures the picker styles.
// Safe to call again when the mode changes.
func InitStyles(isDark bool) {
	p := For(isDark)
	_ = tk.ActivateTheme(p.Name)
	tk.App.Configure(tk.Background(p.Window))

	button := func(name, bg string) {
		tk.StyleConfigure(name,
			tk.Background(bg),
			tk.Foreground(p.Panel),
			tk.Padding("5p 3p"),
			tk.Relief("flat"),
		)
	}
	button(StylePrimaryButton, p.Action)
	button(StyleDangerButton, p.Abort)
	tk.StyleConfigure(StyleAccentLabel, tk.Foreground(p.Action), tk.Background(p.Panel), tk.Padding("2p 1p"))
	tk.StyleConfigure(StyleStateLabel,
		tk.Foreground(p.OnBadge),
		tk.Background(p.Badge),
		tk.Padding("4p 2p"),
		tk.Relief("groove"),
	)
}
