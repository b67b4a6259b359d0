package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/soocke/image-picker-go/domain/permission"
	"github.com/soocke/image-picker-go/domain/provider"
)

const appDir = "image-picker"

// Config holds runtime configuration for the picker and app behavior.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug    bool   `json:"debug"`
	Provider string `json:"provider"`

	// Library picks
	GalleryDir string   `json:"gallery_dir"`
	Extensions []string `json:"extensions"`

	// Camera captures
	CameraPermission   string `json:"camera_permission"`
	RememberPermission bool   `json:"remember_permission"`
	CaptureDelayMs     int    `json:"capture_delay_ms"`
	CaptureDir         string `json:"capture_dir"`
	SaveCaptures       bool   `json:"save_captures"`

	// Capture region persistence
	SelectionX int `json:"selection_x"`
	SelectionY int `json:"selection_y"`
	SelectionW int `json:"selection_w"`
	SelectionH int `json:"selection_h"`

	PreviewMaxW        int `json:"preview_max_w"`
	PreviewMaxH        int `json:"preview_max_h"`
	ThumbnailCacheSize int `json:"thumbnail_cache_size"`

	LogFile       string `json:"log_file"`
	LogMaxSizeMB  int    `json:"log_max_size_mb"`
	LogMaxBackups int    `json:"log_max_backups"`

	DarkMode   bool `json:"dark_mode"`
	ExitOnPick bool `json:"exit_on_pick"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:           provider.Both.String(),
		GalleryDir:         xdg.UserDirs.Pictures,
		Extensions:         []string{"png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff"},
		CameraPermission:   permission.PolicyPrompt.String(),
		RememberPermission: true,
		CaptureDelayMs:     0,
		CaptureDir:         filepath.Join(xdg.UserDirs.Pictures, "captures"),
		PreviewMaxW:        360,
		PreviewMaxH:        240,
		ThumbnailCacheSize: 16,
		LogMaxSizeMB:       10,
		LogMaxBackups:      3,
	}
}

// DefaultPath is the config file location under the XDG config home.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appDir, "config.json")
}

// Validate clamps/normalizes values to safe ranges. Unknown provider or
// permission names are errors; everything else is clamped.
func (c *Config) Validate() error {
	var errs []error
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if _, err := provider.ParseMode(c.Provider); err != nil {
		errs = append(errs, err)
		c.Provider = provider.Both.String()
	}
	if _, err := permission.ParsePolicy(c.CameraPermission); err != nil {
		errs = append(errs, err)
		c.CameraPermission = permission.PolicyPrompt.String()
	}
	c.Extensions = normalizeExts(c.Extensions)
	if c.CaptureDelayMs < 0 {
		c.CaptureDelayMs = 0
	}
	if c.CaptureDelayMs > 60_000 {
		c.CaptureDelayMs = 60_000
	}
	if c.SelectionW < 0 || c.SelectionH < 0 {
		c.SelectionW, c.SelectionH = 0, 0
	}
	if c.PreviewMaxW <= 0 {
		c.PreviewMaxW = 360
	}
	if c.PreviewMaxH <= 0 {
		c.PreviewMaxH = 240
	}
	if c.ThumbnailCacheSize <= 0 {
		c.ThumbnailCacheSize = 16
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = 10
	}
	if c.LogMaxBackups < 0 {
		c.LogMaxBackups = 0
	}
	return errors.Join(errs...)
}

func normalizeExts(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, e := range in {
		e = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// Mode returns the parsed provider mode.
func (c *Config) Mode() provider.Mode {
	m, err := provider.ParseMode(c.Provider)
	if err != nil {
		return provider.Both
	}
	return m
}

// Permission returns the parsed camera permission policy.
func (c *Config) Permission() permission.Policy {
	p, err := permission.ParsePolicy(c.CameraPermission)
	if err != nil {
		return permission.PolicyPrompt
	}
	return p
}

// Selection returns the saved capture region, nil when none is set.
func (c *Config) Selection() *image.Rectangle {
	if c.SelectionW <= 0 || c.SelectionH <= 0 {
		return nil
	}
	r := image.Rect(c.SelectionX, c.SelectionY, c.SelectionX+c.SelectionW, c.SelectionY+c.SelectionH)
	return &r
}

// SetSelection stores r, or clears the region when r is nil or empty.
func (c *Config) SetSelection(r *image.Rectangle) {
	if r == nil {
		c.SelectionX, c.SelectionY, c.SelectionW, c.SelectionH = 0, 0, 0, 0
		return
	}
	n := r.Canon()
	if n.Empty() {
		c.SelectionX, c.SelectionY, c.SelectionW, c.SelectionH = 0, 0, 0, 0
		return
	}
	c.SelectionX, c.SelectionY = n.Min.X, n.Min.Y
	c.SelectionW, c.SelectionH = n.Dx(), n.Dy()
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
