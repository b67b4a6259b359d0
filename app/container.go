package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/soocke/image-picker-go/config"
	"github.com/soocke/image-picker-go/domain/capture"
	"github.com/soocke/image-picker-go/domain/gallery"
	"github.com/soocke/image-picker-go/domain/permission"
	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/domain/picker"
	"github.com/soocke/image-picker-go/domain/provider"
	"github.com/soocke/image-picker-go/ui/images"
	"github.com/soocke/image-picker-go/ui/model"
	"github.com/soocke/image-picker-go/ui/presenter"
	"github.com/soocke/image-picker-go/ui/view"
)

// AppContainer assembles models, services, presenters and the root view.
type AppContainer struct {
	Config  *config.Config
	CfgPath string
	Logger  *slog.Logger
	UI      *presenter.Dispatcher
	Pick    *model.PickModel
	Stats   *model.StatsModel
	Region  *model.RegionModel
	Thumbs  *images.Thumbnails
	Screen  capture.Grabber

	// Rebuilt when the config changes
	Camera      *capture.Delegate
	Gallery     *gallery.Delegate
	Permissions permission.Checker
	Picker      *picker.Coordinator[*photo.Photo]

	// Views
	RootView *view.RootView
	Chooser  *view.ChooserDialog
	Prompts  view.Prompts

	// Presenters
	PickPresenter    *presenter.PickPresenter
	StatePresenter   *presenter.StatePresenter
	StatsPresenter   *presenter.StatsPresenter
	ChooserPresenter *presenter.ChooserPresenter
	PromptPresenter  *presenter.PromptPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. No Tk widgets are created here;
// the root view is built by the app on the Tk thread.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, CfgPath: cfgPath, Logger: logger}
	c.UI = &presenter.Dispatcher{Logger: logger}
	c.Pick = &model.PickModel{}
	c.Stats = model.NewStatsModel()
	c.Region = model.NewRegionModel(cfg.Selection())
	c.Screen = capture.Screen{}
	thumbs, err := images.NewThumbnails(cfg.ThumbnailCacheSize, cfg.PreviewMaxW, cfg.PreviewMaxH)
	if err != nil {
		return nil, err
	}
	c.Thumbs = thumbs

	// View
	c.RootView = view.NewRootView(cfg, cfgPath, thumbs, logger)
	c.Chooser = view.NewChooserDialog(logger)

	// Presenters
	c.ChooserPresenter = presenter.NewChooserPresenter(c.UI, c.Chooser)
	c.PromptPresenter = presenter.NewPromptPresenter(c.UI, c.Prompts)
	c.StatePresenter = presenter.NewStatePresenter(c.RootView)
	c.StatsPresenter = presenter.NewStatsPresenter(c.Stats, c.Pick, c.RootView)
	c.PickPresenter = presenter.NewPickPresenter(logger, c.Pick, nil, c.Stats, c.RootView, c.UI)
	c.buildPicker()
	return c, nil
}

// buildPicker creates the delegates, the permission checker and a fresh
// coordinator from the current config.
func (c *AppContainer) buildPicker() {
	cfg := c.Config
	c.Gallery = gallery.New(c.Logger, c.PromptPresenter.AskFile, gallery.Options{
		Dir:        cfg.GalleryDir,
		Extensions: cfg.Extensions,
	})

	saveDir := cfg.CaptureDir
	if saveDir == "" {
		saveDir = filepath.Join(os.TempDir(), "image-picker")
	}
	c.Camera = capture.New(c.Logger, c.Screen, capture.Options{
		Delay: time.Duration(cfg.CaptureDelayMs) * time.Millisecond,
		// one-shot hosts need a file to read
		Save:    cfg.SaveCaptures || cfg.ExitOnPick,
		Dir:     saveDir,
		Selects: c.Region.Region,
	})
	c.Camera.SetCountdown(func(left int) {
		c.UI.Post(func() {
			if left > 0 {
				c.RootView.SetStatus(fmt.Sprintf("Capturing in %ds", left))
			} else {
				c.RootView.SetStatus("Capturing...")
			}
		})
	})

	c.Permissions = permission.FromPolicy(c.Logger, cfg.Permission(), c.PromptPresenter.AskPermission, cfg.RememberPermission)

	c.Picker = picker.NewCoordinator[*photo.Photo](c.Logger, cfg.Mode(), picker.Deps[*photo.Photo]{
		Delegates: map[provider.Path]picker.Delegate[*photo.Photo]{
			provider.LibraryPick:   c.Gallery,
			provider.CameraCapture: c.Camera,
		},
		Chooser:     c.ChooserPresenter,
		Permissions: c.Permissions,
	})
	c.Picker.AddListener(c.StatePresenter.OnTransition)
	c.Picker.OnResult(c.PickPresenter.OnOutcome)
	c.Picker.OnDismiss(c.PickPresenter.OnDismiss)
	c.PickPresenter.SetPicker(c.Picker)
}

// Rebuild swaps in a coordinator for the current config. It is a no-op
// while a pick is running.
func (c *AppContainer) Rebuild() bool {
	if c.Pick.Busy() || c.Picker.Current() != picker.StateIdle {
		return false
	}
	old := c.Picker
	c.Camera.LogStats()
	// Edited settings revoke remembered camera grants.
	if p, ok := c.Permissions.(*permission.Prompting); ok {
		p.Forget()
	}
	c.buildPicker()
	old.Close()
	c.Logger.Info("picker rebuilt", "mode", c.Picker.Mode().String(), "permission", c.Config.Permission().String())
	return true
}

// Close stops the coordinator and drops queued UI work.
func (c *AppContainer) Close() {
	if c.Picker != nil {
		c.Picker.Close()
	}
	c.Camera.LogStats()
	c.UI.Close()
}
