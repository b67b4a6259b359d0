package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// Screen grabs from the primary display.
type Screen struct{}

func (Screen) Bounds() image.Rectangle {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}
	}
	return r
}

func (Screen) Grab() (*image.RGBA, error) { return screenshot.CaptureScreen() }

func (Screen) GrabRect(r image.Rectangle) (*image.RGBA, error) { return screenshot.CaptureRect(r) }
