package capture

import "image"

// Grabber reads pixels from a display. Bounds reports an empty rectangle
// when no display is attached.
type Grabber interface {
	Bounds() image.Rectangle
	Grab() (*image.RGBA, error)
	GrabRect(r image.Rectangle) (*image.RGBA, error)
}
