package provider

import (
	"fmt"
	"strings"
)

// Mode is the configured acquisition policy for a picker.
type Mode int

const (
	Gallery Mode = iota
	Camera
	Both
)

func (m Mode) String() string {
	switch m {
	case Gallery:
		return "gallery"
	case Camera:
		return "camera"
	case Both:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMode reads a mode name as written in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gallery", "library":
		return Gallery, nil
	case "camera":
		return Camera, nil
	case "both", "":
		return Both, nil
	default:
		return Both, fmt.Errorf("unknown provider mode %q", s)
	}
}

// Path is one acquisition path offered to the user.
type Path int

const (
	LibraryPick Path = iota + 1
	CameraCapture
)

func (p Path) String() string {
	switch p {
	case LibraryPick:
		return "library-pick"
	case CameraCapture:
		return "camera-capture"
	default:
		return "unknown"
	}
}

// Label is the user-facing button text for a path.
func (p Path) Label() string {
	switch p {
	case LibraryPick:
		return "Gallery"
	case CameraCapture:
		return "Camera"
	default:
		return "?"
	}
}

// RequiresPermission reports whether the path needs a sensitive capability
// granted before its delegate may run.
func (p Path) RequiresPermission() bool { return p == CameraCapture }

// Paths returns the ordered, non-empty set of paths offered for m.
// Both always yields library-pick before camera-capture. Unknown modes
// fall back to the Both ordering.
func Paths(m Mode) []Path {
	switch m {
	case Gallery:
		return []Path{LibraryPick}
	case Camera:
		return []Path{CameraCapture}
	default:
		return []Path{LibraryPick, CameraCapture}
	}
}

// NeedsChoice reports whether m offers more than one path.
func NeedsChoice(m Mode) bool { return len(Paths(m)) > 1 }
