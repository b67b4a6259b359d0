package photo

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/image-picker-go/domain/provider"
)

var ErrEmptyImage = errors.New("photo: empty image")

// Photo is the payload delivered for a successful pick.
type Photo struct {
	Image  image.Image
	Path   string        // file on disk, empty for unsaved captures
	Source provider.Path // acquisition path that produced the photo
	Format string        // lower-case file extension without the dot
	Size   int64         // bytes on disk, 0 when not saved
	Taken  time.Time
}

// Bounds returns the pixel dimensions of the image.
func (p *Photo) Bounds() image.Rectangle {
	if p == nil || p.Image == nil {
		return image.Rectangle{}
	}
	return p.Image.Bounds()
}

// Name is the base name of the file, or a synthetic name for captures.
func (p *Photo) Name() string {
	if p == nil {
		return ""
	}
	if p.Path != "" {
		return filepath.Base(p.Path)
	}
	return fmt.Sprintf("%s-%s", p.Source, p.Taken.Format("20060102-150405"))
}

// Load decodes the file at path, applying the EXIF orientation. The
// modification time stands in for the taken timestamp.
func Load(path string, source provider.Path) (*Photo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("photo stat: %w", err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("photo: %s is a directory", path)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("photo decode %s: %w", filepath.Base(path), err)
	}
	if img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	return &Photo{
		Image:  img,
		Path:   path,
		Source: source,
		Format: Ext(path),
		Size:   fi.Size(),
		Taken:  fi.ModTime(),
	}, nil
}

// Save encodes p to path, picking the format from the extension, and
// records the result on p.
func (p *Photo) Save(path string) error {
	if p == nil || p.Image == nil || p.Image.Bounds().Empty() {
		return ErrEmptyImage
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("photo mkdir: %w", err)
	}
	if err := imaging.Save(p.Image, path); err != nil {
		return fmt.Errorf("photo save: %w", err)
	}
	if fi, err := os.Stat(path); err == nil {
		p.Size = fi.Size()
	}
	p.Path = path
	p.Format = Ext(path)
	return nil
}

// Ext returns the lower-case extension of path without the dot.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// MatchExt reports whether path carries one of exts. Entries may be given
// with or without the leading dot; an empty list matches everything.
func MatchExt(path string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	e := Ext(path)
	for _, x := range exts {
		if strings.TrimPrefix(strings.ToLower(x), ".") == e {
			return true
		}
	}
	return false
}
