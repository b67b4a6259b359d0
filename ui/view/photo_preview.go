package view

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/soocke/image-picker-go/assets"
	"github.com/soocke/image-picker-go/domain/photo"
	"github.com/soocke/image-picker-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// PhotoPreview shows the last picked photo and a one-line description.
type PhotoPreview interface {
	Show(p *photo.Photo)
	Reset()
}

type photoPreview struct {
	imageLabel *LabelWidget
	infoLabel  *LabelWidget
	thumbs     *images.Thumbnails
	prevPhoto  *Img // last Tk photo image instance
}

// NewPhotoPreview creates the preview labels, grids them at row and returns the view.
func NewPhotoPreview(row int, thumbs *images.Thumbnails) PhotoPreview {
	ph := NewPhoto(Data(assets.PlaceholderPNG))
	img := Label(Image(ph), Borderwidth(1), Relief("sunken"))
	info := Label(Txt("Nothing picked yet"), Anchor("w"))
	Grid(img, Row(row), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	Grid(info, Row(row+1), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	return &photoPreview{imageLabel: img, infoLabel: info, thumbs: thumbs, prevPhoto: ph}
}

func (v *photoPreview) Show(p *photo.Photo) {
	if v == nil || v.imageLabel == nil || p == nil || p.Image == nil {
		return
	}
	pngBytes := v.thumbs.PNG(previewKey(p), p.Image)
	if len(pngBytes) == 0 {
		return
	}
	// Replace previous photo to avoid retaining obsolete pixel buffers.
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(pngBytes))
	v.imageLabel.Configure(Image(v.prevPhoto))
	if v.infoLabel != nil {
		v.infoLabel.Configure(Txt(describe(p)))
	}
}

func (v *photoPreview) Reset() {
	if v == nil || v.imageLabel == nil {
		return
	}
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = NewPhoto(Data(assets.PlaceholderPNG))
	v.imageLabel.Configure(Image(v.prevPhoto))
	if v.infoLabel != nil {
		v.infoLabel.Configure(Txt("Nothing picked yet"))
	}
}

func previewKey(p *photo.Photo) string {
	if p.Path != "" {
		return fmt.Sprintf("%s@%d", p.Path, p.Taken.UnixNano())
	}
	return ""
}

// describe renders "name  WxH  size  age  source".
func describe(p *photo.Photo) string {
	b := p.Bounds()
	parts := []string{p.Name(), fmt.Sprintf("%dx%d", b.Dx(), b.Dy())}
	if p.Size > 0 {
		parts = append(parts, humanize.Bytes(uint64(p.Size)))
	}
	if !p.Taken.IsZero() {
		parts = append(parts, humanize.Time(p.Taken))
	}
	parts = append(parts, "via "+strings.ToLower(p.Source.Label()))
	return strings.Join(parts, "  ")
}
