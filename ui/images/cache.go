package images

import (
	"fmt"
	"image"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Thumbnails caches PNG-encoded previews by key. It is safe for concurrent use.
type Thumbnails struct {
	maxW, maxH int
	cache      *lru.Cache[string, []byte]

	mu           sync.Mutex
	hits, misses uint64
}

// NewThumbnails returns a cache of up to size previews bounded by maxW x maxH.
func NewThumbnails(size, maxW, maxH int) (*Thumbnails, error) {
	if size <= 0 {
		size = 1
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	return &Thumbnails{maxW: maxW, maxH: maxH, cache: c}, nil
}

// PNG returns the preview for key, rendering img on a miss. A nil img on a
// miss yields nil.
func (t *Thumbnails) PNG(key string, img image.Image) []byte {
	if t == nil {
		return EncodePNG(img)
	}
	if key != "" {
		if b, ok := t.cache.Get(key); ok {
			t.count(true)
			return b
		}
	}
	t.count(false)
	if img == nil {
		return nil
	}
	b := EncodePNG(ScaleToFit(img, t.maxW, t.maxH))
	if key != "" && len(b) > 0 {
		t.cache.Add(key, b)
	}
	return b
}

func (t *Thumbnails) count(hit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if hit {
		t.hits++
	} else {
		t.misses++
	}
}

// Stats returns the hit and miss counts and the number of cached entries.
func (t *Thumbnails) Stats() (hits, misses uint64, entries int) {
	if t == nil {
		return 0, 0, 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hits, t.misses, t.cache.Len()
}

// Purge drops every cached preview.
func (t *Thumbnails) Purge() {
	if t != nil {
		t.cache.Purge()
	}
}
