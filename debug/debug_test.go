package debug

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitFor(t *testing.T, buf *syncBuffer, needle string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(buf.String(), needle) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("log %q not seen in %q", needle, buf.String())
}

func TestLoggersEmitUntilCancelled(t *testing.T) {
	buf := &syncBuffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartGoroutineLogger(ctx, 10*time.Millisecond, logger)
	StartMemLogger(ctx, 10*time.Millisecond, logger, func() []slog.Attr {
		return []slog.Attr{slog.Int("cache_entries", 3)}
	})
	waitFor(t, buf, `"msg":"goroutine-stacks"`)
	waitFor(t, buf, `"cache_entries":3`)
}
