package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/soocke/image-picker-go/config"
)

// NewLogger returns a structured slog.Logger with the given level. Output
// goes to stderr, or to a rotating file when the config names one. The
// returned closer flushes the file.
func NewLogger(level slog.Leveler, cfg *config.Config) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg != nil && cfg.LogFile != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755)
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			Compress:   true,
		}
		w, closer = lj, lj
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
