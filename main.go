package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/soocke/image-picker-go/app"
	"github.com/soocke/image-picker-go/config"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath(), "path to the JSON config file")
	mode := flag.String("provider", "", "override provider mode: gallery, camera or both")
	debugFlag := flag.Bool("debug", false, "enable debug logging and runtime stats")
	once := flag.Bool("once", false, "print the picked file path and exit")
	flag.Parse()

	// Base config from file, defaults when missing or broken
	cfg, loadErr := config.Load(*cfgPath)
	if *mode != "" {
		cfg.Provider = *mode
	}
	if *debugFlag {
		cfg.Debug = true
	}
	if *once {
		cfg.ExitOnPick = true
	}
	validateErr := cfg.Validate()

	// Set up logger
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger, closer := NewLogger(level, cfg)
	if loadErr != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", loadErr)
	}
	if validateErr != nil {
		logger.Warn("config adjusted", "error", validateErr)
	}

	c, err := app.BuildContainer(cfg, *cfgPath, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		_ = closer.Close()
		fmt.Fprintln(os.Stderr, "image-picker:", err)
		os.Exit(2)
	}

	application := app.NewApp("Image Picker", 640, 560, c, os.Stdout)
	code := application.Start()
	logger.Info("exit", "code", code)
	_ = closer.Close()
	os.Exit(code)
}
