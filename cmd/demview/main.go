// Package main is the entry point for the relief terrain viewer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/relief/internal/config"
	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/internal/viewer"
	"github.com/Faultbox/relief/internal/viewer/glview"
)

// headlessFrames is how many frames a -headless run renders.
const headlessFrames = 3

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{
		Level:   cfg.Logging.Level,
		LogFile: cfg.Logging.LogFile,
		Console: true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== relief ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Viewer.Headless {
		res, err := viewer.RunHeadless(ctx, cfg, headlessFrames)
		if err != nil {
			logger.Error("headless run failed", zap.Error(err))
			os.Exit(1)
		}
		last := res.Last()
		fmt.Printf("tiles=%d targets=%d drawn=%d\n", last.Tracked, last.Targets, last.Drawn)
		return
	}

	v, err := glview.New(cfg)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(ctx); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
