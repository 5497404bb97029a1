// Package main is the entry point for the shot generator editor.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/shotgen/internal/app"
	"github.com/Faultbox/shotgen/internal/config"
	"github.com/Faultbox/shotgen/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, configPath, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Shot Generator ===", zap.String("config", configPath))
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := app.New(cfg, configPath)
	if err != nil {
		logger.Error("failed to start editor", zap.Error(err))
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		logger.Error("editor error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("editor closed normally")
}
