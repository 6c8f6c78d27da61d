package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/streampanel/panelctl/internal/services"
	"github.com/streampanel/panelctl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var backend *services.PanelAPIService
	if config.Backend.BaseURL != "" {
		client := &http.Client{
			Timeout: time.Duration(config.Backend.TimeoutSeconds) * time.Second,
		}
		backend = services.NewPanelAPIService(config.Backend.BaseURL, config.Backend.APIKey, client, config.Audit.RateLimit)
	}

	opts := RunnerOpts{
		Config: config,
		Logger: logger,
	}
	if backend != nil {
		opts.Backend = backend
		opts.Source = backend
		opts.API = backend
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "panelctl",
		Usage:    "Admin control panel for multi-service user provisioning",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
