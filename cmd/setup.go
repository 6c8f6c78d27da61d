package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/streampanel/panelctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the lookup cache database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupPanel extracts backend connection details from a cURL command
// copied out of the panel admin UI.
//
// Writes the extracted base URL and API key to a JSON file and prints
// the config.toml lines to copy into the backend section.
func (r *Runner) SetupPanel(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var panel *shared.PanelCurl
	var err error

	if curlFile != "" {
		r.logger.Info("parsing cURL command from file", "path", curlFile)
		panel, err = shared.ParsePanelCurlFile(curlFile)
	} else {
		r.logger.Info("parsing cURL command")
		panel, err = shared.ParsePanelCurl([]byte(curlCmd))
	}

	if err != nil {
		return fmt.Errorf("failed to parse cURL command: %w", err)
	}

	apiKey := panel.APIKey()
	if apiKey == "" {
		r.logger.Warn("no API key header found in cURL command")
	}

	details := map[string]string{
		"base_url": panel.BaseURL,
		"api_key":  apiKey,
	}

	data, err := shared.MarshalJSON(details, true)
	if err != nil {
		return fmt.Errorf("failed to encode connection details: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Keys stay out of world-readable files.
	if err := os.WriteFile(outputPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write connection details: %w", err)
	}

	r.logger.Info("connection details saved", "path", outputPath)

	r.writePlainHeader("Panel connection extracted")
	r.writePlain("Base URL: %v\n", panel.BaseURL)
	if apiKey != "" {
		r.writePlain("API key:  %v...\n", truncateKey(apiKey))
	}
	r.writePlainln("Copy into the [backend] section of config.toml:")
	r.writePlain("  base_url = %q\n", panel.BaseURL)
	r.writePlain("  api_key = %q\n", apiKey)

	return nil
}

func truncateKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
