// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles database and panel connection setup
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize local state and backend connections",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the lookup cache database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "panel",
				Usage: "Extract backend connection details from a cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from the panel admin UI",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to a file containing the cURL command",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path for the extracted connection details",
						Value:   "panel.json",
					},
				},
				Action: r.SetupPanel,
			},
		},
	}
}

// wizardCommand launches the provisioning wizard TUI
func wizardCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "wizard",
		Aliases: []string{"w"},
		Usage:   "Launch the interactive user-provisioning wizard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Wizard mode: create, add_plex, or add_iptv",
				Value:   "create",
			},
			&cli.StringFlag{
				Name:  "user-id",
				Usage: "Existing user ID (required for add_plex / add_iptv)",
			},
			&cli.StringFlag{
				Name:  "service-request",
				Usage: "Service request ID to mark provisioned on success",
			},
			&cli.BoolFlag{
				Name:  "offline",
				Usage: "Use cached lookups instead of fetching from the backend",
			},
		},
		Action: r.Wizard,
	}
}

// userCommand handles direct user lookups outside the wizard
func userCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Look up users on the backend",
		Commands: []*cli.Command{
			{
				Name:  "check-access",
				Usage: "Check existing Plex access for an email across all servers",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "email",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UserCheckAccess,
			},
			{
				Name:  "search",
				Usage: "Search IPTV panels for an existing username",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "username",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.UserSearch,
			},
		},
	}
}

// cacheCommand manages the local lookup cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local lookup cache",
		Commands: []*cli.Command{
			{
				Name:  "refresh",
				Usage: "Fetch lookups from the backend and store them locally",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.CacheRefresh,
			},
			{
				Name:  "show",
				Usage: "Show cached lookup counts and freshness",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheShow,
			},
		},
	}
}

// auditCommand exports per-server access and activity reports
func auditCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Export per-user access and activity for Plex servers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: server_audit_{timestamp})",
			},
			&cli.StringFlag{
				Name:  "servers",
				Usage: "Comma-separated server IDs (default: all cached servers)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Backend requests per second",
			},
		},
		Action: r.AuditRun,
	}
}

// apiCommand handles direct backend API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the provisioning backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
		},
	}
}
