package main

import (
	"context"
	"fmt"

	"github.com/streampanel/panelctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// UserCheckAccess checks existing Plex access for an email across all servers.
func (r *Runner) UserCheckAccess(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend not configured", shared.ErrServiceUnavailable)
	}

	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email argument is required", shared.ErrMissingArgument)
	}

	r.logger.Info("checking access", "email", email)

	result, err := r.backend.CheckAccess(ctx, email)
	if err != nil {
		return fmt.Errorf("access check failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if !result.Found {
		r.writePlainln("No existing Plex access for %v", email)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Plex access for %v", email))
	for _, access := range result.Access {
		status := "no access"
		switch {
		case access.PendingInvite:
			status = "pending invite"
		case access.HasAccess:
			status = "shared"
		}
		r.writePlain("%v: %v\n", access.ServerName, status)
		for _, lib := range access.Libraries {
			r.writePlain("  - %v\n", lib.Title)
		}
	}

	return nil
}

// UserSearch searches all IPTV panels for an existing username.
func (r *Runner) UserSearch(ctx context.Context, cmd *cli.Command) error {
	if r.backend == nil {
		return fmt.Errorf("%w: backend not configured", shared.ErrServiceUnavailable)
	}

	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username argument is required", shared.ErrMissingArgument)
	}

	r.logger.Info("searching panels", "username", username)

	result, err := r.backend.SearchPanelUser(ctx, username)
	if err != nil {
		return fmt.Errorf("panel search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if !result.Found || len(result.Results) == 0 {
		r.writePlainln("No panel account found for %v", username)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Panel accounts matching %v", username))
	for _, match := range result.Results {
		r.writePlain("%v @ %v (id %v)\n", match.Username, match.PanelName, match.UserID)
		if match.Email != "" {
			r.writePlain("  email: %v\n", match.Email)
		}
		if match.ExpiresAt != "" {
			r.writePlain("  expires: %v\n", match.ExpiresAt)
		}
		if match.MaxConnections > 0 {
			r.writePlain("  connections: %v\n", match.MaxConnections)
		}
	}

	return nil
}
