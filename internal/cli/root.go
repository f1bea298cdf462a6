// Package cli defines the ifit command tree. The agent surfaces the same
// auth flow on three entry points: a resident agent ("run"), a one-shot
// cold-start URL handler ("handle-url") and an interactive sign-in
// ("login").
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ifitclub/ifit-agent/internal/app"
	"github.com/ifitclub/ifit-agent/internal/config"
	"github.com/ifitclub/ifit-agent/internal/deeplink"
	"github.com/ifitclub/ifit-agent/internal/session"
	"github.com/spf13/cobra"
)

// NewRootCmd returns the root command for the ifit agent CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ifit",
		Short:         "iFit Club agent — sign-in, session and activity data",
		Long:          "iFit Club agent — handles the OAuth sign-in callback flow, keeps the local session, and fetches athlete data from the platform.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newHandleURLCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newActivitiesCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newChallengesCmd())
	rootCmd.AddCommand(newArchiveCmd())

	return rootCmd
}

// Execute runs the root command and maps failure to a non-zero exit.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and brings up the shared infrastructure. Every
// command goes through here so storage selection and logging behave the
// same on all entry points.
func setup(ctx context.Context) (*config.Config, app.Infrastructure, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	infra, err := app.NewInfrastructure(ctx, *cfg)
	if err != nil {
		return nil, nil, err
	}

	return cfg, infra, nil
}

// openSession builds and bootstraps the session manager for one-shot
// commands that do not run the full agent.
func openSession(ctx context.Context, cfg *config.Config, infra app.Infrastructure) *session.Manager {
	parser := deeplink.NewParser(cfg.Link.Scheme)
	sessions := session.NewManager(infra.Store(), parser, infra.Logger())
	sessions.Bootstrap(ctx)
	return sessions
}
