package cli

import (
	"fmt"

	"github.com/ifitclub/ifit-agent/internal/api"
	"github.com/ifitclub/ifit-agent/internal/archive"
	"github.com/spf13/cobra"
)

func newArchiveCmd() *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Manage the local activity archive database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	archiveCmd.AddCommand(newArchiveSyncCmd())
	archiveCmd.AddCommand(newArchiveCountCmd())
	return archiveCmd
}

func newArchiveSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Copy the full activity history into the archive database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}
			defer infra.Shutdown(ctx)

			if !cfg.Archive.Enabled {
				return fmt.Errorf("archive is disabled; set ARCHIVE_ENABLED=true")
			}

			sessions := openSession(ctx, cfg, infra)
			current, ok := sessions.Current()
			if !ok {
				return fmt.Errorf("not signed in; run 'ifit login' first")
			}

			arch, err := archive.Open(cfg.Archive.Postgres.DSN(), infra.Logger())
			if err != nil {
				return err
			}
			defer arch.Close()

			client := api.NewClient(cfg.API.BaseURL, sessions, cfg.API.Timeout.Duration)
			pageSize := cfg.Prefetch.ActivityPageSize

			total := 0
			for page := 1; ; page++ {
				activities, err := client.GetActivities(ctx, current.AthleteID, page, pageSize)
				if err != nil {
					return fmt.Errorf("failed to fetch activities page %d: %w", page, err)
				}
				if len(activities) == 0 {
					break
				}

				n, err := arch.SyncActivities(ctx, activities)
				if err != nil {
					return err
				}
				total += n

				// A short page is the last page.
				if len(activities) < pageSize {
					break
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Archived %d activities.\n", total)
			return nil
		},
	}
}

func newArchiveCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show how many activities the archive holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}
			defer infra.Shutdown(ctx)

			if !cfg.Archive.Enabled {
				return fmt.Errorf("archive is disabled; set ARCHIVE_ENABLED=true")
			}

			sessions := openSession(ctx, cfg, infra)
			current, ok := sessions.Current()
			if !ok {
				return fmt.Errorf("not signed in; run 'ifit login' first")
			}

			arch, err := archive.Open(cfg.Archive.Postgres.DSN(), infra.Logger())
			if err != nil {
				return err
			}
			defer arch.Close()

			n, err := arch.Count(ctx, current.AthleteID)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d activities archived.\n", n)
			return nil
		},
	}
}
