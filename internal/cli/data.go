package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ifitclub/ifit-agent/internal/api"
	"github.com/ifitclub/ifit-agent/internal/session"
	"github.com/spf13/cobra"
)

// fetchFunc fetches one data set for the signed-in athlete.
type fetchFunc func(ctx context.Context, client *api.Client, athleteID int64) (any, error)

func newProfileCmd() *cobra.Command {
	return newDataCmd("profile", "Show the athlete profile", session.KeyCachedProfile,
		func(ctx context.Context, client *api.Client, athleteID int64) (any, error) {
			return client.GetProfile(ctx, athleteID)
		})
}

func newStatsCmd() *cobra.Command {
	return newDataCmd("stats", "Show aggregate training statistics", session.KeyCachedStats,
		func(ctx context.Context, client *api.Client, athleteID int64) (any, error) {
			return client.GetStats(ctx, athleteID)
		})
}

func newLeaderboardCmd() *cobra.Command {
	return newDataCmd("leaderboard", "Show the club leaderboard", "",
		func(ctx context.Context, client *api.Client, athleteID int64) (any, error) {
			return client.GetLeaderboard(ctx, athleteID)
		})
}

func newChallengesCmd() *cobra.Command {
	return newDataCmd("challenges", "Show available challenges", "",
		func(ctx context.Context, client *api.Client, athleteID int64) (any, error) {
			return client.GetChallenges(ctx, athleteID)
		})
}

func newActivitiesCmd() *cobra.Command {
	var page, perPage int

	cmd := newDataCmd("activities", "Show the activity history, most recent first", session.KeyCachedActivities,
		func(ctx context.Context, client *api.Client, athleteID int64) (any, error) {
			return client.GetActivities(ctx, athleteID, page, perPage)
		})

	cmd.Flags().IntVar(&page, "page", 1, "page number to fetch")
	cmd.Flags().IntVar(&perPage, "per-page", api.DefaultPageSize, "activities per page")
	return cmd
}

// newDataCmd builds a read command: fetch from the platform and print JSON.
// When the platform is unreachable and a cached copy exists from the
// post-login prefetch, the cached copy is printed instead.
func newDataCmd(use, short, cacheKey string, fetch fetchFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}
			defer infra.Shutdown(ctx)

			sessions := openSession(ctx, cfg, infra)
			current, ok := sessions.Current()
			if !ok {
				return fmt.Errorf("not signed in; run 'ifit login' first")
			}

			client := api.NewClient(cfg.API.BaseURL, sessions, cfg.API.Timeout.Duration)

			data, err := fetch(ctx, client, current.AthleteID)
			if err == nil {
				return printJSON(cmd, data)
			}

			if cacheKey == "" {
				return err
			}

			cached, cacheErr := infra.Store().Get(ctx, cacheKey)
			if cacheErr != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), "Platform unreachable; showing cached data.")
			return printRawJSON(cmd, []byte(cached))
		},
	}
}

func printJSON(cmd *cobra.Command, data any) error {
	blob, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(blob))
	return nil
}

func printRawJSON(cmd *cobra.Command, blob []byte) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, blob, "", "  "); err != nil {
		// Cached blob should be valid JSON; print as-is if it is not.
		fmt.Fprintln(cmd.OutOrStdout(), string(blob))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}
