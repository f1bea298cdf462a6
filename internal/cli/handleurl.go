package cli

import (
	"fmt"

	"github.com/ifitclub/ifit-agent/internal/api"
	"github.com/ifitclub/ifit-agent/internal/deeplink"
	"github.com/ifitclub/ifit-agent/internal/login"
	"github.com/spf13/cobra"
)

func newHandleURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "handle-url <url>",
		Short: "Process a sign-in callback URL delivered at launch",
		Long: "Process one app-scheme URL as a cold start: parse it, and if it is an auth " +
			"callback, commit or reject the session and exit. URLs that are not auth callbacks " +
			"are ignored.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}
			defer infra.Shutdown(ctx)

			sessions := openSession(ctx, cfg, infra)
			sessions.CheckLaunchURL(deeplink.StaticSource{URL: args[0]})

			client := api.NewClient(cfg.API.BaseURL, sessions, cfg.API.Timeout.Duration)
			controller := login.NewController(
				sessions,
				client,
				infra.Store(),
				terminalNotifier{out: cmd.OutOrStdout()},
				newTerminalNavigator(cmd.OutOrStdout()),
				infra.Logger(),
				cfg.Prefetch.ActivityPageSize,
			)

			switch controller.Process(ctx) {
			case login.OutcomeNone:
				fmt.Fprintln(cmd.OutOrStdout(), "URL is not a sign-in callback; nothing to do.")
			case login.OutcomeFailed:
				return fmt.Errorf("sign-in callback could not be processed")
			}
			return nil
		},
	}
}
