package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ifitclub/ifit-agent/internal/app"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [url]",
		Short: "Run the resident agent and its callback server",
		Long: "Run the resident agent: serve the loopback OAuth callback endpoint and process " +
			"sign-in events until interrupted. An optional url argument is treated as the URL " +
			"the process was launched with.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			launchURL := ""
			if len(args) == 1 {
				launchURL = args[0]
			}

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}

			notifier := terminalNotifier{out: cmd.OutOrStdout()}
			nav := newTerminalNavigator(cmd.OutOrStdout())

			application, err := app.NewApp(infra, cfg, notifier, nav, launchURL)
			if err != nil {
				infra.Shutdown(ctx)
				return err
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			go func() {
				<-quit
				infra.Logger().Info("received shutdown signal")
				cancel()
			}()

			return application.Run(runCtx)
		},
	}
}
