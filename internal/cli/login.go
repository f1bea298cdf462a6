package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ifitclub/ifit-agent/internal/app"
	"github.com/ifitclub/ifit-agent/internal/oauth"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser",
		Long: "Open the provider's sign-in page in the browser, wait for the callback on the " +
			"loopback server, and commit the session. Interrupt with Ctrl-C to stop waiting; " +
			"sign-in is not cancelled remotely and a later callback is still honored by a " +
			"running agent.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, infra, err := setup(ctx)
			if err != nil {
				return err
			}

			notifier := terminalNotifier{out: cmd.OutOrStdout()}
			nav := newTerminalNavigator(cmd.OutOrStdout())

			application, err := app.NewApp(infra, cfg, notifier, nav, "")
			if err != nil {
				infra.Shutdown(ctx)
				return err
			}

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			runErr := make(chan error, 1)
			go func() {
				runErr <- application.Run(runCtx)
			}()

			launcher := oauth.NewLauncher(
				cfg.OAuth.ClientID,
				cfg.OAuth.AuthorizeURL,
				cfg.OAuth.RedirectURL,
				infra.Logger(),
			)
			defer launcher.Cancel()

			if _, err := launcher.Launch(); err != nil {
				cancel()
				<-runErr
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Waiting for you to finish signing in in the browser...")

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case <-nav.Done():
				cancel()
				return <-runErr
			case <-quit:
				fmt.Fprintln(cmd.OutOrStdout(), "Stopped waiting. Run login again to retry.")
				cancel()
				return <-runErr
			case err := <-runErr:
				return err
			}
		},
	}
}
